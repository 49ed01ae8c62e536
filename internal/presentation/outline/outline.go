package outline

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Overlay contains cursor state to mark on the outline.
type Overlay struct {
	FocusIndex int // index of the focused cell, -1 for none
}

// Generate produces a compact text outline for a list of cells.
// Markdown headings keep their level; code cells show the execution count
// and the first line of source. The focused cell is marked with a cursor.
func Generate(cells []*domain.Cell, overlay *Overlay) string {
	var sb strings.Builder

	for i, cell := range cells {
		marker := "  "
		if overlay != nil && overlay.FocusIndex == i {
			marker = "> "
		}

		if cell.IsCode() {
			label := " "
			if cell.ExecutionCount != nil {
				label = fmt.Sprintf("%d", *cell.ExecutionCount)
			}
			sb.WriteString(fmt.Sprintf("%s[%s] %s\n", marker, label, firstLine(cell.Source)))
			continue
		}

		if heading, level := headingOf(cell.Source); heading != "" {
			indent := strings.Repeat("  ", level-1)
			sb.WriteString(fmt.Sprintf("%s%s%s\n", marker, indent, heading))
		} else {
			sb.WriteString(fmt.Sprintf("%s(md) %s\n", marker, firstLine(cell.Source)))
		}
	}

	return sb.String()
}

func firstLine(source string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(source), "\n")
	const max = 60
	if len(line) > max {
		return line[:max] + "…"
	}
	if line == "" {
		return "(empty)"
	}
	return line
}

// headingOf returns the text and level of a leading markdown heading, or
// an empty string when the cell does not start with one.
func headingOf(source string) (string, int) {
	line := firstLine(source)
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) || line[level] != ' ' {
		return "", 0
	}
	return strings.TrimSpace(line[level:]), level
}
