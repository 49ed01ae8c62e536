package outline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/quire/pkg/domain"
)

func cell(kind domain.CellKind, source string) *domain.Cell {
	c := domain.NewCell(kind)
	c.Source = source
	return c
}

func TestGenerate_HeadingsAndCode(t *testing.T) {
	count := 3
	ran := cell(domain.CellKindCode, "x = compute()\nprint(x)")
	ran.ExecutionCount = &count

	cells := []*domain.Cell{
		cell(domain.CellKindMarkdown, "# Analysis"),
		cell(domain.CellKindMarkdown, "## Setup\nSome prose."),
		ran,
		cell(domain.CellKindCode, ""),
	}

	out := Generate(cells, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "  Analysis", lines[0])
	assert.Equal(t, "    Setup", lines[1])
	assert.Equal(t, "  [3] x = compute()", lines[2])
	assert.Equal(t, "  [ ] (empty)", lines[3])
}

func TestGenerate_FocusMarker(t *testing.T) {
	cells := []*domain.Cell{
		cell(domain.CellKindMarkdown, "# One"),
		cell(domain.CellKindMarkdown, "# Two"),
	}

	out := Generate(cells, &Overlay{FocusIndex: 1})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "  One", lines[0])
	assert.Equal(t, "> Two", lines[1])
}

func TestGenerate_NonHeadingMarkdown(t *testing.T) {
	out := Generate([]*domain.Cell{cell(domain.CellKindMarkdown, "just prose")}, nil)
	assert.Contains(t, out, "(md) just prose")
}

func TestGenerate_LongLinesTruncated(t *testing.T) {
	long := strings.Repeat("a", 100)
	out := Generate([]*domain.Cell{cell(domain.CellKindCode, long)}, nil)
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, long)
}
