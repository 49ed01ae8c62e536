package quire

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/quire/pkg/document"
)

// Runner executes a document's cells and writes a report using provided IO.
// This allows for easy testing and integration with different frontends
// (CLI, TUI, etc).
type Runner struct {
	Output io.Writer
	// Headless limits the report to code cells and their outputs, for
	// machine consumption.
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms markdown content before
// outputting it. This allows for TUI rendering (markdown to ANSI) without
// coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. The caller must set Output (use
// os.Stdout for interactive use).
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes all code cells in order and writes the resulting report.
// Per-cell execution failures are written into the report and returned
// joined, so callers can distinguish a clean run from a partial one.
func (r *Runner) Run(ctx context.Context, doc *document.Document) error {
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	runErr := doc.RunAll(ctx)
	if err := r.Render(doc); err != nil {
		return err
	}
	return runErr
}

// Render writes the document's current content and outputs without running
// anything.
func (r *Runner) Render(doc *document.Document) error {
	writer := r.Output
	if writer == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	for _, cell := range doc.Cells() {
		if !cell.IsCode() {
			if r.Headless {
				continue
			}
			content := cell.Source
			if r.Renderer != nil {
				rendered, err := r.Renderer(content)
				if err != nil {
					return fmt.Errorf("render error: %w", err)
				}
				content = rendered
			}
			fmt.Fprintln(writer, strings.TrimRight(content, "\n"))
			fmt.Fprintln(writer)
			continue
		}

		label := " "
		if cell.ExecutionCount != nil {
			label = fmt.Sprintf("%d", *cell.ExecutionCount)
		}
		fmt.Fprintf(writer, "In [%s]: %s\n", label, strings.TrimRight(cell.Source, "\n"))
		for _, output := range cell.Outputs {
			if text := output.Text(); text != "" {
				fmt.Fprintf(writer, "Out[%s]: %s\n", label, strings.TrimRight(text, "\n"))
			}
		}
		fmt.Fprintln(writer)
	}
	return nil
}
