package dsl

import (
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
)

// Builder manages notebook construction. Cells keep the order they were
// added in.
type Builder struct {
	cells    []*domain.Cell
	metadata map[string]any
}

// New creates a new notebook builder.
func New() *Builder {
	return &Builder{
		metadata: make(map[string]any),
	}
}

// Markdown appends a markdown cell with the given source.
func (b *Builder) Markdown(source string) *Builder {
	cell := domain.NewCell(domain.CellKindMarkdown)
	cell.Source = source
	b.cells = append(b.cells, cell)
	return b
}

// Code appends a code cell with the given source. It has no outputs and no
// execution count until it is run.
func (b *Builder) Code(source string) *Builder {
	cell := domain.NewCell(domain.CellKindCode)
	cell.Source = source
	b.cells = append(b.cells, cell)
	return b
}

// Meta sets a document metadata key.
func (b *Builder) Meta(key string, value any) *Builder {
	b.metadata[key] = value
	return b
}

// Cells returns the built cells.
func (b *Builder) Cells() []*domain.Cell {
	return b.cells
}

// Notebook compiles the builder into an interchange notebook at the
// current format version.
func (b *Builder) Notebook() *nbformat.Notebook {
	nb := &nbformat.Notebook{
		Metadata:      b.metadata,
		NBFormat:      nbformat.FormatMajor,
		NBFormatMinor: nbformat.FormatMinor,
		Cells:         make([]nbformat.Record, 0, len(b.cells)),
	}
	for _, cell := range b.cells {
		nb.Cells = append(nb.Cells, nbformat.FromCell(cell))
	}
	return nb
}

// WriteFile compiles the notebook and writes it to path atomically.
func (b *Builder) WriteFile(path string) error {
	return nbformat.WriteFile(path, b.Notebook())
}
