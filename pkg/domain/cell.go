package domain

// CellKind discriminates the two cell variants of the interchange format.
type CellKind string

const (
	// CellKindCode is an executable cell: source plus outputs and a count.
	CellKindCode CellKind = "code"
	// CellKindMarkdown is a narrative cell: source only.
	CellKindMarkdown CellKind = "markdown"
)

// Valid reports whether the kind is one of the known discriminators.
func (k CellKind) Valid() bool {
	return k == CellKindCode || k == CellKindMarkdown
}

// Output is one execution output record attached to a code cell.
// It is kept as an opaque map so that rich records produced by other
// frontends survive a load/save round trip untouched.
type Output map[string]any

// TextOutput builds a plain stream output carrying the given text.
func TextOutput(text string) Output {
	return Output{
		"output_type": "stream",
		"name":        "stdout",
		"text":        text,
	}
}

// ErrorOutput builds an error output record as emitted by a failed execution.
func ErrorOutput(name, message string) Output {
	return Output{
		"output_type": "error",
		"ename":       name,
		"evalue":      message,
	}
}

// Text extracts the textual payload of the output, best effort.
// Unknown shapes yield the empty string.
func (o Output) Text() string {
	if s, ok := o["text"].(string); ok {
		return s
	}
	if s, ok := o["evalue"].(string); ok {
		return s
	}
	return ""
}

// Cell is one unit of a notebook document.
//
// Invariant: a markdown cell never carries outputs or an execution count.
// The zero value is not usable; construct cells with NewCell.
type Cell struct {
	Kind   CellKind `json:"cell_type"`
	Source string   `json:"source"`

	// ExecutionCount is the session counter stamped on the last successful
	// run. Nil means the cell has never been executed. Code cells only.
	ExecutionCount *int `json:"execution_count,omitempty"`

	// Outputs holds the results of the last successful run, in emission
	// order. Code cells only.
	Outputs []Output `json:"outputs,omitempty"`
}

// NewCell constructs an empty cell of the given kind.
func NewCell(kind CellKind) *Cell {
	c := &Cell{Kind: kind}
	if kind == CellKindCode {
		c.Outputs = []Output{}
	}
	return c
}

// IsCode reports whether the cell is executable.
func (c *Cell) IsCode() bool {
	return c.Kind == CellKindCode
}

// SetResult overwrites the cell's outputs and execution count with the
// result of a successful run. Prior outputs are discarded, not appended.
func (c *Cell) SetResult(outputs []Output, executionCount int) {
	if outputs == nil {
		outputs = []Output{}
	}
	c.Outputs = outputs
	c.ExecutionCount = &executionCount
}
