package nbformat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Extension is the file extension that gates document validity.
const Extension = ".ipynb"

// Default format version written for documents created in memory.
const (
	FormatMajor = 4
	FormatMinor = 5
)

// Notebook is the top-level interchange document.
type Notebook struct {
	// Metadata is an opaque map carried through unmodified on load/save,
	// save for the kernel blocks refreshed from the live session.
	Metadata map[string]any `json:"metadata"`

	NBFormat      int `json:"nbformat"`
	NBFormatMinor int `json:"nbformat_minor"`

	// Cells is the ordered list of serialized cell records.
	Cells []Record `json:"cells"`
}

// Record is one serialized cell, tagged by its cell_type discriminator.
type Record struct {
	CellType string          `json:"cell_type"`
	Source   SourceText      `json:"source"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Count    *int            `json:"execution_count,omitempty"`
	Outputs  []domain.Output `json:"outputs,omitempty"`
}

// SourceText is cell source that tolerates both encodings found in the
// wild: a plain string or a list of line fragments. It always marshals
// back as a plain string.
type SourceText string

// UnmarshalJSON accepts a string or a list of strings.
func (s *SourceText) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = SourceText(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or a list of strings")
	}
	*s = SourceText(strings.Join(lines, ""))
	return nil
}

// MarshalJSON emits the source as a plain string.
func (s SourceText) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Decode parses interchange JSON into a Notebook. Structural problems
// (unparsable content, missing cells, unknown cell kinds) are reported as
// domain.ErrCorruptDocument; partial results are never returned.
func Decode(data []byte) (*Notebook, error) {
	var raw struct {
		Metadata      map[string]any     `json:"metadata"`
		NBFormat      *int               `json:"nbformat"`
		NBFormatMinor *int               `json:"nbformat_minor"`
		Cells         *[]json.RawMessage `json:"cells"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	if raw.Cells == nil {
		return nil, fmt.Errorf("%w: missing required key %q", domain.ErrCorruptDocument, "cells")
	}

	nb := &Notebook{
		Metadata:      raw.Metadata,
		NBFormat:      FormatMajor,
		NBFormatMinor: FormatMinor,
		Cells:         make([]Record, 0, len(*raw.Cells)),
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	if raw.NBFormat != nil {
		nb.NBFormat = *raw.NBFormat
	}
	if raw.NBFormatMinor != nil {
		nb.NBFormatMinor = *raw.NBFormatMinor
	}

	for i, rawCell := range *raw.Cells {
		rec, err := decodeRecord(rawCell)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		nb.Cells = append(nb.Cells, rec)
	}
	return nb, nil
}

func decodeRecord(data []byte) (Record, error) {
	var probe struct {
		CellType *string     `json:"cell_type"`
		Source   *SourceText `json:"source"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Record{}, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	if probe.CellType == nil {
		return Record{}, fmt.Errorf("%w: missing required key %q", domain.ErrCorruptDocument, "cell_type")
	}
	if !domain.CellKind(*probe.CellType).Valid() {
		return Record{}, fmt.Errorf("%w: unknown cell kind %q", domain.ErrCorruptDocument, *probe.CellType)
	}
	if probe.Source == nil {
		return Record{}, fmt.Errorf("%w: missing required key %q", domain.ErrCorruptDocument, "source")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	// Code records always carry an outputs list, even an empty one; the
	// omitempty on Record.Outputs would otherwise flip [] to absent across
	// an encode/decode cycle.
	if rec.CellType == string(domain.CellKindCode) && rec.Outputs == nil {
		rec.Outputs = []domain.Output{}
	}
	return rec, nil
}

// Shadow shapes for marshalling. Code records always emit execution_count
// (null when never run) and an outputs list; markdown records never carry
// either key. Both always emit a metadata object.
type codeRecordJSON struct {
	CellType string          `json:"cell_type"`
	Count    *int            `json:"execution_count"`
	Metadata map[string]any  `json:"metadata"`
	Outputs  []domain.Output `json:"outputs"`
	Source   SourceText      `json:"source"`
}

type markdownRecordJSON struct {
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   SourceText     `json:"source"`
}

// MarshalJSON emits the record in the shape its cell kind requires.
func (r Record) MarshalJSON() ([]byte, error) {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	if r.CellType == string(domain.CellKindCode) {
		outputs := r.Outputs
		if outputs == nil {
			outputs = []domain.Output{}
		}
		return json.Marshal(codeRecordJSON{
			CellType: r.CellType,
			Count:    r.Count,
			Metadata: meta,
			Outputs:  outputs,
			Source:   r.Source,
		})
	}
	return json.Marshal(markdownRecordJSON{
		CellType: r.CellType,
		Metadata: meta,
		Source:   r.Source,
	})
}

// Encode serializes the notebook as indented JSON.
func (n *Notebook) Encode() ([]byte, error) {
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}
	if n.Cells == nil {
		n.Cells = []Record{}
	}
	data, err := json.MarshalIndent(n, "", " ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notebook: %w", err)
	}
	return data, nil
}

// ToCell constructs a domain cell of the matching kind from the record.
func (r Record) ToCell() *domain.Cell {
	cell := domain.NewCell(domain.CellKind(r.CellType))
	cell.Source = string(r.Source)
	if cell.IsCode() {
		cell.ExecutionCount = r.Count
		if r.Outputs != nil {
			cell.Outputs = r.Outputs
		}
	}
	return cell
}

// FromCell serializes a domain cell into a record.
// Markdown cells never carry execution_count or outputs.
func FromCell(c *domain.Cell) Record {
	rec := Record{
		CellType: string(c.Kind),
		Source:   SourceText(c.Source),
	}
	if c.IsCode() {
		rec.Count = c.ExecutionCount
		rec.Outputs = c.Outputs
		if rec.Outputs == nil {
			rec.Outputs = []domain.Output{}
		}
	}
	return rec
}
