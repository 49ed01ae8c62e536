package domain

import "iter"

// InsertPosition selects which side of the anchor a new cell lands on.
type InsertPosition string

const (
	// InsertBefore places the new cell immediately before the anchor.
	InsertBefore InsertPosition = "before"
	// InsertAfter places the new cell immediately after the anchor.
	InsertAfter InsertPosition = "after"
)

// CellSequence is the ordered, mutable collection of cells of one document.
//
// Order is semantically meaningful (it is execution and document order).
// The sequence also tracks the focus cursor: the cell most recently
// interacted with, which anchors relative insertion and deletion. Focus
// always refers to a cell currently in the sequence, or is nil.
//
// CellSequence is not safe for concurrent use; callers follow the
// single-writer discipline enforced by Document.
type CellSequence struct {
	cells []*Cell
	focus *Cell
}

// NewCellSequence creates an empty sequence with no focus.
func NewCellSequence() *CellSequence {
	return &CellSequence{}
}

// Len returns the number of cells in the sequence.
func (s *CellSequence) Len() int {
	return len(s.cells)
}

// Focus returns the focused cell, or nil when no cell holds focus.
func (s *CellSequence) Focus() *Cell {
	return s.focus
}

// SetFocus moves the focus cursor to the given cell. The call is a no-op
// if the cell is not a member of the sequence, keeping the "focus refers
// to a live cell or is nil" invariant intact. Passing nil clears focus.
func (s *CellSequence) SetFocus(cell *Cell) {
	if cell == nil {
		s.focus = nil
		return
	}
	if s.indexOf(cell) >= 0 {
		s.focus = cell
	}
}

// Insert places cell adjacent to the current focus. With no focus the cell
// is appended at the end and becomes the new focus (bootstrap case);
// otherwise focus is left where it was. A cell already in the sequence is
// never inserted twice.
func (s *CellSequence) Insert(cell *Cell, position InsertPosition) {
	if cell == nil || s.indexOf(cell) >= 0 {
		return
	}

	anchor := s.indexOf(s.focus)
	if anchor < 0 {
		s.cells = append(s.cells, cell)
		s.focus = cell
		return
	}

	at := anchor
	if position == InsertAfter {
		at = anchor + 1
	}
	s.cells = append(s.cells, nil)
	copy(s.cells[at+1:], s.cells[at:])
	s.cells[at] = cell
}

// Remove deletes the cell from the sequence. Removing a cell that is not
// present is a defined no-op (defensive against stale references). If the
// removed cell held focus, focus becomes nil; picking a successor is the
// caller's decision.
func (s *CellSequence) Remove(cell *Cell) {
	i := s.indexOf(cell)
	if i < 0 {
		return
	}
	s.cells = append(s.cells[:i], s.cells[i+1:]...)
	if s.focus == cell {
		s.focus = nil
	}
}

// Cells yields the cells in document order. Each call starts a fresh
// traversal. The sequence must not be mutated while iterating.
func (s *CellSequence) Cells() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, c := range s.cells {
			if !yield(c) {
				return
			}
		}
	}
}

// Snapshot returns the cells as a new slice in document order.
func (s *CellSequence) Snapshot() []*Cell {
	out := make([]*Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

func (s *CellSequence) indexOf(cell *Cell) int {
	if cell == nil {
		return -1
	}
	for i, c := range s.cells {
		if c == cell {
			return i
		}
	}
	return -1
}
