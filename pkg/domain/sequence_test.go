package domain_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_BootstrapFocus(t *testing.T) {
	seq := domain.NewCellSequence()
	require.Nil(t, seq.Focus())

	first := domain.NewCell(domain.CellKindCode)
	seq.Insert(first, domain.InsertAfter)

	// First insert into an empty sequence grabs focus.
	assert.Equal(t, 1, seq.Len())
	assert.Same(t, first, seq.Focus())

	second := domain.NewCell(domain.CellKindMarkdown)
	seq.Insert(second, domain.InsertAfter)

	// Subsequent inserts leave focus where it was.
	assert.Same(t, first, seq.Focus())
	assert.Equal(t, []*domain.Cell{first, second}, seq.Snapshot())
}

func TestSequence_InsertBeforeAndAfterFocus(t *testing.T) {
	seq := domain.NewCellSequence()
	a := domain.NewCell(domain.CellKindCode)
	b := domain.NewCell(domain.CellKindCode)
	c := domain.NewCell(domain.CellKindCode)

	seq.Insert(a, domain.InsertAfter) // focus = a
	seq.Insert(b, domain.InsertAfter) // a, b
	seq.Insert(c, domain.InsertBefore)

	assert.Equal(t, []*domain.Cell{c, a, b}, seq.Snapshot())
}

func TestSequence_RemoveClearsFocus(t *testing.T) {
	seq := domain.NewCellSequence()
	a := domain.NewCell(domain.CellKindCode)
	b := domain.NewCell(domain.CellKindMarkdown)
	seq.Insert(a, domain.InsertAfter)
	seq.Insert(b, domain.InsertAfter)

	seq.Remove(a)

	assert.Nil(t, seq.Focus(), "removing the focused cell must clear focus, not guess a successor")
	assert.Equal(t, []*domain.Cell{b}, seq.Snapshot())

	// Removing a cell that is no longer present is a defined no-op.
	seq.Remove(a)
	assert.Equal(t, 1, seq.Len())
}

func TestSequence_SetFocusRejectsForeignCell(t *testing.T) {
	seq := domain.NewCellSequence()
	member := domain.NewCell(domain.CellKindCode)
	stranger := domain.NewCell(domain.CellKindCode)
	seq.Insert(member, domain.InsertAfter)

	seq.SetFocus(stranger)
	assert.Same(t, member, seq.Focus())

	seq.SetFocus(nil)
	assert.Nil(t, seq.Focus())
}

func TestSequence_NoDuplicateReferences(t *testing.T) {
	seq := domain.NewCellSequence()
	cell := domain.NewCell(domain.CellKindCode)
	seq.Insert(cell, domain.InsertAfter)
	seq.Insert(cell, domain.InsertAfter)
	seq.Insert(cell, domain.InsertBefore)

	assert.Equal(t, 1, seq.Len())
}

// TestSequence_InsertRemoveInvariant drives a random operation mix and checks
// that length always equals inserts minus successful removes and that no
// reference appears twice.
func TestSequence_InsertRemoveInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seq := domain.NewCellSequence()

	var live []*domain.Cell
	inserted, removed := 0, 0

	for i := 0; i < 500; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			cell := domain.NewCell(domain.CellKindCode)
			if rng.Intn(2) == 0 {
				seq.Insert(cell, domain.InsertBefore)
			} else {
				seq.Insert(cell, domain.InsertAfter)
			}
			live = append(live, cell)
			inserted++
		} else {
			victim := live[rng.Intn(len(live))]
			seq.Remove(victim)
			for j, c := range live {
				if c == victim {
					live = append(live[:j], live[j+1:]...)
					break
				}
			}
			removed++
		}

		require.Equal(t, inserted-removed, seq.Len())

		seen := map[*domain.Cell]bool{}
		for c := range seq.Cells() {
			require.False(t, seen[c], "duplicate cell reference in sequence")
			seen[c] = true
		}

		if f := seq.Focus(); f != nil {
			require.True(t, seen[f], "focus must refer to a live cell")
		}
	}
}

func TestSequence_IterationIsRestartable(t *testing.T) {
	seq := domain.NewCellSequence()
	for i := 0; i < 3; i++ {
		seq.Insert(domain.NewCell(domain.CellKindCode), domain.InsertAfter)
	}

	count := func() int {
		n := 0
		for range seq.Cells() {
			n++
		}
		return n
	}

	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count(), "each call must yield a fresh traversal")
}
