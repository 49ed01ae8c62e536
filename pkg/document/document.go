package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/nbformat"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/google/uuid"
)

// UnsavedPath is the sentinel for a document that exists only in memory.
// It is always valid and has no backing file until the first save.
const UnsavedPath = ""

// Document is the orchestrator of one open notebook.
type Document struct {
	mu sync.Mutex

	id    string
	path  string
	valid bool

	seq     *domain.CellSequence
	session *kernel.Session

	metadata    map[string]any
	formatMajor int
	formatMinor int

	picker ports.PathPicker
	store  ports.SnapshotStore
	logger *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithPathPicker installs the save-path selection boundary used when an
// unsaved document is saved.
func WithPathPicker(p ports.PathPicker) Option {
	return func(d *Document) {
		d.picker = p
	}
}

// WithSnapshotStore enables crash-recovery snapshots of the open document.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(d *Document) {
		d.store = s
	}
}

// WithLogger configures a logger for document events.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

// New opens a document over the given path and kernel session. The path is
// validated immediately; an invalid path produces a document whose mutating
// actions are all rejected (a standing condition, not an error here).
func New(path string, session *kernel.Session, opts ...Option) *Document {
	d := &Document{
		id:          uuid.NewString(),
		path:        path,
		valid:       Validate(path),
		seq:         domain.NewCellSequence(),
		session:     session,
		metadata:    map[string]any{},
		formatMajor: nbformat.FormatMajor,
		formatMinor: nbformat.FormatMinor,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate reports whether path names an editable notebook document: an
// existing file with the interchange extension, or the unsaved sentinel.
func Validate(path string) bool {
	if path == UnsavedPath {
		return true
	}
	if filepath.Ext(path) != nbformat.Extension {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ID returns the stable identifier of this open document, used as the
// snapshot-store key.
func (d *Document) ID() string {
	return d.id
}

// Path returns the backing path, or UnsavedPath.
func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// IsValid reports whether mutating actions are allowed.
func (d *Document) IsValid() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.valid
}

// FormatVersion returns the interchange format version carried by the
// document.
func (d *Document) FormatVersion() (major, minor int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.formatMajor, d.formatMinor
}

// Session returns the kernel session owned by this document.
func (d *Document) Session() *kernel.Session {
	return d.session
}

// Cells returns the cells in document order.
func (d *Document) Cells() []*domain.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq.Snapshot()
}

// Focus returns the focused cell, or nil.
func (d *Document) Focus() *domain.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq.Focus()
}

// FocusCell moves focus to the given cell. This is the single capability a
// presentation layer gets for focus tracking; the sequence rejects cells
// that are not members, so focus can never dangle.
func (d *Document) FocusCell(cell *domain.Cell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq.SetFocus(cell)
}

// Revalidate points the document at a different path and re-runs the
// validity gate. This is the only recovery from an invalid document.
func (d *Document) Revalidate(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path = path
	d.valid = Validate(path)
	return d.valid
}

// Load reads and parses the backing file, replacing the cell sequence with
// the file's cells in file order. Loads are all-or-nothing: structurally
// invalid content yields domain.ErrCorruptDocument, leaves the sequence
// empty, and marks the document invalid.
func (d *Document) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return domain.ErrInvalidDocument
	}
	if d.path == UnsavedPath {
		return nil // nothing to load, an empty document is the content
	}

	nb, err := nbformat.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptDocument) {
			d.valid = false
			d.seq = domain.NewCellSequence()
		}
		return err
	}

	seq := domain.NewCellSequence()
	for _, rec := range nb.Cells {
		cell := rec.ToCell()
		seq.Insert(cell, domain.InsertAfter)
		seq.SetFocus(cell) // keep appending at the end
	}
	seq.SetFocus(nil)

	d.seq = seq
	d.metadata = nb.Metadata
	d.formatMajor = nb.NBFormat
	d.formatMinor = nb.NBFormatMinor

	d.logger.Info("notebook loaded", "path", d.path, "cells", seq.Len())
	return nil
}

// AddCell constructs an empty cell of the given kind and inserts it
// relative to the current focus. With no prior focus the cell lands at the
// end and becomes the focus.
func (d *Document) AddCell(kind domain.CellKind, position domain.InsertPosition) (*domain.Cell, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return nil, domain.ErrInvalidDocument
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown cell kind %q", kind)
	}

	cell := domain.NewCell(kind)
	d.seq.Insert(cell, position)
	return cell, nil
}

// SetSource replaces the cell's source text under the document lock.
// Cell fields are never written directly by callers; a concurrent run may
// be reading the source of another cell at the same time.
func (d *Document) SetSource(cell *domain.Cell, source string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return domain.ErrInvalidDocument
	}
	if cell == nil {
		return fmt.Errorf("no cell to edit")
	}
	cell.Source = source
	return nil
}

// DeleteFocusedCell removes the focused cell and clears focus. With no
// focus it is a defined no-op. Picking a successor focus is deliberately
// left to the presentation layer.
func (d *Document) DeleteFocusedCell() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return domain.ErrInvalidDocument
	}
	if focused := d.seq.Focus(); focused != nil {
		d.seq.Remove(focused)
	}
	return nil
}

// RunCell submits the cell's current source to the kernel and, on success,
// overwrites the cell's outputs and execution count. On failure the cell
// is left untouched and the error surfaces to the caller. The document
// lock is not held while the kernel works, so unrelated edits remain
// possible; the result lands only in the cell captured here.
func (d *Document) RunCell(ctx context.Context, cell *domain.Cell) error {
	d.mu.Lock()
	if !d.valid {
		d.mu.Unlock()
		return domain.ErrInvalidDocument
	}
	if cell == nil || !cell.IsCode() {
		d.mu.Unlock()
		return fmt.Errorf("only code cells are executable")
	}
	source := cell.Source
	d.mu.Unlock()

	outputs, count, err := d.session.Submit(ctx, source)
	if err != nil {
		return err
	}

	d.mu.Lock()
	cell.SetResult(outputs, count)
	d.mu.Unlock()
	return nil
}

// RunAll executes every code cell sequentially in document order. A
// failing cell does not stop the batch; later cells may not depend on it.
// All failures are collected and reported together at the end.
func (d *Document) RunAll(ctx context.Context) error {
	d.mu.Lock()
	if !d.valid {
		d.mu.Unlock()
		return domain.ErrInvalidDocument
	}
	cells := d.seq.Snapshot()
	d.mu.Unlock()

	var errs []error
	for i, cell := range cells {
		if !cell.IsCode() {
			continue
		}
		if err := d.RunCell(ctx, cell); err != nil {
			errs = append(errs, fmt.Errorf("cell %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// RestartKernel forcibly restarts the kernel process. Any in-flight
// execution is discarded; its caller receives domain.ErrKernelRestarted.
func (d *Document) RestartKernel(ctx context.Context) error {
	d.mu.Lock()
	if !d.valid {
		d.mu.Unlock()
		return domain.ErrInvalidDocument
	}
	d.mu.Unlock()
	return d.session.Restart(ctx)
}

// Save writes the document to its backing path. An unsaved document first
// asks the path picker for a destination; a cancelled selection yields
// domain.ErrSaveCancelled and writes nothing.
func (d *Document) Save(ctx context.Context) error {
	d.mu.Lock()
	path := d.path
	valid := d.valid
	d.mu.Unlock()

	if !valid {
		return domain.ErrInvalidDocument
	}
	if path == UnsavedPath {
		if d.picker == nil {
			return fmt.Errorf("document has no path and no save-path picker is configured")
		}
		chosen, ok, err := d.picker.PickSavePath(ctx)
		if err != nil {
			return fmt.Errorf("save-path selection failed: %w", err)
		}
		if !ok {
			return domain.ErrSaveCancelled
		}
		path = chosen
	}
	return d.SaveAs(path)
}

// SaveAs writes the document to the given path and binds the document to
// it. The write is atomic: a mid-write failure never truncates an
// existing file.
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return domain.ErrInvalidDocument
	}
	if filepath.Ext(path) != nbformat.Extension {
		return fmt.Errorf("%w: %q does not have the %s extension", domain.ErrInvalidDocument, path, nbformat.Extension)
	}

	nb := d.notebookLocked()
	if err := nbformat.WriteFile(path, nb); err != nil {
		return err
	}

	d.path = path
	d.logger.Info("notebook saved", "path", path, "cells", len(nb.Cells))
	return nil
}

// Notebook serializes the current document state into an interchange
// notebook, refreshing the kernel metadata blocks from the live session.
func (d *Document) Notebook() *nbformat.Notebook {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notebookLocked()
}

func (d *Document) notebookLocked() *nbformat.Notebook {
	records := make([]nbformat.Record, 0, d.seq.Len())
	for cell := range d.seq.Cells() {
		records = append(records, nbformat.FromCell(cell))
	}

	meta := nbformat.ApplyKernelMeta(d.metadata, nbformat.KernelMeta{
		Spec:     d.session.Spec(),
		Info:     d.session.Info(),
		Language: d.session.LanguageInfo(),
	})

	return &nbformat.Notebook{
		Metadata:      meta,
		NBFormat:      d.formatMajor,
		NBFormatMinor: d.formatMinor,
		Cells:         records,
	}
}

// Snapshot persists the current state to the snapshot store, if one is
// configured. A no-op otherwise.
func (d *Document) Snapshot(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	return d.store.Save(ctx, d.id, d.Notebook())
}

// Close shuts the kernel session down. The document is not usable
// afterwards.
func (d *Document) Close() {
	d.session.Shutdown()
}
