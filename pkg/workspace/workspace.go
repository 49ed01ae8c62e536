package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"log/slog"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/document"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Workspace tracks the set of open documents and serializes operations on
// each of them. It uses reference counting to garbage collect unused locks.
type Workspace struct {
	transport ports.KernelTransport
	registry  kernel.Registry

	mu    sync.Mutex
	docs  map[string]*document.Document // keyed by document path
	locks map[string]*lockEntry

	store      ports.SnapshotStore
	picker     ports.PathPicker
	kernelOpts []kernel.Option
	logger     *slog.Logger
}

// Option configures the Workspace.
type Option func(*Workspace)

// WithSnapshotStore enables snapshot persistence for documents opened
// through the workspace.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(w *Workspace) {
		w.store = store
	}
}

// WithPathPicker installs the save-path selection boundary passed to
// documents opened through the workspace.
func WithPathPicker(picker ports.PathPicker) Option {
	return func(w *Workspace) {
		w.picker = picker
	}
}

// WithKernelOptions applies session options to every kernel session the
// workspace creates.
func WithKernelOptions(opts ...kernel.Option) Option {
	return func(w *Workspace) {
		w.kernelOpts = append(w.kernelOpts, opts...)
	}
}

// WithLogger configures a logger for the Workspace and its documents.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// New creates a Workspace that launches kernels through the given transport
// and resolves kernel names against the given registry.
func New(transport ports.KernelTransport, registry kernel.Registry, opts ...Option) *Workspace {
	w := &Workspace{
		transport: transport,
		registry:  registry,
		docs:      make(map[string]*document.Document),
		locks:     make(map[string]*lockEntry),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after
// unlocking.
func (w *Workspace) acquire(key string) *lockEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, exists := w.locks[key]
	if !exists {
		entry = &lockEntry{}
		w.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it
// reaches zero.
func (w *Workspace) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, exists := w.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(w.locks, key)
	}
}

// WithLock executes a function while holding the lock for the document key.
func (w *Workspace) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := w.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		w.release(key)
	}()

	return fn(ctx)
}

// Open returns the already-open document for path, or loads it from disk
// with a fresh kernel session. The kernel name is resolved against the
// registry; an empty name selects the registry default.
func (w *Workspace) Open(ctx context.Context, path, kernelName string) (*document.Document, error) {
	var doc *document.Document
	err := w.WithLock(ctx, path, func(ctx context.Context) error {
		w.mu.Lock()
		existing, ok := w.docs[path]
		w.mu.Unlock()
		if ok {
			doc = existing
			return nil
		}

		spec, ok := w.registry.Lookup(kernelName)
		if !ok {
			return fmt.Errorf("unknown kernel %q", kernelName)
		}

		opts := append([]kernel.Option{kernel.WithLogger(w.logger)}, w.kernelOpts...)
		session := kernel.NewSession(w.transport, spec, opts...)

		docOpts := []document.Option{document.WithLogger(w.logger)}
		if w.store != nil {
			docOpts = append(docOpts, document.WithSnapshotStore(w.store))
		}
		if w.picker != nil {
			docOpts = append(docOpts, document.WithPathPicker(w.picker))
		}
		doc = document.New(path, session, docOpts...)
		if err := doc.Load(); err != nil {
			doc.Close()
			doc = nil
			return err
		}

		w.mu.Lock()
		w.docs[path] = doc
		w.mu.Unlock()
		w.logger.Info("document opened", "path", path, "id", doc.ID())
		return nil
	})
	return doc, err
}

// Get returns the open document for path, if any.
func (w *Workspace) Get(path string) (*document.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[path]
	return doc, ok
}

// Close shuts down the document's kernel session and forgets the document.
// Closing a path that is not open reports domain.ErrDocumentNotFound.
func (w *Workspace) Close(ctx context.Context, path string) error {
	return w.WithLock(ctx, path, func(ctx context.Context) error {
		w.mu.Lock()
		doc, ok := w.docs[path]
		if ok {
			delete(w.docs, path)
		}
		w.mu.Unlock()
		if !ok {
			return domain.ErrDocumentNotFound
		}
		doc.Close()
		return nil
	})
}

// List returns the paths of all open documents, sorted.
func (w *Workspace) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.docs))
	for path := range w.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// SnapshotAll writes a snapshot of every open document to the snapshot
// store. Individual failures are logged and do not stop the sweep; the
// first error is returned after all documents were attempted.
func (w *Workspace) SnapshotAll(ctx context.Context) error {
	var first error
	for _, path := range w.List() {
		doc, ok := w.Get(path)
		if !ok {
			continue
		}
		if err := doc.Snapshot(ctx); err != nil {
			w.logger.Warn("snapshot failed", "path", path, "err", err)
			if first == nil {
				first = fmt.Errorf("snapshot %s: %w", path, err)
			}
		}
	}
	return first
}

// Shutdown closes every open document.
func (w *Workspace) Shutdown(ctx context.Context) {
	for _, path := range w.List() {
		if err := w.Close(ctx, path); err != nil {
			w.logger.Warn("close failed", "path", path, "err", err)
		}
	}
}
