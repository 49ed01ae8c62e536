// Package http exposes the workspace over a REST control surface, so
// front ends can drive documents and kernels without linking the Go API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/document"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/workspace"
)

// Server routes REST requests to the workspace.
type Server struct {
	workspace *workspace.Workspace
	metrics   *observability.Metrics
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics enables Prometheus instrumentation of the control surface.
// The gatherer backs the /metrics endpoint and should be the registry the
// collectors were registered with.
func WithMetrics(m *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the workspace.
func NewHandler(ws *workspace.Workspace, opts ...Option) http.Handler {
	server := &Server{
		workspace: ws,
		gatherer:  prometheus.DefaultGatherer,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.Health)
	r.Get("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", server.ListDocuments)
		r.Post("/", server.OpenDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetDocument)
			r.Delete("/", server.CloseDocument)
			r.Post("/cells", server.AddCell)
			r.Delete("/cells/focused", server.DeleteFocusedCell)
			r.Post("/focus", server.SetFocus)
			r.Post("/run", server.RunCell)
			r.Post("/run-all", server.RunAll)
			r.Post("/restart", server.RestartKernel)
			r.Post("/save", server.SaveDocument)
			r.Post("/snapshot", server.SnapshotDocument)
		})
	})
	return r
}

// -- Wire types --

type cellView struct {
	Index          int             `json:"index"`
	Kind           string          `json:"kind"`
	Source         string          `json:"source"`
	ExecutionCount *int            `json:"execution_count"`
	Outputs        []domain.Output `json:"outputs,omitempty"`
	Focused        bool            `json:"focused"`
}

type documentView struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	Valid       bool       `json:"valid"`
	KernelState string     `json:"kernel_state"`
	Language    string     `json:"language"`
	Cells       []cellView `json:"cells"`
}

type openRequest struct {
	Path   string `json:"path"`
	Kernel string `json:"kernel,omitempty"`
}

type addCellRequest struct {
	Kind     string `json:"kind"`
	Position string `json:"position,omitempty"`
	Source   string `json:"source,omitempty"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type saveRequest struct {
	Path string `json:"path,omitempty"`
}

func viewOf(doc *document.Document) documentView {
	focus := doc.Focus()
	cells := doc.Cells()
	view := documentView{
		ID:          doc.ID(),
		Path:        doc.Path(),
		Valid:       doc.IsValid(),
		KernelState: string(doc.Session().State()),
		Language:    doc.Session().LanguageInfo().Name,
		Cells:       make([]cellView, 0, len(cells)),
	}
	for i, cell := range cells {
		view.Cells = append(view.Cells, cellView{
			Index:          i,
			Kind:           string(cell.Kind),
			Source:         cell.Source,
			ExecutionCount: cell.ExecutionCount,
			Outputs:        cell.Outputs,
			Focused:        cell == focus,
		})
	}
	return view
}

// -- Handlers --

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	views := make([]documentView, 0)
	for _, path := range s.workspace.List() {
		if doc, ok := s.workspace.Get(path); ok {
			views = append(views, viewOf(doc))
		}
	}
	s.writeJSON(w, http.StatusOK, views)
}

// OpenDocument handles POST /documents.
func (s *Server) OpenDocument(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := s.workspace.Open(r.Context(), body.Path, body.Kernel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.OpenDocuments.Set(float64(len(s.workspace.List())))
	}
	s.writeJSON(w, http.StatusCreated, viewOf(doc))
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// CloseDocument handles DELETE /documents/{id}.
func (s *Server) CloseDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}
	if err := s.workspace.Close(r.Context(), doc.Path()); err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.OpenDocuments.Set(float64(len(s.workspace.List())))
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCell handles POST /documents/{id}/cells.
func (s *Server) AddCell(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}

	var body addCellRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind := domain.CellKind(body.Kind)
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("Unknown cell kind %q", body.Kind), http.StatusBadRequest)
		return
	}
	position := domain.InsertAfter
	if body.Position == "before" {
		position = domain.InsertBefore
	}

	cell, err := doc.AddCell(kind, position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := doc.SetSource(cell, body.Source); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOf(doc))
}

// DeleteFocusedCell handles DELETE /documents/{id}/cells/focused.
func (s *Server) DeleteFocusedCell(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}
	if err := doc.DeleteFocusedCell(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// SetFocus handles POST /documents/{id}/focus.
func (s *Server) SetFocus(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}

	cell := s.cellAt(doc, w, r)
	if cell == nil {
		return
	}
	doc.FocusCell(cell)
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// RunCell handles POST /documents/{id}/run.
func (s *Server) RunCell(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}

	cell := s.cellAt(doc, w, r)
	if cell == nil {
		return
	}

	start := time.Now()
	err := doc.RunCell(r.Context(), cell)
	if s.metrics != nil {
		s.metrics.ObserveExecution(start, err)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// RunAll handles POST /documents/{id}/run-all.
func (s *Server) RunAll(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}

	start := time.Now()
	err := doc.RunAll(r.Context())
	if s.metrics != nil {
		s.metrics.ObserveExecution(start, err)
	}
	if err != nil && !isPerCellFailure(err) {
		s.writeError(w, err)
		return
	}

	view := viewOf(doc)
	resp := struct {
		documentView
		RunErrors string `json:"run_errors,omitempty"`
	}{documentView: view}
	if err != nil {
		resp.RunErrors = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// RestartKernel handles POST /documents/{id}/restart.
func (s *Server) RestartKernel(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}
	if err := doc.RestartKernel(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.KernelRestarts.Inc()
	}
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// SaveDocument handles POST /documents/{id}/save.
func (s *Server) SaveDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}

	var body saveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	if body.Path != "" {
		err = doc.SaveAs(body.Path)
	} else {
		err = doc.Save(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(doc))
}

// SnapshotDocument handles POST /documents/{id}/snapshot.
func (s *Server) SnapshotDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.findDocument(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domain.ErrDocumentNotFound)
		return
	}
	if err := doc.Snapshot(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SnapshotsTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) findDocument(id string) (*document.Document, bool) {
	for _, path := range s.workspace.List() {
		if doc, ok := s.workspace.Get(path); ok && doc.ID() == id {
			return doc, true
		}
	}
	return nil, false
}

// cellAt decodes an index request and resolves it to a live cell. On
// failure it writes the error response and returns nil.
func (s *Server) cellAt(doc *document.Document, w http.ResponseWriter, r *http.Request) *domain.Cell {
	var body indexRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil
	}
	cells := doc.Cells()
	if body.Index < 0 || body.Index >= len(cells) {
		http.Error(w, fmt.Sprintf("Cell index %d out of range", body.Index), http.StatusBadRequest)
		return nil
	}
	return cells[body.Index]
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrKernelBusy),
		errors.Is(err, domain.ErrSaveCancelled):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCorruptDocument):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrKernelDead),
		errors.Is(err, domain.ErrKernelLaunch),
		errors.Is(err, domain.ErrKernelRestarted):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}

// isPerCellFailure reports whether a run-all error only carries per-cell
// execution failures, which the response reports alongside the document
// instead of as a transport-level error.
func isPerCellFailure(err error) bool {
	return !errors.Is(err, domain.ErrInvalidDocument) &&
		!errors.Is(err, domain.ErrKernelDead) &&
		!errors.Is(err, domain.ErrKernelBusy)
}
