package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/quire/pkg/adapters/http"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/workspace"
)

// scriptedTransport answers execute requests from a source -> reply table.
type scriptedTransport struct {
	mu      sync.Mutex
	answers map[string]string
	nextID  int
}

type scriptedProc struct {
	replies chan ports.Reply
	exited  chan struct{}
}

func (t *scriptedTransport) Start(ctx context.Context, spec domain.KernelSpec) (ports.Handle, error) {
	return &scriptedProc{replies: make(chan ports.Reply, 8), exited: make(chan struct{})}, nil
}

func (t *scriptedTransport) Info(ctx context.Context, h ports.Handle) (domain.KernelInfo, domain.LanguageInfo, error) {
	return domain.KernelInfo{Name: "calc", Version: "0"}, domain.LanguageInfo{Name: "calc"}, nil
}

func (t *scriptedTransport) SendExecute(ctx context.Context, h ports.Handle, source string) (string, error) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("exec-%d", t.nextID)
	answer, ok := t.answers[source]
	t.mu.Unlock()

	p := h.(*scriptedProc)
	if ok {
		p.replies <- ports.Reply{CorrelationID: id, Outputs: []domain.Output{domain.TextOutput(answer)}}
	} else {
		p.replies <- ports.Reply{CorrelationID: id, Err: "NameError: " + source}
	}
	return id, nil
}

func (t *scriptedTransport) Recv(ctx context.Context, h ports.Handle) (ports.Reply, error) {
	p := h.(*scriptedProc)
	select {
	case r := <-p.replies:
		return r, nil
	case <-p.exited:
		return ports.Reply{}, ports.ErrProcessExited
	case <-ctx.Done():
		return ports.Reply{}, ctx.Err()
	}
}

func (t *scriptedTransport) Kill(h ports.Handle) error {
	p := h.(*scriptedProc)
	select {
	case <-p.exited:
	default:
		close(p.exited)
	}
	return nil
}

var testRegistry = kernel.Registry{
	"": {Name: "calc", Command: "calc-kernel", Language: "calc"},
}

type testServer struct {
	handler http.Handler
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, answers map[string]string) *testServer {
	t.Helper()
	ws := workspace.New(&scriptedTransport{answers: answers}, testRegistry)
	t.Cleanup(func() { ws.Shutdown(context.Background()) })

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	return &testServer{
		handler: httpadapter.NewHandler(ws, httpadapter.WithMetrics(metrics, reg)),
		metrics: metrics,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) openNotebook(t *testing.T, path string) map[string]any {
	t.Helper()
	rr := s.do(t, "POST", "/documents", map[string]string{"path": path})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var view map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func writeNotebook(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := fmt.Sprintf(`{"nbformat": 4, "nbformat_minor": 5, "metadata": {}, "cells": [`+
		`{"cell_type": "code", "source": %q, "metadata": {}, "execution_count": null, "outputs": []}]}`, source)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(t, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_OpenAndGetDocument(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))

	id := view["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, true, view["valid"])

	rr := s.do(t, "GET", "/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, id, got["id"])
	cells := got["cells"].([]any)
	require.Len(t, cells, 1)
	assert.Equal(t, "1+1", cells[0].(map[string]any)["source"])
}

func TestServer_UnknownDocumentIs404(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(t, "GET", "/documents/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_RunCell(t *testing.T) {
	s := newTestServer(t, map[string]string{"1+1": "2"})
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/run", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	cell := got["cells"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1), cell["execution_count"])
	outputs := cell["outputs"].([]any)
	require.Len(t, outputs, 1)
}

func TestServer_RunCellIndexOutOfRange(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/run", map[string]int{"index": 5})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_RunAllReportsCellFailures(t *testing.T) {
	s := newTestServer(t, nil) // every source fails
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "boom"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/run-all", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Contains(t, got["run_errors"], "cell 0")
}

func TestServer_AddCellAndFocus(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/cells", map[string]string{
		"kind":   "markdown",
		"source": "# Title",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got["cells"].([]any), 2)

	rr = s.do(t, "POST", "/documents/"+id+"/focus", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	first := got["cells"].([]any)[0].(map[string]any)
	assert.Equal(t, true, first["focused"])
}

func TestServer_AddCellRejectsUnknownKind(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/cells", map[string]string{"kind": "raw"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_InvalidDocumentConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	rr := s.do(t, "POST", "/documents", map[string]string{"path": path})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "invalid"), rr.Body.String())
}

func TestServer_SaveAs(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)
	target := filepath.Join(t.TempDir(), "copy.ipynb")

	rr := s.do(t, "POST", "/documents/"+id+"/save", map[string]string{"path": target})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.FileExists(t, target)

	rr = s.do(t, "POST", "/documents/"+id+"/save", map[string]string{"path": "bad.txt"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestServer_CloseDocument(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "DELETE", "/documents/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, "GET", "/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, map[string]string{"1+1": "2"})
	view := s.openNotebook(t, writeNotebook(t, "a.ipynb", "1+1"))
	id := view["id"].(string)

	rr := s.do(t, "POST", "/documents/"+id+"/run", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "quire_executions_total")
}
