// Package mcp exposes the workspace as an MCP server, so agent hosts can
// open notebooks, run cells, and inspect results over the Model Context
// Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/document"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/workspace"
)

// CellView is one cell as reported to MCP clients.
type CellView struct {
	Index          int             `json:"index" jsonschema_description:"Position of the cell in the document"`
	Kind           string          `json:"kind" jsonschema_description:"Cell kind: code or markdown"`
	Source         string          `json:"source" jsonschema_description:"Cell source text"`
	ExecutionCount *int            `json:"execution_count" jsonschema_description:"Execution counter, null if never run"`
	Outputs        []domain.Output `json:"outputs,omitempty" jsonschema_description:"Execution outputs"`
	Focused        bool            `json:"focused" jsonschema_description:"Whether this cell holds the focus cursor"`
}

// DocumentView is the document state reported to MCP clients.
type DocumentView struct {
	ID          string     `json:"id" jsonschema_description:"Document identifier"`
	Path        string     `json:"path" jsonschema_description:"File path, empty for unsaved documents"`
	Valid       bool       `json:"valid" jsonschema_description:"Whether the document accepts mutations"`
	KernelState string     `json:"kernel_state" jsonschema_description:"Kernel session state"`
	Language    string     `json:"language" jsonschema_description:"Language reported by the kernel"`
	Cells       []CellView `json:"cells" jsonschema_description:"Ordered cells"`
}

// Server wraps the workspace and exposes it as an MCP server.
type Server struct {
	workspace *workspace.Workspace
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance around the workspace.
func NewServer(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		workspace: ws,
		mcpServer: server.NewMCPServer("quire-mcp", strings.TrimSpace(quire.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func viewOf(doc *document.Document) DocumentView {
	focus := doc.Focus()
	cells := doc.Cells()
	view := DocumentView{
		ID:          doc.ID(),
		Path:        doc.Path(),
		Valid:       doc.IsValid(),
		KernelState: string(doc.Session().State()),
		Language:    doc.Session().LanguageInfo().Name,
		Cells:       make([]CellView, 0, len(cells)),
	}
	for i, cell := range cells {
		view.Cells = append(view.Cells, CellView{
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

func (s *Server) findDocument(id string) (*document.Document, error) {
	for _, path := range s.workspace.List() {
		if doc, ok := s.workspace.Get(path); ok && doc.ID() == id {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("no open document with id %q: %w", id, domain.ErrDocumentNotFound)
}

func (s *Server) registerTools() {
	// TOOL: open_document
	openTool := mcp.NewTool("open_document",
		mcp.WithDescription("Open a notebook document and launch its kernel session. Returns the document state including its id."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .ipynb file")),
		mcp.WithString("kernel", mcp.Description("Kernel name from the registry (optional, defaults to the registry default)")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(openTool, mcp.NewStructuredToolHandler(s.handleOpen))

	// TOOL: list_documents
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents currently open in the workspace."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		views := make([]DocumentView, 0)
		for _, path := range s.workspace.List() {
			if doc, ok := s.workspace.Get(path); ok {
				views = append(views, viewOf(doc))
			}
		}
		jsonBytes, _ := json.Marshal(views)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: add_cell
	addTool := mcp.NewTool("add_cell",
		mcp.WithDescription("Insert a new cell adjacent to the focused cell. With no prior focus the cell is appended at the end and takes focus; otherwise focus stays where it was."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Cell kind: code or markdown")),
		mcp.WithString("position", mcp.Description("Insert position relative to the focus: before or after (default after)")),
		mcp.WithString("source", mcp.Description("Initial source text")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(addTool, mcp.NewStructuredToolHandler(s.handleAddCell))

	// TOOL: set_focus
	focusTool := mcp.NewTool("set_focus",
		mcp.WithDescription("Move the focus cursor to the cell at the given index. Focus anchors relative insertion and deletion."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Index of the cell to focus")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(focusTool, mcp.NewStructuredToolHandler(s.handleSetFocus))

	// TOOL: delete_focused_cell
	deleteTool := mcp.NewTool("delete_focused_cell",
		mcp.WithDescription("Delete the focused cell and clear focus. A no-op when no cell holds focus."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(deleteTool, mcp.NewStructuredToolHandler(s.handleDeleteFocusedCell))

	// TOOL: run_cell
	runTool := mcp.NewTool("run_cell",
		mcp.WithDescription("Run one code cell and wait for its outputs."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Index of the cell to run")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunCell))

	// TOOL: run_all
	runAllTool := mcp.NewTool("run_all",
		mcp.WithDescription("Run every code cell in order. Per-cell failures are reported in the result, later cells still run."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(runAllTool, mcp.NewStructuredToolHandler(s.handleRunAll))

	// TOOL: restart_kernel
	restartTool := mcp.NewTool("restart_kernel",
		mcp.WithDescription("Restart the document's kernel session, discarding interpreter state and resetting the execution counter."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(restartTool, mcp.NewStructuredToolHandler(s.handleRestart))

	// TOOL: save_document
	saveTool := mcp.NewTool("save_document",
		mcp.WithDescription("Save the document to its bound path, or to a new path when one is given."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("path", mcp.Description("Target path for save-as (optional)")),
		mcp.WithOutputSchema[DocumentView](),
	)
	s.mcpServer.AddTool(saveTool, mcp.NewStructuredToolHandler(s.handleSave))

	// TOOL: close_document
	s.mcpServer.AddTool(mcp.NewTool("close_document",
		mcp.WithDescription("Shut down the document's kernel and drop it from the workspace."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("document_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, err := s.findDocument(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.workspace.Close(ctx, doc.Path()); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
		}
		return mcp.NewToolResultText("closed"), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	path, _ := args["path"].(string)
	kernelName, _ := args["kernel"].(string)

	doc, err := s.workspace.Open(ctx, path, kernelName)
	if err != nil {
		return DocumentView{}, fmt.Errorf("open failed: %w", err)
	}
	return viewOf(doc), nil
}

func (s *Server) handleAddCell(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	kindStr, _ := args["kind"].(string)
	kind := domain.CellKind(kindStr)
	if !kind.Valid() {
		return DocumentView{}, fmt.Errorf("unknown cell kind %q", kindStr)
	}
	position := domain.InsertAfter
	if pos, _ := args["position"].(string); pos == "before" {
		position = domain.InsertBefore
	}

	cell, err := doc.AddCell(kind, position)
	if err != nil {
		return DocumentView{}, fmt.Errorf("add cell failed: %w", err)
	}
	if source, ok := args["source"].(string); ok {
		if err := doc.SetSource(cell, source); err != nil {
			return DocumentView{}, fmt.Errorf("set source failed: %w", err)
		}
	}
	return viewOf(doc), nil
}

func (s *Server) handleSetFocus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	index, ok := args["index"].(float64)
	if !ok {
		return DocumentView{}, fmt.Errorf("index is required")
	}
	cells := doc.Cells()
	i := int(index)
	if i < 0 || i >= len(cells) {
		return DocumentView{}, fmt.Errorf("cell index %d out of range", i)
	}

	doc.FocusCell(cells[i])
	return viewOf(doc), nil
}

func (s *Server) handleDeleteFocusedCell(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	if err := doc.DeleteFocusedCell(); err != nil {
		return DocumentView{}, fmt.Errorf("delete failed: %w", err)
	}
	return viewOf(doc), nil
}

func (s *Server) handleRunCell(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	index, ok := args["index"].(float64)
	if !ok {
		return DocumentView{}, fmt.Errorf("index is required")
	}
	cells := doc.Cells()
	i := int(index)
	if i < 0 || i >= len(cells) {
		return DocumentView{}, fmt.Errorf("cell index %d out of range", i)
	}

	if err := doc.RunCell(ctx, cells[i]); err != nil {
		return DocumentView{}, fmt.Errorf("run failed: %w", err)
	}
	return viewOf(doc), nil
}

func (s *Server) handleRunAll(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	if err := doc.RunAll(ctx); err != nil {
		// Per-cell failures still leave the document usable; report them
		// but return the updated view so the client sees partial results.
		s.logger.Warn("run_all reported failures", "document_id", id, "err", err)
	}
	return viewOf(doc), nil
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	if err := doc.RestartKernel(ctx); err != nil {
		return DocumentView{}, fmt.Errorf("restart failed: %w", err)
	}
	return viewOf(doc), nil
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DocumentView, error) {
	id, _ := args["document_id"].(string)
	doc, err := s.findDocument(id)
	if err != nil {
		return DocumentView{}, err
	}

	if path, ok := args["path"].(string); ok && path != "" {
		err = doc.SaveAs(path)
	} else {
		err = doc.Save(ctx)
	}
	if err != nil {
		return DocumentView{}, fmt.Errorf("save failed: %w", err)
	}
	return viewOf(doc), nil
}

func (s *Server) registerResources() {
	// EXPOSE: quire://documents
	s.mcpServer.AddResource(mcp.NewResource("quire://documents", "Open Documents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		views := make([]DocumentView, 0)
		for _, path := range s.workspace.List() {
			if doc, ok := s.workspace.Get(path); ok {
				views = append(views, viewOf(doc))
			}
		}
		jsonBytes, err := json.Marshal(views)
		if err != nil {
			return nil, fmt.Errorf("failed to encode documents: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "quire://documents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
