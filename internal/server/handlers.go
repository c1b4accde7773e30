package server

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/export"
	"github.com/ironsheep/scanstack/internal/imaging"
	"github.com/ironsheep/scanstack/internal/ingest"
	"github.com/ironsheep/scanstack/internal/ocr"
	"github.com/ironsheep/scanstack/internal/registry"
	"github.com/ironsheep/scanstack/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ocr_ingest", "ocr_reorder").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data is the error text, prefixed by its kind (e.g. "invalid_position").
// A panicking tool is reported the same way and the server keeps serving.
func (s *Server) handleToolsCall(req *MCPRequest) (resp *MCPResponse) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("tool panicked", "tool", params.Name, "panic", r, "stack", string(debug.Stack()))
			resp = s.errorResponse(req.ID, -32000, "Tool execution failed", fmt.Sprintf("internal error: %s panicked: %v", params.Name, r))
		}
	}()

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Infow("tool failed", "tool", params.Name, "kind", apperr.KindOf(err), "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Ingestion
	case "ocr_ingest":
		return s.handleIngest(args)
	case "ocr_list_items":
		return s.handleListItems(args)

	// Ordering
	case "ocr_reorder":
		return s.handleReorder(args)
	case "ocr_move_item":
		return s.handleMoveItem(args)

	// Previews
	case "ocr_set_preview_size":
		return s.handleSetPreviewSize(args)
	case "ocr_preview":
		return s.handlePreview(args)
	case "ocr_contact_sheet":
		return s.handleContactSheet(args)

	// Recognition
	case "ocr_run_batch":
		return s.handleRunBatch(args)
	case "ocr_batch_status":
		return s.handleBatchStatus(args)

	// Export
	case "ocr_export":
		return s.handleExport(args)

	// Diagnostics
	case "ocr_info":
		return s.handleInfo(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return apperr.Wrap(err, apperr.KindInvalidInput, "bad arguments")
	}
	return nil
}

// === Ingestion Handlers ===

type ingestArgs struct {
	Paths []string `json:"paths"`
}

type rejectionView struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type ingestResult struct {
	Accepted   []registry.Item `json:"accepted"`
	Rejected   []rejectionView `json:"rejected"`
	TotalItems int             `json:"total_items"`
}

func (s *Server) handleIngest(args json.RawMessage) (interface{}, error) {
	var a ingestArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "paths must not be empty")
	}

	res := ingestResult{Accepted: []registry.Item{}, Rejected: []rejectionView{}}

	paths, globErr := ingest.ExpandGlobs(a.Paths)
	if globErr != nil {
		res.Rejected = append(res.Rejected, rejectionView{Error: globErr.Error()})
	}

	report := s.sess.Ingest(context.Background(), paths...)
	res.Accepted = append(res.Accepted, report.Accepted...)
	for _, r := range report.Rejected {
		res.Rejected = append(res.Rejected, rejectionView{Path: r.Path, Error: r.Message()})
	}
	res.TotalItems = s.sess.Len()
	return res, nil
}

type listResult struct {
	Items       []registry.Item `json:"items"`
	Count       int             `json:"count"`
	PreviewSize int             `json:"preview_size"`
	BatchState  string          `json:"batch_state"`
}

func (s *Server) handleListItems(args json.RawMessage) (interface{}, error) {
	items := s.sess.Items()
	return listResult{
		Items:       items,
		Count:       len(items),
		PreviewSize: s.sess.PreviewSize(),
		BatchState:  s.sess.BatchStatus().State,
	}, nil
}

// === Ordering Handlers ===

type reorderArgs struct {
	PositionA int `json:"position_a"`
	PositionB int `json:"position_b"`
}

func (s *Server) handleReorder(args json.RawMessage) (interface{}, error) {
	var a reorderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.sess.Reorder(a.PositionA, a.PositionB); err != nil {
		return nil, err
	}
	return s.handleListItems(nil)
}

type moveItemArgs struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

func (s *Server) handleMoveItem(args json.RawMessage) (interface{}, error) {
	var a moveItemArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.sess.MoveItem(registry.ItemID(a.ID), a.Position); err != nil {
		return nil, err
	}
	return s.handleListItems(nil)
}

// === Preview Handlers ===

type previewSizeArgs struct {
	Size int `json:"size"`
}

type previewSizeResult struct {
	Size       int `json:"size"`
	MaxColumns int `json:"max_columns"`
}

func (s *Server) handleSetPreviewSize(args json.RawMessage) (interface{}, error) {
	var a previewSizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	size, err := s.sess.SetPreviewSize(a.Size)
	if err != nil {
		return nil, err
	}
	return previewSizeResult{
		Size:       size,
		MaxColumns: imaging.MaxColumns(session.DefaultSheetWidth, size),
	}, nil
}

type previewArgs struct {
	ID string `json:"id"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.sess.Preview(registry.ItemID(a.ID))
}

type contactSheetArgs struct {
	Columns     int `json:"columns"`
	CanvasWidth int `json:"canvas_width"`
}

func (s *Server) handleContactSheet(args json.RawMessage) (interface{}, error) {
	var a contactSheetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Columns < 1 && a.CanvasWidth > 0 {
		a.Columns = imaging.MaxColumns(a.CanvasWidth, s.sess.PreviewSize())
	}
	return s.sess.ContactSheet(a.Columns)
}

// === Recognition Handlers ===

type runBatchResult struct {
	State string `json:"state"`
	Total int    `json:"total"`
}

// handleRunBatch starts the batch and returns at once. The batch is never
// cancelled from here; it runs to the end of its snapshot.
func (s *Server) handleRunBatch(args json.RawMessage) (interface{}, error) {
	job, err := s.sess.StartBatch(context.Background())
	if err != nil {
		return nil, err
	}
	return runBatchResult{State: session.StateRunning, Total: job.Latest().Total}, nil
}

type batchStatusArgs struct {
	IncludeText bool `json:"include_text"`
}

type batchStatusResult struct {
	session.BatchStatus
	Text string `json:"text,omitempty"`
}

func (s *Server) handleBatchStatus(args json.RawMessage) (interface{}, error) {
	var a batchStatusArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res := batchStatusResult{BatchStatus: s.sess.BatchStatus()}
	if a.IncludeText && res.State == session.StateDone {
		if last, ok := s.sess.LastResult(); ok {
			res.Text = last.Text()
		}
	}
	return res, nil
}

// === Export Handlers ===

type exportArgs struct {
	Path string  `json:"path"`
	Text *string `json:"text"`
}

type exportResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleExport(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "path must not be empty")
	}

	var (
		err    error
		format export.Format
	)
	if a.Text != nil {
		format, err = s.sess.ExportText(*a.Text, a.Path)
	} else {
		format, err = s.sess.Export(a.Path)
	}
	if err != nil {
		return nil, err
	}
	return exportResult{Path: a.Path, Format: format.String()}, nil
}

// === Diagnostics Handlers ===

type infoResult struct {
	Version          string      `json:"version"`
	Engine           *ocr.Info   `json:"engine,omitempty"`
	InputExtensions  []string    `json:"input_extensions"`
	ExportExtensions []string    `json:"export_extensions"`
	Settings         interface{} `json:"settings"`
}

// infoProvider is implemented by recognizers that can describe themselves.
type infoProvider interface {
	Info() ocr.Info
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	res := infoResult{
		Version:          s.version,
		InputExtensions:  ingest.SupportedExtensions(),
		ExportExtensions: []string{".txt", ".pdf", ".docx"},
		Settings:         s.sess.Config(),
	}
	if p, ok := s.sess.Recognizer().(infoProvider); ok {
		info := p.Info()
		res.Engine = &info
	}
	return res, nil
}
