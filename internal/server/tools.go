package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Ingestion
		{
			Name:        "ocr_ingest",
			Description: "Add images (.png, .jpg, .jpeg) or PDF documents to the end of the list. Each PDF page becomes its own item. Glob patterns such as scans/**/*.png are expanded. Bad files are reported individually and never stop the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths or glob patterns, in the order they should be appended",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "ocr_list_items",
			Description: "List the items in their current order with positions 1..N and stable ids.",
			InputSchema: noArgs(),
		},

		// Ordering
		{
			Name:        "ocr_reorder",
			Description: "Swap the items at two positions. Fails if either position is outside 1..N, if both are the same, or while a batch is running.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"position_a": map[string]interface{}{"type": "integer", "description": "First 1-based position"},
					"position_b": map[string]interface{}{"type": "integer", "description": "Second 1-based position"},
				},
				"required": []string{"position_a", "position_b"},
			},
		},
		{
			Name:        "ocr_move_item",
			Description: "Give an item a new position. The item currently holding that position takes the moved item's old slot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":       map[string]interface{}{"type": "string", "description": "Item id from ocr_list_items"},
					"position": map[string]interface{}{"type": "integer", "description": "New 1-based position"},
				},
				"required": []string{"id", "position"},
			},
		},

		// Previews
		{
			Name:        "ocr_set_preview_size",
			Description: "Set the thumbnail size (zoom) in pixels, clamped to 100..300. Changing it regenerates every thumbnail.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"size": map[string]interface{}{"type": "integer", "description": "Thumbnail bounding box in pixels (default 200)"},
				},
				"required": []string{"size"},
			},
		},
		{
			Name:        "ocr_preview",
			Description: "Return the thumbnail of one item as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{"type": "string", "description": "Item id from ocr_list_items"},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "ocr_contact_sheet",
			Description: "Render all thumbnails into one grid image labelled with their positions, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"columns": map[string]interface{}{
						"type":        "integer",
						"description": "Number of columns. Omit to fit as many as a 1000px wide canvas allows.",
					},
					"canvas_width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels used to pick the column count when columns is omitted.",
					},
				},
			},
		},

		// Recognition
		{
			Name:        "ocr_run_batch",
			Description: "Start recognizing every item in its current order in the background. Reordering is blocked until the batch finishes. Poll ocr_batch_status for progress.",
			InputSchema: noArgs(),
		},
		{
			Name:        "ocr_batch_status",
			Description: "Report the running or last batch: state, progress percentage, failures and optionally the recognized text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the concatenated text once the batch is done. Default false.",
						"default":     false,
					},
				},
			},
		},

		// Export
		{
			Name:        "ocr_export",
			Description: "Write the last batch's text, or the given text, to a .txt, .pdf or .docx file chosen by the path's extension.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{"type": "string", "description": "Absolute destination path ending in .txt, .pdf or .docx"},
					"text": map[string]interface{}{"type": "string", "description": "Optional text to export instead of the last batch result"},
				},
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "ocr_info",
			Description: "Report the OCR engine, supported input and export formats, and the active settings.",
			InputSchema: noArgs(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
