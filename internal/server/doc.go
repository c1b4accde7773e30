// Package server exposes a scanstack session as MCP (Model Context Protocol)
// tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Ingestion:
//   - ocr_ingest: Append images and PDF pages, expanding globs
//   - ocr_list_items: Current order with positions and ids
//
// Ordering:
//   - ocr_reorder: Swap two positions
//   - ocr_move_item: Move an item by id
//
// Previews:
//   - ocr_set_preview_size: Change the zoom and regenerate thumbnails
//   - ocr_preview: One thumbnail as base64 PNG
//   - ocr_contact_sheet: All thumbnails in a labelled grid
//
// Recognition:
//   - ocr_run_batch: Start a background batch over the current order
//   - ocr_batch_status: Progress, failures and the recognized text
//
// Export and diagnostics:
//   - ocr_export: Write text as .txt, .pdf or .docx
//   - ocr_info: Engine, formats and settings
//
// # Error Handling
//
// Tool failures are JSON-RPC errors with code -32000. The data field holds
// the error text, which starts with its kind (invalid_position,
// batch_in_flight, unsupported_format, ...).
//
// # Usage
//
//	sess, _ := session.New(session.Options{Config: cfg, Log: log})
//	defer sess.Close()
//	if err := server.New(sess, version, log).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
