package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"ocr_ingest",
		"ocr_list_items",
		"ocr_reorder",
		"ocr_move_item",
		"ocr_set_preview_size",
		"ocr_preview",
		"ocr_contact_sheet",
		"ocr_run_batch",
		"ocr_batch_status",
		"ocr_export",
		"ocr_info",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_RequiredArguments(t *testing.T) {
	want := map[string][]string{
		"ocr_ingest":           {"paths"},
		"ocr_reorder":          {"position_a", "position_b"},
		"ocr_move_item":        {"id", "position"},
		"ocr_set_preview_size": {"size"},
		"ocr_preview":          {"id"},
		"ocr_export":           {"path"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for name, fields := range want {
		t.Run(name, func(t *testing.T) {
			tool, ok := toolMap[name]
			if !ok {
				t.Fatalf("tool %s not found", name)
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}

			have := make(map[string]bool)
			for _, r := range required {
				have[r] = true
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, f := range fields {
				if !have[f] {
					t.Errorf("%s should require %q", name, f)
				}
				if _, ok := props[f]; !ok {
					t.Errorf("%s requires %q but does not describe it", name, f)
				}
			}
		})
	}
}

func TestToolDefinitions_NoArgTools(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		switch tool.Name {
		case "ocr_list_items", "ocr_run_batch", "ocr_info":
			if _, ok := tool.InputSchema["required"]; ok {
				t.Errorf("%s should not require arguments", tool.Name)
			}
		}
	}
}
