package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"clipstash/internal/config"
	"clipstash/internal/db"
	"clipstash/internal/errors"
	"clipstash/internal/history"
	"clipstash/internal/plugin"
	"clipstash/internal/plugins"
)

// testSetup creates a temporary store with the builtin plugins loaded.
func testSetup(t *testing.T) (*history.Store, *config.Config, string) {
	t.Helper()

	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	mgr := plugin.NewManager(zerolog.Nop(), time.Second)

	builtins, err := plugins.Builtins(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build plugins: %v", err)
	}
	for _, p := range builtins {
		mgr.Load(context.Background(), p)
	}
	t.Cleanup(func() { mgr.ShutdownAll(context.Background()) })

	return history.New(database, cfg, mgr, zerolog.Nop()), cfg, baseDir
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleAdd(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "add valid content",
			args:      map[string]any{"content": "hello clipboard"},
			wantError: false,
		},
		{
			name:      "add blank content",
			args:      map[string]any{"content": "   "},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "add without content",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleAdd_RecordShape(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	result, err := h.HandleAdd(ctx, makeRequest(map[string]any{"content": "https://example.com/page"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	record, ok := output["record"].(map[string]any)
	if !ok {
		t.Fatalf("output missing record: %v", output)
	}
	hash, _ := record["hash"].(string)
	if len(hash) != 8 {
		t.Errorf("hash = %q, want 8 hex chars", hash)
	}
	if record["content"] != "https://example.com/page" {
		t.Errorf("content = %v", record["content"])
	}
	if output["deduplicated"] != false {
		t.Errorf("deduplicated = %v, want false", output["deduplicated"])
	}
}

func TestHandleList(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		mustAdd(t, h, content)
	}

	result, err := h.HandleList(ctx, makeRequest(map[string]any{"limit": float64(2)}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	clips, ok := output["clips"].([]any)
	if !ok {
		t.Fatalf("output missing clips: %v", output)
	}
	if len(clips) != 2 {
		t.Errorf("len(clips) = %d, want 2", len(clips))
	}
	if output["total"] != float64(3) {
		t.Errorf("total = %v, want 3", output["total"])
	}
}

func TestHandleSearch(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	mustAdd(t, h, "deploy notes for staging")
	mustAdd(t, h, "grocery list")

	result, err := h.HandleSearch(ctx, makeRequest(map[string]any{"query": "staging"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	clips := output["clips"].([]any)
	if len(clips) != 1 {
		t.Fatalf("len(clips) = %d, want 1", len(clips))
	}

	// Blank query is rejected.
	result, err = h.HandleSearch(ctx, makeRequest(map[string]any{"query": "  "}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for blank query")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandlePaste(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	hash := mustAdd(t, h, "paste me")

	result, err := h.HandlePaste(ctx, makeRequest(map[string]any{"hash": hash}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["vetoed"] != false {
		t.Errorf("vetoed = %v, want false", output["vetoed"])
	}

	result, err = h.HandlePaste(ctx, makeRequest(map[string]any{"hash": "deadbeef"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for unknown hash")
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandlePinDelete(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	hash := mustAdd(t, h, "pin me")

	result, err := h.HandlePin(ctx, makeRequest(map[string]any{"hash": hash}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["pinned"] != true {
		t.Errorf("pinned = %v, want true", output["pinned"])
	}

	result, err = h.HandleDelete(ctx, makeRequest(map[string]any{"hash": hash}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	if output["deleted"] != true {
		t.Errorf("deleted = %v, want true", output["deleted"])
	}

	result, err = h.HandleDelete(ctx, makeRequest(map[string]any{"hash": hash}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error deleting twice")
	}
}

func TestHandleClearStats(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	pinnedHash := mustAdd(t, h, "keep this one")
	mustAdd(t, h, "throwaway")

	if _, err := h.HandlePin(ctx, makeRequest(map[string]any{"hash": pinnedHash})); err != nil {
		t.Fatalf("pin failed: %v", err)
	}

	result, err := h.HandleClear(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["removed"] != float64(1) || output["kept"] != float64(1) {
		t.Errorf("removed = %v, kept = %v, want 1, 1", output["removed"], output["kept"])
	}

	result, err = h.HandleStats(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	if output["total_clips"] != float64(1) {
		t.Errorf("total_clips = %v, want 1", output["total_clips"])
	}
	if output["pinned_clips"] != float64(1) {
		t.Errorf("pinned_clips = %v, want 1", output["pinned_clips"])
	}
}

func TestHandleExportImport(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	mustAdd(t, h, "exported clip one")
	mustAdd(t, h, "exported clip two")

	result, err := h.HandleExport(ctx, makeRequest(map[string]any{"path": "backup.json"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["count"] != float64(2) {
		t.Errorf("count = %v, want 2", output["count"])
	}
	exportPath := output["path"].(string)
	if filepath.Dir(exportPath) != baseDir {
		t.Errorf("relative path not anchored to base dir: %s", exportPath)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Import into a fresh store.
	store2, _, baseDir2 := testSetup(t)
	h2 := NewHandlers(store2, baseDir2)

	result, err = h2.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	if output["imported"] != float64(2) {
		t.Errorf("imported = %v, want 2", output["imported"])
	}

	// Unknown mode is rejected.
	result, err = h2.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath, "mode": "merge"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for unknown import mode")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandlePluginControl(t *testing.T) {
	store, _, baseDir := testSetup(t)
	h := NewHandlers(store, baseDir)
	ctx := context.Background()

	result, err := h.HandlePluginList(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	pluginList := output["plugins"].([]any)
	if len(pluginList) != 5 {
		t.Fatalf("len(plugins) = %d, want 5", len(pluginList))
	}

	result, err = h.HandlePluginDisable(ctx, makeRequest(map[string]any{"name": "SmartTemplates"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	if output["enabled"] != false {
		t.Errorf("enabled = %v, want false", output["enabled"])
	}

	result, err = h.HandlePluginEnable(ctx, makeRequest(map[string]any{"name": "SmartTemplates"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	if output["enabled"] != true {
		t.Errorf("enabled = %v, want true", output["enabled"])
	}

	result, err = h.HandlePluginEnable(ctx, makeRequest(map[string]any{"name": "NoSuchPlugin"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for unknown plugin")
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestServerRegistration(t *testing.T) {
	store, cfg, baseDir := testSetup(t)

	s := NewServer(store, cfg, baseDir, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"clip_add",
		"clip_list",
		"clip_search",
		"clip_paste",
		"clip_pin",
		"clip_delete",
		"clip_clear",
		"clip_stats",
		"clip_export",
		"clip_import",
		"plugin_list",
		"plugin_enable",
		"plugin_disable",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	store, cfg, baseDir := testSetup(t)

	cfg.DisabledTools = []string{"clip_clear", "clip_import"}
	s := NewServer(store, cfg, baseDir, "test")
	tools := s.ListTools()

	if len(tools) != 11 {
		t.Errorf("registered tool count = %d, want 11", len(tools))
	}

	for _, name := range []string{"clip_clear", "clip_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	for _, name := range []string{"clip_add", "clip_list", "clip_search"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	store, cfg, baseDir := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(store, cfg, baseDir, "test")
	tools := s.ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"clip_add", "clip_clear"}, 0},
		{"one unknown", []string{"clip_add", "clip_nuke"}, 1},
		{"all unknown", []string{"foo", "bar"}, 2},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 13 {
		t.Errorf("AllToolNames() returned %d names, want 13", len(names))
	}

	unknown := ValidateDisabledTools(names)
	if len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := decodeErrorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("abc12345"))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := decodeErrorObject(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_UnknownErrorIsInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("plain error"))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := decodeErrorObject(t, r)
	if errObj["code"] != "INTERNAL" {
		t.Fatalf("code=%v, want INTERNAL", errObj["code"])
	}
	if errObj["message"] == "plain error" {
		t.Error("raw error message should not leak through")
	}
}

// Helper functions

// mustAdd stores a clip through the add handler and returns its hash.
func mustAdd(t *testing.T, h *Handlers, content string) string {
	t.Helper()
	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{"content": content}))
	if err != nil {
		t.Fatalf("HandleAdd returned error: %v", err)
	}
	output := parseOutput(t, result)
	record := output["record"].(map[string]any)
	return record["hash"].(string)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func decodeErrorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("payload missing error object: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	errObj := decodeErrorObject(t, result)
	if errObj["code"] != expectedCode {
		t.Errorf("error code = %v, want %v", errObj["code"], expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return text.Text
}
