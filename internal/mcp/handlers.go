package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"clipstash/internal/errors"
	"clipstash/internal/history"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store   *history.Store
	baseDir string
}

// NewHandlers creates a new Handlers instance. baseDir anchors default
// export paths.
func NewHandlers(store *history.Store, baseDir string) *Handlers {
	return &Handlers{store: store, baseDir: baseDir}
}

// Request types for each tool

// AddRequest represents the arguments for clip_add.
type AddRequest struct {
	Content string `json:"content"`
}

// ListRequest represents the arguments for clip_list.
type ListRequest struct {
	Limit      int  `json:"limit,omitempty"`
	PinnedOnly bool `json:"pinned_only,omitempty"`
}

// SearchRequest represents the arguments for clip_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// HashRequest addresses a single clip by fingerprint. Shared by paste,
// pin and delete.
type HashRequest struct {
	Hash string `json:"hash"`
}

// ExportRequest represents the arguments for clip_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for clip_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PluginRequest addresses a plugin by name.
type PluginRequest struct {
	Name string `json:"name"`
}

// HandleAdd implements clip_add.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Add(ctx, history.AddInput{Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList implements clip_list.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.List(ctx, history.ListInput{
		Limit:      input.Limit,
		PinnedOnly: input.PinnedOnly,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch implements clip_search.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Search(ctx, history.SearchInput{
		Query: input.Query,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePaste implements clip_paste.
func (h *Handlers) HandlePaste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HashRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Paste(ctx, history.PasteInput{Hash: input.Hash})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePin implements clip_pin.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HashRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.TogglePin(ctx, history.PinInput{Hash: input.Hash})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete implements clip_delete.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HashRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Delete(ctx, history.DeleteInput{Hash: input.Hash})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClear implements clip_clear.
func (h *Handlers) HandleClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.store.Clear(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats implements clip_stats.
func (h *Handlers) HandleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.store.Stats(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport implements clip_export.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	path := input.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(h.baseDir, path)
	}

	result, err := h.store.Export(ctx, history.ExportInput{Path: path, Dir: h.baseDir})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport implements clip_import.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Import(ctx, history.ImportInput{
		Path: input.Path,
		Mode: history.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePluginList implements plugin_list.
func (h *Handlers) HandlePluginList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{
		"plugins": h.store.Plugins().ListActive(),
	})
}

// HandlePluginEnable implements plugin_enable.
func (h *Handlers) HandlePluginEnable(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setPluginEnabled(req, true)
}

// HandlePluginDisable implements plugin_disable.
func (h *Handlers) HandlePluginDisable(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setPluginEnabled(req, false)
}

func (h *Handlers) setPluginEnabled(req mcp.CallToolRequest, enabled bool) (*mcp.CallToolResult, error) {
	input, err := decode[PluginRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p, ok := h.store.Plugins().Get(input.Name)
	if !ok {
		return errorResult(errors.NewNotFound(input.Name)), nil
	}
	if enabled {
		p.Enable()
	} else {
		p.Disable()
	}

	return successResult(map[string]any{
		"name":    p.Name(),
		"enabled": p.Enabled(),
	})
}

// errorResult creates an MCP error result with a structured payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if clipErr, ok := err.(*errors.ClipError); ok {
		errorObj := map[string]any{
			"code":    clipErr.Code,
			"message": clipErr.Message,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if clipErr.Code != errors.ErrInternal && clipErr.Details != nil {
			errorObj["details"] = clipErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
