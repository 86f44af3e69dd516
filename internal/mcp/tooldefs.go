package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var addToolDef = mcp.NewTool("clip_add",
	mcp.WithDescription("Capture a clip into the history. Runs the ingest pipeline: security scan, enrichment, prediction. Duplicate content moves to the top."),
	mcp.WithString("content", mcp.Required(), mcp.Description("The clipboard content to capture")),
)

var listToolDef = mcp.NewTool("clip_list",
	mcp.WithDescription("List stored clips, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of clips to return (default 20, max 500)")),
	mcp.WithBoolean("pinned_only", mcp.Description("Return only pinned clips")),
)

var searchToolDef = mcp.NewTool("clip_search",
	mcp.WithDescription("Search clips by case-insensitive substring. Post-search pipeline stages may filter or re-rank the results."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Substring to search for")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20, max 500)")),
)

var pasteToolDef = mcp.NewTool("clip_paste",
	mcp.WithDescription("Run the pre-paste pipeline for a clip. Returns vetoed=true when a stage blocks the paste, e.g. sensitive content with blocking enabled."),
	mcp.WithString("hash", mcp.Required(), mcp.Description("Fingerprint of the clip to paste")),
)

var pinToolDef = mcp.NewTool("clip_pin",
	mcp.WithDescription("Toggle the pinned flag of a clip. Pinned clips survive trimming and clip_clear."),
	mcp.WithString("hash", mcp.Required(), mcp.Description("Fingerprint of the clip to toggle")),
)

var deleteToolDef = mcp.NewTool("clip_delete",
	mcp.WithDescription("Delete a single clip, pinned or not."),
	mcp.WithString("hash", mcp.Required(), mcp.Description("Fingerprint of the clip to delete")),
)

var clearToolDef = mcp.NewTool("clip_clear",
	mcp.WithDescription("Delete every unpinned clip."),
)

var statsToolDef = mcp.NewTool("clip_stats",
	mcp.WithDescription("Summarize the history: totals, tag frequencies, security-flagged clips and pipeline activity."),
)

var exportToolDef = mcp.NewTool("clip_export",
	mcp.WithDescription("Export the full history as a JSON array of clip objects."),
	mcp.WithString("path", mcp.Description("Destination file. Defaults to exports/clips-<id>.json under the data directory")),
)

var importToolDef = mcp.NewTool("clip_import",
	mcp.WithDescription("Import clips from a JSON export file. Existing fingerprints are skipped unless mode is replace."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Export file to read")),
	mcp.WithString("mode", mcp.Description("Collision behavior: skip (default) or replace"), mcp.Enum("skip", "replace")),
)

var pluginListToolDef = mcp.NewTool("plugin_list",
	mcp.WithDescription("List registered pipeline plugins with priority and enabled state, in dispatch order."),
)

var pluginEnableToolDef = mcp.NewTool("plugin_enable",
	mcp.WithDescription("Enable a registered plugin. It resumes receiving hook calls on the next dispatch."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Plugin name")),
)

var pluginDisableToolDef = mcp.NewTool("plugin_disable",
	mcp.WithDescription("Disable a registered plugin. It stays loaded but receives no hook calls."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Plugin name")),
)
