package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/errors"
	"clipstash/internal/history"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *history.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "clipstash",
		Usage:   "Clipboard history with a plugin pipeline",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(store),
			listCmd(store),
			searchCmd(store),
			pasteCmd(store),
			pinCmd(store),
			deleteCmd(store),
			clearCmd(store),
			statsCmd(store),
			pluginsCmd(store),
			exportCmd(store, cfg),
			importCmd(store),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Capture a clip (reads content from stdin or arguments)",
		ArgsUsage: "[content]",
		Action: func(c *cli.Context) error {
			var content string
			if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = text
			}
			if content == "" && c.NArg() > 0 {
				content = strings.Join(c.Args().Slice(), " ")
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin or passed as an argument"))
			}

			output, err := store.Add(c.Context, history.AddInput{Content: content})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List clips, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: history.DefaultListLimit, Usage: "Maximum clips to return"},
			&cli.BoolFlag{Name: "pinned", Aliases: []string{"p"}, Usage: "Show pinned clips only"},
		},
		Action: func(c *cli.Context) error {
			output, err := store.List(c.Context, history.ListInput{
				Limit:      c.Int("limit"),
				PinnedOnly: c.Bool("pinned"),
			})
			if err != nil {
				return outputError(err)
			}

			if stdoutIsTerminal() {
				renderClipTable(output.Clips)
				fmt.Printf("%d of %d clips\n", len(output.Clips), output.Total)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search clip contents",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: history.DefaultListLimit, Usage: "Maximum clips to return"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("query is required"))
			}

			output, err := store.Search(c.Context, history.SearchInput{
				Query: strings.Join(c.Args().Slice(), " "),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}

			if stdoutIsTerminal() {
				renderClipTable(output.Clips)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// pasteCmd creates the paste command. Content is printed raw so the output
// can be piped straight into another program.
func pasteCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:      "paste",
		Usage:     "Run the paste pipeline for a clip and print its content",
		ArgsUsage: "<hash>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("hash is required"))
			}

			output, err := store.Paste(c.Context, history.PasteInput{Hash: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			if output.Vetoed {
				return cli.Exit("paste vetoed by the plugin pipeline", 1)
			}

			fmt.Print(output.Record.Content)
			if stdoutIsTerminal() && !strings.HasSuffix(output.Record.Content, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
}

// pinCmd creates the pin command.
func pinCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Toggle the pinned flag on a clip",
		ArgsUsage: "<hash>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("hash is required"))
			}

			output, err := store.TogglePin(c.Context, history.PinInput{Hash: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a clip",
		ArgsUsage: "<hash>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("hash is required"))
			}

			output, err := store.Delete(c.Context, history.DeleteInput{Hash: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove all unpinned clips",
		Action: func(c *cli.Context) error {
			output, err := store.Clear(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show history and plugin statistics",
		Action: func(c *cli.Context) error {
			output, err := store.Stats(c.Context)
			if err != nil {
				return outputError(err)
			}

			if stdoutIsTerminal() {
				renderStatsTable(output)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// pluginsCmd creates the plugins command.
func pluginsCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:  "plugins",
		Usage: "List loaded plugins, or enable/disable one",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "enable", Usage: "Enable the named plugin"},
			&cli.StringFlag{Name: "disable", Usage: "Disable the named plugin"},
		},
		Action: func(c *cli.Context) error {
			mgr := store.Plugins()

			setEnabled := func(name string, enabled bool) error {
				p, ok := mgr.Get(name)
				if !ok {
					return outputError(errors.NewNotFound(name))
				}
				if enabled {
					p.Enable()
				} else {
					p.Disable()
				}
				return outputJSON(map[string]any{"name": p.Name(), "enabled": enabled})
			}

			if name := c.String("enable"); name != "" {
				return setEnabled(name, true)
			}
			if name := c.String("disable"); name != "" {
				return setEnabled(name, false)
			}

			plugins := mgr.ListActive()
			if stdoutIsTerminal() {
				t := newTable()
				t.AppendHeader(table.Row{"NAME", "VERSION", "PRIORITY", "ENABLED"})
				for _, d := range plugins {
					t.AppendRow(table.Row{d.Name, d.Version, d.Priority, d.Enabled})
				}
				t.Render()
				return nil
			}
			return outputJSON(map[string]any{"plugins": plugins})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(store *history.Store, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all clips to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.clipstash/exports/clips-<id>.json)"},
		},
		Action: func(c *cli.Context) error {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := store.Export(c.Context, history.ExportInput{
				Path: c.String("path"),
				Dir:  filepath.Join(homeDir, ".clipstash"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(store *history.Store) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import clips from a JSON export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "skip", Usage: "Collision mode: skip|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := store.Import(c.Context, history.ImportInput{
				Path: c.String("path"),
				Mode: history.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// Helper functions

// newTable builds a table writer with the house style.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

// renderClipTable prints clips as a table for interactive use.
func renderClipTable(clips []*clip.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"HASH", "AGE", "PIN", "TAGS", "CONTENT"})
	for _, rec := range clips {
		pin := ""
		if rec.Pinned {
			pin = "*"
		}
		t.AppendRow(table.Row{
			rec.Hash,
			age(rec.Timestamp),
			pin,
			strings.Join(rec.Metadata.Tags, ","),
			snippet(rec.Content, 48),
		})
	}
	t.Render()
}

// renderStatsTable prints history statistics as a table.
func renderStatsTable(stats *history.StatsOutput) {
	t := newTable()
	t.AppendRow(table.Row{"Total clips", stats.TotalClips})
	t.AppendRow(table.Row{"Pinned clips", stats.PinnedClips})
	t.AppendRow(table.Row{"Enriched clips", stats.EnrichedClips})
	t.AppendRow(table.Row{"Flagged clips", stats.FlaggedClips})
	t.AppendRow(table.Row{"Active plugins", len(stats.ActivePlugins)})
	if len(stats.PluginsSeen) > 0 {
		t.AppendRow(table.Row{"Plugins seen", strings.Join(stats.PluginsSeen, ", ")})
	}
	t.Render()
}

// age formats the time since ts in a compact unit.
func age(ts time.Time) string {
	d := time.Since(ts)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// snippet collapses whitespace and truncates content for table cells.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if clipErr, ok := err.(*errors.ClipError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", clipErr.Code, clipErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
