package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/db"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

// stubPlugin gives tests a controllable pipeline stage.
type stubPlugin struct {
	plugin.Base
	ingest   func(*clip.Record) (*clip.Record, error)
	prePaste func(*clip.Record) (*clip.Record, error)
}

func newStubPlugin(name string, priority plugin.Priority) *stubPlugin {
	return &stubPlugin{Base: plugin.NewBase(name, "0.0.1", priority)}
}

func (p *stubPlugin) Initialize(_ context.Context) error { return nil }

func (p *stubPlugin) ProcessIngest(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	if p.ingest != nil {
		return p.ingest(rec)
	}
	return rec, nil
}

func (p *stubPlugin) OnPrePaste(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	if p.prePaste != nil {
		return p.prePaste(rec)
	}
	return rec, nil
}

func newTestStore(t *testing.T, ps ...plugin.Plugin) (*Store, *sql.DB) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	mgr := plugin.NewManager(zerolog.Nop(), time.Second)
	for _, p := range ps {
		if !mgr.Load(context.Background(), p) {
			t.Fatalf("failed to load plugin %s", p.Name())
		}
	}

	return New(database, cfg, mgr, zerolog.Nop()), database
}

func mustAdd(t *testing.T, s *Store, content string) *AddOutput {
	t.Helper()
	out, err := s.Add(context.Background(), AddInput{Content: content})
	if err != nil {
		t.Fatalf("Add(%q) error = %v", content, err)
	}
	return out
}
