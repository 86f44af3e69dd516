package history

import (
	"context"
	"strings"

	"clipstash/internal/clip"
	"clipstash/internal/db"
	"clipstash/internal/errors"
	"clipstash/internal/sysctx"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Content string
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	Record       *clip.Record `json:"record"`
	Deduplicated bool         `json:"deduplicated"`
	Trimmed      int          `json:"trimmed"`
}

// Add captures a new clip: it deduplicates by content fingerprint, runs the
// ingest pipeline, persists the result and trims unpinned history beyond the
// configured cap. A re-captured clip moves to the top and keeps its pinned
// flag; its metadata is rebuilt by the pipeline.
func (s *Store) Add(ctx context.Context, input AddInput) (*AddOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content must not be blank")
	}

	rec := clip.NewRecord(input.Content)

	deduplicated := false
	if existing, err := db.GetByHash(s.db, rec.Hash); err == nil {
		deduplicated = true
		rec.Pinned = existing.Pinned
		if err := db.Delete(s.db, existing.Hash); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	snap := sysctx.Capture()
	rec = s.plugins.DispatchIngest(ctx, rec, snap)

	if err := db.Insert(s.db, rec); err != nil {
		return nil, err
	}

	trimmed, err := db.TrimUnpinned(s.db, s.cfg.MaxHistory)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("hash", rec.Hash).
		Bool("deduplicated", deduplicated).
		Int("trimmed", trimmed).
		Int("processed_by", len(rec.ProcessedBy)).
		Msg("clip added")

	return &AddOutput{
		Record:       rec,
		Deduplicated: deduplicated,
		Trimmed:      trimmed,
	}, nil
}
