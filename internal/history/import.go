package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"clipstash/internal/clip"
	"clipstash/internal/db"
	"clipstash/internal/errors"
)

// ImportMode controls collision behavior for clips already in the store.
type ImportMode string

const (
	ImportModeSkip    ImportMode = "skip"    // default: keep the stored clip
	ImportModeReplace ImportMode = "replace" // overwrite with the imported clip
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string
	Mode ImportMode
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int `json:"imported"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Import reads a JSON array of clip objects and merges it into the store.
// Clips whose fingerprint is already present are skipped or replaced per
// the mode. Imported clips do not re-run the ingest pipeline; whatever
// metadata the export carried is preserved as-is.
func (s *Store) Import(_ context.Context, input ImportInput) (*ImportOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = ImportModeSkip
	}
	if mode != ImportModeSkip && mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: skip, replace")
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot read import file: %v", err))
	}

	var clips []*clip.Record
	if err := json.Unmarshal(data, &clips); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("malformed import file: %v", err))
	}

	out := &ImportOutput{}
	for _, rec := range clips {
		if rec == nil || strings.TrimSpace(rec.Content) == "" {
			out.Invalid++
			continue
		}

		exists, err := db.Exists(s.db, rec.Hash)
		if err != nil {
			return nil, err
		}

		switch {
		case !exists:
			if err := db.Insert(s.db, rec); err != nil {
				return nil, err
			}
			out.Imported++
		case mode == ImportModeReplace:
			if err := db.Update(s.db, rec); err != nil {
				return nil, err
			}
			out.Replaced++
		default:
			out.Skipped++
		}
	}

	s.log.Info().
		Int("imported", out.Imported).
		Int("replaced", out.Replaced).
		Int("skipped", out.Skipped).
		Int("invalid", out.Invalid).
		Msg("history imported")

	return out, nil
}
