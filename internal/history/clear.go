package history

import (
	"context"

	"clipstash/internal/db"
)

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}

// Clear deletes every unpinned clip. Pinned clips are kept.
func (s *Store) Clear(_ context.Context) (*ClearOutput, error) {
	removed, err := db.ClearUnpinned(s.db)
	if err != nil {
		return nil, err
	}

	kept, err := db.Count(s.db)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("removed", removed).Int("kept", kept).Msg("history cleared")

	return &ClearOutput{Removed: removed, Kept: kept}, nil
}
