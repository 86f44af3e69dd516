package history

import (
	"context"

	"clipstash/internal/clip"
	"clipstash/internal/db"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit      int
	PinnedOnly bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Clips []*clip.Record `json:"clips"`
	Total int            `json:"total"`
}

// List returns stored clips newest-first.
func (s *Store) List(_ context.Context, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var (
		clips []*clip.Record
		err   error
	)
	if input.PinnedOnly {
		clips, err = db.ListPinned(s.db)
		if len(clips) > limit {
			clips = clips[:limit]
		}
	} else {
		clips, err = db.List(s.db, limit)
	}
	if err != nil {
		return nil, err
	}

	total, err := db.Count(s.db)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Clips: clips, Total: total}, nil
}
