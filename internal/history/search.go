package history

import (
	"context"
	"strings"

	"clipstash/internal/clip"
	"clipstash/internal/db"
	"clipstash/internal/errors"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query string
	Limit int
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Query string         `json:"query"`
	Clips []*clip.Record `json:"clips"`
}

// Search finds clips by case-insensitive substring match, then lets the
// pipeline's post-search stages filter or re-rank the results.
func (s *Store) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query must not be blank")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	clips, err := db.Search(s.db, query, limit)
	if err != nil {
		return nil, err
	}

	clips = s.plugins.DispatchPostSearch(ctx, query, clips)

	return &SearchOutput{Query: query, Clips: clips}, nil
}
