package history

import (
	"context"

	"clipstash/internal/db"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	Hash string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	Hash    string `json:"hash"`
}

// Delete removes a single clip, pinned or not.
func (s *Store) Delete(_ context.Context, input DeleteInput) (*DeleteOutput, error) {
	if err := db.Delete(s.db, input.Hash); err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: true, Hash: input.Hash}, nil
}
