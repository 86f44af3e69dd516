package history

import (
	"context"

	"clipstash/internal/db"
)

// PinInput contains parameters for the TogglePin operation.
type PinInput struct {
	Hash string
}

// PinOutput contains the result of the TogglePin operation.
type PinOutput struct {
	Hash   string `json:"hash"`
	Pinned bool   `json:"pinned"`
}

// TogglePin flips the pinned flag of a clip. Pinned clips survive trimming
// and Clear.
func (s *Store) TogglePin(_ context.Context, input PinInput) (*PinOutput, error) {
	rec, err := db.GetByHash(s.db, input.Hash)
	if err != nil {
		return nil, err
	}

	pinned := !rec.Pinned
	if err := db.SetPinned(s.db, input.Hash, pinned); err != nil {
		return nil, err
	}

	return &PinOutput{Hash: input.Hash, Pinned: pinned}, nil
}
