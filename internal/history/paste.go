package history

import (
	"context"
	stderrors "errors"

	"clipstash/internal/clip"
	"clipstash/internal/db"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

// PasteInput contains parameters for the Paste operation.
type PasteInput struct {
	Hash string
}

// PasteOutput contains the result of the Paste operation. When Vetoed is
// true the paste must not happen and Record is nil.
type PasteOutput struct {
	Record *clip.Record `json:"record,omitempty"`
	Vetoed bool         `json:"vetoed"`
}

// Paste runs the pre-paste pipeline for a stored clip. A veto from any
// stage is an outcome, not an error: the caller gets Vetoed=true.
func (s *Store) Paste(ctx context.Context, input PasteInput) (*PasteOutput, error) {
	rec, err := db.GetByHash(s.db, input.Hash)
	if err != nil {
		return nil, err
	}

	snap := sysctx.Capture()
	out, err := s.plugins.DispatchPrePaste(ctx, rec, snap)
	if err != nil {
		if stderrors.Is(err, plugin.ErrVeto) {
			s.log.Info().Str("hash", input.Hash).Msg("paste vetoed")
			return &PasteOutput{Vetoed: true}, nil
		}
		return nil, err
	}

	return &PasteOutput{Record: out}, nil
}
