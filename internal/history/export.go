package history

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"clipstash/internal/db"
	"clipstash/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: <baseDir>/exports/clips-<ulid>.json
	Dir  string // directory for the default path
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the full history as a JSON array of clip objects, newest
// first. The file is written via a temp file and renamed so a failed export
// never clobbers an existing one.
func (s *Store) Export(_ context.Context, input ExportInput) (*ExportOutput, error) {
	clips, err := db.List(s.db, 0)
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		id, err := newExportID()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(input.Dir, "exports", fmt.Sprintf("clips-%s.json", id))
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	data, err := json.MarshalIndent(clips, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	tempPath := exportPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		os.Remove(tempPath)
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export file: %w", err))
	}

	s.log.Info().Str("path", exportPath).Int("count", len(clips)).Msg("history exported")

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(clips),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// newExportID generates a ULID so export files sort by creation time.
func newExportID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id.String(), nil
}
