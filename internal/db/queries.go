package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"clipstash/internal/clip"
	"clipstash/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.ClipError{
	Code:    "UNIQUE_CONSTRAINT",
	Message: "unique constraint violation",
}

const clipColumns = "hash, content, created_at, pinned, metadata_json, processed_by_json"

// Insert stores a new clip in the database.
func Insert(db *sql.DB, rec *clip.Record) error {
	metadataJSON, processedByJSON, err := encodeSidecars(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO clips (hash, content, created_at, pinned, metadata_json, processed_by_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = db.Exec(query,
		rec.Hash, rec.Content, rec.Timestamp.UnixNano(), boolToInt(rec.Pinned),
		metadataJSON, processedByJSON,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// Update rewrites all mutable fields of an existing clip, keyed by hash.
func Update(db *sql.DB, rec *clip.Record) error {
	metadataJSON, processedByJSON, err := encodeSidecars(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE clips
		SET content = ?, created_at = ?, pinned = ?, metadata_json = ?, processed_by_json = ?
		WHERE hash = ?
	`

	result, err := db.Exec(query,
		rec.Content, rec.Timestamp.UnixNano(), boolToInt(rec.Pinned),
		metadataJSON, processedByJSON, rec.Hash,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(rec.Hash)
	}

	return nil
}

// GetByHash retrieves a clip by its content fingerprint.
func GetByHash(db *sql.DB, hash string) (*clip.Record, error) {
	query := "SELECT " + clipColumns + " FROM clips WHERE hash = ?"

	rec, err := scanClip(db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(hash)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return rec, nil
}

// Exists checks whether a clip with the given fingerprint is stored.
func Exists(db *sql.DB, hash string) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM clips WHERE hash = ? LIMIT 1", hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// List returns clips newest-first. A limit <= 0 means no limit.
func List(db *sql.DB, limit int) ([]*clip.Record, error) {
	query := "SELECT " + clipColumns + " FROM clips ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return queryClips(db, query, args...)
}

// ListPinned returns pinned clips newest-first.
func ListPinned(db *sql.DB) ([]*clip.Record, error) {
	query := "SELECT " + clipColumns + " FROM clips WHERE pinned = 1 ORDER BY created_at DESC"
	return queryClips(db, query)
}

// Search returns clips whose content contains the query as a
// case-insensitive substring, newest-first. A limit <= 0 means no limit.
func Search(db *sql.DB, q string, limit int) ([]*clip.Record, error) {
	query := "SELECT " + clipColumns + ` FROM clips
		WHERE instr(lower(content), lower(?)) > 0
		ORDER BY created_at DESC`
	args := []any{q}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return queryClips(db, query, args...)
}

// SetPinned updates the pinned flag of a clip.
func SetPinned(db *sql.DB, hash string, pinned bool) error {
	result, err := db.Exec("UPDATE clips SET pinned = ? WHERE hash = ?", boolToInt(pinned), hash)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(hash)
	}

	return nil
}

// Delete removes a clip by fingerprint.
func Delete(db *sql.DB, hash string) error {
	result, err := db.Exec("DELETE FROM clips WHERE hash = ?", hash)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(hash)
	}

	return nil
}

// TrimUnpinned deletes the oldest unpinned clips so at most keep remain.
// Pinned clips are never trimmed. Returns the number of clips removed.
func TrimUnpinned(db *sql.DB, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	query := `
		DELETE FROM clips
		WHERE pinned = 0 AND hash NOT IN (
			SELECT hash FROM clips WHERE pinned = 0
			ORDER BY created_at DESC LIMIT ?
		)
	`
	result, err := db.Exec(query, keep)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	return int(rowsAffected), nil
}

// ClearUnpinned deletes every unpinned clip. Returns the number removed.
func ClearUnpinned(db *sql.DB) (int, error) {
	result, err := db.Exec("DELETE FROM clips WHERE pinned = 0")
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	return int(rowsAffected), nil
}

// Count returns the total number of stored clips.
func Count(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM clips").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// CountPinned returns the number of pinned clips.
func CountPinned(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM clips WHERE pinned = 1").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// encodeSidecars serializes metadata and processed_by for storage.
// Empty values are stored as NULL so untouched rows stay minimal.
func encodeSidecars(rec *clip.Record) (sql.NullString, sql.NullString, error) {
	var metadataJSON, processedByJSON sql.NullString

	if !rec.Metadata.IsEmpty() {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return metadataJSON, processedByJSON, errors.NewInternal(err)
		}
		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	if len(rec.ProcessedBy) > 0 {
		data, err := json.Marshal(rec.ProcessedBy)
		if err != nil {
			return metadataJSON, processedByJSON, errors.NewInternal(err)
		}
		processedByJSON = sql.NullString{String: string(data), Valid: true}
	}

	return metadataJSON, processedByJSON, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanClip scans a single row into a Record.
func scanClip(row rowScanner) (*clip.Record, error) {
	var (
		rec             clip.Record
		createdAt       int64
		pinned          int
		metadataJSON    sql.NullString
		processedByJSON sql.NullString
	)

	err := row.Scan(&rec.Hash, &rec.Content, &createdAt, &pinned, &metadataJSON, &processedByJSON)
	if err != nil {
		return nil, err
	}

	rec.Timestamp = time.Unix(0, createdAt)
	rec.Pinned = pinned != 0

	rec.Metadata = clip.NewMetadata()
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return nil, err
		}
	}

	if processedByJSON.Valid && processedByJSON.String != "" {
		if err := json.Unmarshal([]byte(processedByJSON.String), &rec.ProcessedBy); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}

// queryClips runs a multi-row query and scans each row into a Record.
func queryClips(db *sql.DB, query string, args ...any) ([]*clip.Record, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var recs []*clip.Record
	for rows.Next() {
		rec, err := scanClip(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return recs, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
