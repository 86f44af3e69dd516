package db

import (
	"database/sql"
	"testing"
	"time"

	"clipstash/internal/clip"
	"clipstash/internal/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertClip(t *testing.T, db *sql.DB, content string, ts time.Time) *clip.Record {
	t.Helper()
	rec := clip.NewRecord(content)
	rec.Timestamp = ts
	if err := Insert(db, rec); err != nil {
		t.Fatalf("Insert(%q) error = %v", content, err)
	}
	return rec
}

func TestInsertAndGetByHash(t *testing.T) {
	db := setupTestDB(t)

	rec := clip.NewRecord("hello world")
	rec.Metadata.Tags = []string{"greeting"}
	rec.Metadata.Enrichments["content_type"] = clip.String("text")
	rec.ProcessedBy = []string{"Enricher"}

	if err := Insert(db, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := GetByHash(db, rec.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if got.Content != "hello world" {
		t.Errorf("Content = %q, want %q", got.Content, "hello world")
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
	if len(got.Metadata.Tags) != 1 || got.Metadata.Tags[0] != "greeting" {
		t.Errorf("Tags = %v, want [greeting]", got.Metadata.Tags)
	}
	if s, _ := got.Metadata.Enrichments["content_type"].AsString(); s != "text" {
		t.Errorf("Enrichments[content_type] = %q, want text", s)
	}
	if len(got.ProcessedBy) != 1 || got.ProcessedBy[0] != "Enricher" {
		t.Errorf("ProcessedBy = %v, want [Enricher]", got.ProcessedBy)
	}
}

func TestInsert_BareRecordRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	rec := insertClip(t, db, "plain", time.Now())

	got, err := GetByHash(db, rec.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if !got.Metadata.IsEmpty() {
		t.Errorf("Metadata not empty: %+v", got.Metadata)
	}
	if got.Metadata.Enrichments == nil {
		t.Error("Enrichments map not initialized after scan")
	}
	if got.ProcessedBy != nil {
		t.Errorf("ProcessedBy = %v, want nil", got.ProcessedBy)
	}
}

func TestInsert_UniqueConstraint(t *testing.T) {
	db := setupTestDB(t)

	insertClip(t, db, "dup", time.Now())
	err := Insert(db, clip.NewRecord("dup"))
	if err != ErrUniqueConstraint {
		t.Errorf("Insert() error = %v, want ErrUniqueConstraint", err)
	}
}

func TestGetByHash_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetByHash(db, "deadbeef")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByHash() error = %v, want NOT_FOUND", err)
	}
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)

	rec := insertClip(t, db, "original", time.Now())
	rec.Pinned = true
	rec.Metadata.AddTag("kept")
	rec.ProcessedBy = append(rec.ProcessedBy, "SecurityTag")

	if err := Update(db, rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := GetByHash(db, rec.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if !got.Pinned {
		t.Error("Pinned not persisted")
	}
	if !got.Metadata.HasTag("kept") {
		t.Errorf("Tags = %v, want to contain kept", got.Metadata.Tags)
	}
	if len(got.ProcessedBy) != 1 || got.ProcessedBy[0] != "SecurityTag" {
		t.Errorf("ProcessedBy = %v, want [SecurityTag]", got.ProcessedBy)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db := setupTestDB(t)

	err := Update(db, clip.NewRecord("ghost"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Update() error = %v, want NOT_FOUND", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	insertClip(t, db, "oldest", base.Add(-2*time.Minute))
	insertClip(t, db, "middle", base.Add(-time.Minute))
	insertClip(t, db, "newest", base)

	recs, err := List(db, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("List() returned %d clips, want 3", len(recs))
	}
	want := []string{"newest", "middle", "oldest"}
	for i, w := range want {
		if recs[i].Content != w {
			t.Errorf("List()[%d] = %q, want %q", i, recs[i].Content, w)
		}
	}
}

func TestList_Limit(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	for i, content := range []string{"a", "b", "c"} {
		insertClip(t, db, content, base.Add(time.Duration(i)*time.Second))
	}

	recs, err := List(db, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("List(2) returned %d clips, want 2", len(recs))
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	insertClip(t, db, "Hello World", base.Add(-time.Second))
	insertClip(t, db, "goodbye world", base)
	insertClip(t, db, "unrelated", base.Add(time.Second))

	recs, err := Search(db, "WORLD", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Search() returned %d clips, want 2", len(recs))
	}
	if recs[0].Content != "goodbye world" || recs[1].Content != "Hello World" {
		t.Errorf("Search() order = [%q, %q]", recs[0].Content, recs[1].Content)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	db := setupTestDB(t)

	insertClip(t, db, "something", time.Now())

	recs, err := Search(db, "absent", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Search() returned %d clips, want 0", len(recs))
	}
}

func TestSetPinned(t *testing.T) {
	db := setupTestDB(t)

	rec := insertClip(t, db, "pin me", time.Now())

	if err := SetPinned(db, rec.Hash, true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}
	got, err := GetByHash(db, rec.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if !got.Pinned {
		t.Error("clip not pinned")
	}

	if err := SetPinned(db, "deadbeef", true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("SetPinned(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	rec := insertClip(t, db, "delete me", time.Now())

	if err := Delete(db, rec.Hash); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := GetByHash(db, rec.Hash); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByHash() after delete error = %v, want NOT_FOUND", err)
	}
	if err := Delete(db, rec.Hash); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Delete() again error = %v, want NOT_FOUND", err)
	}
}

func TestTrimUnpinned_KeepsPinned(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	pinned := insertClip(t, db, "pinned old", base.Add(-time.Hour))
	if err := SetPinned(db, pinned.Hash, true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		insertClip(t, db, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
	}

	removed, err := TrimUnpinned(db, 2)
	if err != nil {
		t.Fatalf("TrimUnpinned() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("TrimUnpinned() removed %d, want 3", removed)
	}

	// Pinned survives even though it is the oldest clip
	if _, err := GetByHash(db, pinned.Hash); err != nil {
		t.Errorf("pinned clip trimmed: %v", err)
	}

	recs, err := List(db, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("List() returned %d clips, want 3", len(recs))
	}
	// The two newest unpinned clips remain
	if recs[0].Content != "e" || recs[1].Content != "d" {
		t.Errorf("kept clips = [%q, %q], want [e, d]", recs[0].Content, recs[1].Content)
	}
}

func TestClearUnpinned(t *testing.T) {
	db := setupTestDB(t)

	pinned := insertClip(t, db, "keep", time.Now())
	if err := SetPinned(db, pinned.Hash, true); err != nil {
		t.Fatalf("SetPinned() error = %v", err)
	}
	insertClip(t, db, "drop one", time.Now())
	insertClip(t, db, "drop two", time.Now().Add(time.Second))

	removed, err := ClearUnpinned(db)
	if err != nil {
		t.Fatalf("ClearUnpinned() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("ClearUnpinned() removed %d, want 2", removed)
	}

	total, err := Count(db)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 1 {
		t.Errorf("Count() = %d, want 1", total)
	}
	np, err := CountPinned(db)
	if err != nil {
		t.Fatalf("CountPinned() error = %v", err)
	}
	if np != 1 {
		t.Errorf("CountPinned() = %d, want 1", np)
	}
}

func TestListPinned(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	a := insertClip(t, db, "pin a", base.Add(-time.Second))
	b := insertClip(t, db, "pin b", base)
	insertClip(t, db, "unpinned", base.Add(time.Second))
	for _, h := range []string{a.Hash, b.Hash} {
		if err := SetPinned(db, h, true); err != nil {
			t.Fatalf("SetPinned() error = %v", err)
		}
	}

	recs, err := ListPinned(db)
	if err != nil {
		t.Fatalf("ListPinned() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListPinned() returned %d clips, want 2", len(recs))
	}
	if recs[0].Content != "pin b" || recs[1].Content != "pin a" {
		t.Errorf("ListPinned() order = [%q, %q]", recs[0].Content, recs[1].Content)
	}
}
