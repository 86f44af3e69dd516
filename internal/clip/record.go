package clip

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Record is one clipboard capture plus its accumulated metadata.
type Record struct {
	// Content is the opaque text payload, possibly large
	Content string

	// Timestamp is set once at construction
	Timestamp time.Time

	// Pinned is mutated only by the history store, never by plugins
	Pinned bool

	// Hash is the stable fingerprint of Content (8 hex chars). Collisions
	// are treated as identity.
	Hash string

	// Metadata is the extensible enrichment payload
	Metadata Metadata

	// ProcessedBy lists plugins that successfully ran on this record, in
	// execution order. Doubles as audit trail and idempotence guard.
	ProcessedBy []string
}

// Fingerprint derives the identity hash for content: the first 8 hex chars
// of its MD5 digest. Used for deduplication and cross-run addressing, not
// for security.
func Fingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

// NewRecord creates a record for a fresh capture.
func NewRecord(content string) *Record {
	return &Record{
		Content:   content,
		Timestamp: time.Now(),
		Hash:      Fingerprint(content),
		Metadata:  NewMetadata(),
	}
}

// Clone returns a deep copy of r. Dispatch hands each stage a clone so a
// timed-out or faulting stage can never corrupt the accumulated record.
func (r *Record) Clone() *Record {
	out := &Record{
		Content:   r.Content,
		Timestamp: r.Timestamp,
		Pinned:    r.Pinned,
		Hash:      r.Hash,
		Metadata:  r.Metadata.Clone(),
	}
	if r.ProcessedBy != nil {
		out.ProcessedBy = append([]string(nil), r.ProcessedBy...)
	}
	return out
}

// WasProcessedBy reports whether the named plugin already ran on r.
func (r *Record) WasProcessedBy(name string) bool {
	for _, p := range r.ProcessedBy {
		if p == name {
			return true
		}
	}
	return false
}

// Preview returns a single-line preview of the content, truncated to maxLen.
func (r *Record) Preview(maxLen int) string {
	text := strings.ReplaceAll(r.Content, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return text
}

// FormattedTime returns a human-readable relative timestamp.
func (r *Record) FormattedTime(now time.Time) string {
	diff := now.Sub(r.Timestamp)
	switch {
	case diff < 0:
		return ""
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return strconv.Itoa(int(diff.Minutes())) + "m ago"
	case diff < 24*time.Hour:
		return strconv.Itoa(int(diff.Hours())) + "h ago"
	case diff < 48*time.Hour:
		return "Yesterday"
	case diff < 7*24*time.Hour:
		return strconv.Itoa(int(diff.Hours()/24)) + "d ago"
	default:
		return r.Timestamp.Format("Jan 02")
	}
}
