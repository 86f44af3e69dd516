package clip

import (
	"encoding/json"
	"time"
)

// recordJSON is the persisted wire form of a Record. The metadata and
// processed_by keys are omitted entirely when empty so a minimal-schema
// reader that only understands content/timestamp/pinned/hash still works.
type recordJSON struct {
	Content     string        `json:"content"`
	Timestamp   string        `json:"timestamp"`
	Pinned      bool          `json:"pinned"`
	Hash        string        `json:"hash"`
	Metadata    *metadataJSON `json:"metadata,omitempty"`
	ProcessedBy []string      `json:"processed_by,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Content:   r.Content,
		Timestamp: r.Timestamp.Format(time.RFC3339Nano),
		Pinned:    r.Pinned,
		Hash:      r.Hash,
	}
	if !r.Metadata.IsEmpty() {
		md := r.Metadata.toJSON()
		out.Metadata = &md
	}
	if len(r.ProcessedBy) > 0 {
		out.ProcessedBy = r.ProcessedBy
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Objects lacking metadata or
// processed_by decode to empty defaults; a missing hash is recomputed from
// the content.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Content = in.Content
	r.Pinned = in.Pinned

	r.Timestamp = time.Time{}
	if in.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, in.Timestamp)
		if err != nil {
			return err
		}
		r.Timestamp = ts
	}

	r.Hash = in.Hash
	if r.Hash == "" {
		r.Hash = Fingerprint(in.Content)
	}

	if in.Metadata != nil {
		r.Metadata = metadataFromJSON(*in.Metadata)
	} else {
		r.Metadata = NewMetadata()
	}

	r.ProcessedBy = nil
	if len(in.ProcessedBy) > 0 {
		r.ProcessedBy = in.ProcessedBy
	}

	return nil
}
