package clip

import "encoding/json"

// Metadata holds the extensible enrichment payload accumulated by plugins.
// Fields are additive: no plugin may remove another plugin's keys; only the
// owning plugin overwrites a key it already produced.
type Metadata struct {
	// Enrichments maps plugin-chosen keys to arbitrary structured values
	Enrichments map[string]Value

	// Predictions is the same shape, reserved for probabilistic outputs
	Predictions map[string]Value

	// SecurityFlags lists detected risk categories in detection order
	SecurityFlags []string

	// Relationships lists fingerprints of related records
	Relationships []string

	// Tags lists free-form classification strings
	Tags []string

	// ConfidenceScores maps keys to floats in [0,1]
	ConfidenceScores map[string]float64
}

// NewMetadata returns a Metadata with all containers initialized so plugins
// can write into them directly.
func NewMetadata() Metadata {
	return Metadata{
		Enrichments:      make(map[string]Value),
		Predictions:      make(map[string]Value),
		ConfidenceScores: make(map[string]float64),
	}
}

// IsEmpty reports whether no plugin has written anything yet.
func (m *Metadata) IsEmpty() bool {
	return len(m.Enrichments) == 0 &&
		len(m.Predictions) == 0 &&
		len(m.SecurityFlags) == 0 &&
		len(m.Relationships) == 0 &&
		len(m.Tags) == 0 &&
		len(m.ConfidenceScores) == 0
}

// HasTag reports whether tag is already present.
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag unless already present. Duplicates are avoided by
// convention, not enforced elsewhere.
func (m *Metadata) AddTag(tag string) {
	if !m.HasTag(tag) {
		m.Tags = append(m.Tags, tag)
	}
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() Metadata {
	out := Metadata{
		Enrichments:      make(map[string]Value, len(m.Enrichments)),
		Predictions:      make(map[string]Value, len(m.Predictions)),
		ConfidenceScores: make(map[string]float64, len(m.ConfidenceScores)),
	}
	for k, v := range m.Enrichments {
		out.Enrichments[k] = v.Clone()
	}
	for k, v := range m.Predictions {
		out.Predictions[k] = v.Clone()
	}
	for k, v := range m.ConfidenceScores {
		out.ConfidenceScores[k] = v
	}
	if m.SecurityFlags != nil {
		out.SecurityFlags = append([]string(nil), m.SecurityFlags...)
	}
	if m.Relationships != nil {
		out.Relationships = append([]string(nil), m.Relationships...)
	}
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

// MarshalJSON implements json.Marshaler. All six containers are emitted
// whenever metadata is serialized at all, matching the persisted schema.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toJSON())
}

// UnmarshalJSON implements json.Unmarshaler. Absent containers decode to
// empty defaults with maps initialized for direct plugin writes.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = metadataFromJSON(in)
	return nil
}

// metadataJSON is the wire form of Metadata.
type metadataJSON struct {
	Enrichments      map[string]Value   `json:"enrichments"`
	Predictions      map[string]Value   `json:"predictions"`
	SecurityFlags    []string           `json:"security_flags"`
	Relationships    []string           `json:"relationships"`
	Tags             []string           `json:"tags"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

func (m *Metadata) toJSON() metadataJSON {
	out := metadataJSON{
		Enrichments:      m.Enrichments,
		Predictions:      m.Predictions,
		SecurityFlags:    m.SecurityFlags,
		Relationships:    m.Relationships,
		Tags:             m.Tags,
		ConfidenceScores: m.ConfidenceScores,
	}
	// Emit {} and [] rather than null for absent containers
	if out.Enrichments == nil {
		out.Enrichments = map[string]Value{}
	}
	if out.Predictions == nil {
		out.Predictions = map[string]Value{}
	}
	if out.SecurityFlags == nil {
		out.SecurityFlags = []string{}
	}
	if out.Relationships == nil {
		out.Relationships = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.ConfidenceScores == nil {
		out.ConfidenceScores = map[string]float64{}
	}
	return out
}

func metadataFromJSON(in metadataJSON) Metadata {
	m := NewMetadata()
	for k, v := range in.Enrichments {
		m.Enrichments[k] = v
	}
	for k, v := range in.Predictions {
		m.Predictions[k] = v
	}
	for k, v := range in.ConfidenceScores {
		m.ConfidenceScores[k] = v
	}
	if len(in.SecurityFlags) > 0 {
		m.SecurityFlags = in.SecurityFlags
	}
	if len(in.Relationships) > 0 {
		m.Relationships = in.Relationships
	}
	if len(in.Tags) > 0 {
		m.Tags = in.Tags
	}
	return m
}
