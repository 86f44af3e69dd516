package plugins

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

var (
	entityURLRe    = regexp.MustCompile(`https?://[^\s]+`)
	entityPersonRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	entityDateRe   = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
)

// KnowledgeOptions is the config block for the knowledge graph builder.
type KnowledgeOptions struct {
	MinSimilarity    *float64 `json:"min_similarity"`
	MaxRelationships *int     `json:"max_relationships"`
	WindowSize       *int     `json:"window_size"`
}

// KnowledgeGraph extracts named entities from each clip and links it to
// recent clips whose word sets overlap. Links are recorded as fingerprints
// in the record's Relationships list.
type KnowledgeGraph struct {
	plugin.Base

	log zerolog.Logger

	minSimilarity    float64
	maxRelationships int
	windowSize       int

	mu     sync.Mutex
	window []graphEntry
}

type graphEntry struct {
	hash  string
	words map[string]bool
}

// NewKnowledgeGraph builds the graph plugin from its config block.
func NewKnowledgeGraph(block config.PluginConfig, log zerolog.Logger) (*KnowledgeGraph, error) {
	var opts KnowledgeOptions
	if err := decodeOptions(block, &opts); err != nil {
		return nil, err
	}

	k := &KnowledgeGraph{
		Base:             plugin.NewBase("KnowledgeGraph", "1.0.0", plugin.PriorityMedium),
		log:              log.With().Str("plugin", "KnowledgeGraph").Logger(),
		minSimilarity:    0.5,
		maxRelationships: 10,
		windowSize:       100,
	}
	if opts.MinSimilarity != nil {
		k.minSimilarity = *opts.MinSimilarity
	}
	if opts.MaxRelationships != nil && *opts.MaxRelationships > 0 {
		k.maxRelationships = *opts.MaxRelationships
	}
	if opts.WindowSize != nil && *opts.WindowSize > 0 {
		k.windowSize = *opts.WindowSize
	}
	return k, nil
}

// Initialize implements plugin.Plugin.
func (k *KnowledgeGraph) Initialize(_ context.Context) error {
	k.log.Info().Float64("min_similarity", k.minSimilarity).Msg("knowledge graph initialized")
	return nil
}

// ProcessIngest extracts entities and links the clip to similar recent clips.
func (k *KnowledgeGraph) ProcessIngest(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	entities := extractEntities(rec.Content)
	if len(entities) > 0 {
		rec.Metadata.Enrichments["entities"] = clip.Seq(entities...)
	}

	words := wordSet(rec.Content)

	k.mu.Lock()
	for _, other := range k.window {
		if other.hash == rec.Hash {
			continue
		}
		if len(rec.Metadata.Relationships) >= k.maxRelationships {
			break
		}
		if jaccard(words, other.words) >= k.minSimilarity {
			rec.Metadata.Relationships = append(rec.Metadata.Relationships, other.hash)
		}
	}
	k.window = append(k.window, graphEntry{hash: rec.Hash, words: words})
	if len(k.window) > k.windowSize {
		k.window = k.window[len(k.window)-k.windowSize:]
	}
	k.mu.Unlock()

	if len(rec.Metadata.Relationships) > 0 {
		k.log.Debug().Int("related", len(rec.Metadata.Relationships)).Msg("linked clip")
	}

	return rec, nil
}

// OnPostSearch promotes results whose extracted entities mention a query
// term. Ordering among promoted and unpromoted results is preserved.
func (k *KnowledgeGraph) OnPostSearch(_ context.Context, query string, results []*clip.Record) ([]*clip.Record, error) {
	terms := wordSet(query)
	if len(terms) == 0 || len(results) < 2 {
		return results, nil
	}

	var promoted, rest []*clip.Record
	for _, rec := range results {
		if entityMatchesQuery(rec, terms) {
			promoted = append(promoted, rec)
		} else {
			rest = append(rest, rec)
		}
	}
	if len(promoted) == 0 {
		return results, nil
	}
	return append(promoted, rest...), nil
}

// entityMatchesQuery reports whether any extracted entity text contains one
// of the query terms.
func entityMatchesQuery(rec *clip.Record, terms map[string]bool) bool {
	entities, ok := rec.Metadata.Enrichments["entities"]
	if !ok {
		return false
	}
	seq, ok := entities.AsSeq()
	if !ok {
		return false
	}
	for _, e := range seq {
		textVal, _ := e.Get("text")
		text, _ := textVal.AsString()
		text = strings.ToLower(text)
		for term := range terms {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}

// extractEntities finds URLs, emails, likely person names and dates with
// simple patterns, capped per category.
func extractEntities(content string) []clip.Value {
	var entities []clip.Value
	add := func(matches []string, label string, limit int) {
		for i, m := range matches {
			if i == limit {
				break
			}
			entities = append(entities, clip.Map(map[string]clip.Value{
				"text":  clip.String(m),
				"label": clip.String(label),
			}))
		}
	}

	add(entityURLRe.FindAllString(content, -1), "URL", 5)
	add(emailFindRe.FindAllString(content, -1), "EMAIL", 5)
	add(entityPersonRe.FindAllString(content, -1), "PERSON", 5)
	add(entityDateRe.FindAllString(content, -1), "DATE", 3)

	return entities
}

func wordSet(content string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(content)) {
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
