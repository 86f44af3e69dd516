package history

import (
	"context"
	"sort"

	"clipstash/internal/db"
	"clipstash/internal/plugin"
)

// StatsOutput summarizes the stored history and pipeline activity.
type StatsOutput struct {
	TotalClips    int                 `json:"total_clips"`
	PinnedClips   int                 `json:"pinned_clips"`
	EnrichedClips int                 `json:"enriched_clips"`
	FlaggedClips  int                 `json:"flagged_clips"`
	TagCounts     map[string]int      `json:"tag_counts,omitempty"`
	PluginsSeen   []string            `json:"plugins_seen,omitempty"`
	ActivePlugins []plugin.Descriptor `json:"active_plugins"`
}

// Stats walks the stored history and reports totals, tag frequencies and
// which plugins have processed at least one clip.
func (s *Store) Stats(_ context.Context) (*StatsOutput, error) {
	clips, err := db.List(s.db, 0)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{
		TotalClips:    len(clips),
		TagCounts:     map[string]int{},
		ActivePlugins: s.plugins.ListActive(),
	}

	seen := map[string]bool{}
	for _, rec := range clips {
		if rec.Pinned {
			out.PinnedClips++
		}
		if !rec.Metadata.IsEmpty() {
			out.EnrichedClips++
		}
		if len(rec.Metadata.SecurityFlags) > 0 {
			out.FlaggedClips++
		}
		for _, tag := range rec.Metadata.Tags {
			out.TagCounts[tag]++
		}
		for _, name := range rec.ProcessedBy {
			seen[name] = true
		}
	}

	for name := range seen {
		out.PluginsSeen = append(out.PluginsSeen, name)
	}
	sort.Strings(out.PluginsSeen)

	if len(out.TagCounts) == 0 {
		out.TagCounts = nil
	}

	return out, nil
}
