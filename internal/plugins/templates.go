package plugins

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

type templateType struct {
	patterns  []*regexp.Regexp
	variables []string
}

var templateTypes = map[string]templateType{
	"email": {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(dear|hi|hello)`),
			regexp.MustCompile(`(?i)(regards|sincerely|thanks|best)\s*,`),
		},
		variables: []string{"recipient", "sender", "subject"},
	},
	"code": {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(def|function|class)`),
			regexp.MustCompile(`(?m)^\s*(import|from|using|package)`),
		},
		variables: []string{"name", "params", "type"},
	},
	"meeting_notes": {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(meeting|agenda|attendees|action items)`),
			regexp.MustCompile(`\d{1,2}:\d{2}\s*(am|pm)?`),
		},
		variables: []string{"date", "attendees", "topic"},
	},
	"bug_report": {
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(bug|issue|error|problem)`),
			regexp.MustCompile(`(?i)(steps to reproduce|expected|actual)`),
		},
		variables: []string{"title", "description", "steps"},
	},
}

// TemplatesOptions is the config block for the template detector.
type TemplatesOptions struct {
	MinPatternCount *int `json:"min_pattern_count"`
}

// SmartTemplates spots recurring document shapes (emails, bug reports,
// meeting notes) and annotates clips that match one. Once a shape repeats
// enough times the clip also gets a recurring-template marker.
type SmartTemplates struct {
	plugin.Base

	log             zerolog.Logger
	minPatternCount int

	mu        sync.Mutex
	seenTypes map[string]int
}

// NewSmartTemplates builds the detector from its config block.
func NewSmartTemplates(block config.PluginConfig, log zerolog.Logger) (*SmartTemplates, error) {
	var opts TemplatesOptions
	if err := decodeOptions(block, &opts); err != nil {
		return nil, err
	}

	s := &SmartTemplates{
		Base:            plugin.NewBase("SmartTemplates", "1.0.0", plugin.PriorityLow),
		log:             log.With().Str("plugin", "SmartTemplates").Logger(),
		minPatternCount: 3,
		seenTypes:       make(map[string]int),
	}
	if opts.MinPatternCount != nil && *opts.MinPatternCount > 0 {
		s.minPatternCount = *opts.MinPatternCount
	}
	return s, nil
}

// Initialize implements plugin.Plugin.
func (s *SmartTemplates) Initialize(_ context.Context) error {
	s.log.Info().Msg("smart templates initialized")
	return nil
}

// ProcessIngest detects whether the clip matches a known document shape.
func (s *SmartTemplates) ProcessIngest(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	tmplType := detectTemplateType(rec.Content)
	if tmplType == "" {
		return rec, nil
	}

	s.mu.Lock()
	s.seenTypes[tmplType]++
	seen := s.seenTypes[tmplType]
	s.mu.Unlock()

	tt := templateTypes[tmplType]
	enrichment := map[string]clip.Value{
		"type":      clip.String(tmplType),
		"variables": clip.Strings(tt.variables),
		"skeleton":  clip.String(extractSkeleton(rec.Content, tmplType)),
		"lines":     clip.Int(strings.Count(rec.Content, "\n") + 1),
		"length":    clip.Int(len(rec.Content)),
	}
	if seen >= s.minPatternCount {
		enrichment["recurring"] = clip.Bool(true)
	}

	rec.Metadata.Enrichments["template"] = clip.Map(enrichment)

	s.log.Debug().Str("template_type", tmplType).Int("seen", seen).Msg("template detected")

	return rec, nil
}

var (
	skeletonGreetingRe  = regexp.MustCompile(`(?i)(dear|hi|hello)\s+\w+`)
	skeletonSignoffRe   = regexp.MustCompile(`(?i)(regards|sincerely|thanks|best)\s*,\s*\w+`)
	skeletonFuncNameRe  = regexp.MustCompile(`(def|func|function)\s+\w+`)
	skeletonClassNameRe = regexp.MustCompile(`class\s+\w+`)
	skeletonDateRe      = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)
	skeletonTimeRe      = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*(am|pm)?`)
	skeletonTitleRe     = regexp.MustCompile(`(?i)(title|summary):\s*.+`)
)

// extractSkeleton replaces the variable parts of the content with named
// placeholders, yielding a reusable template for the detected shape.
func extractSkeleton(content, tmplType string) string {
	switch tmplType {
	case "email":
		content = skeletonGreetingRe.ReplaceAllString(content, "$1 {{recipient}}")
		content = skeletonSignoffRe.ReplaceAllString(content, "$1,\n{{sender}}")
	case "code":
		content = skeletonFuncNameRe.ReplaceAllString(content, "$1 {{function_name}}")
		content = skeletonClassNameRe.ReplaceAllString(content, "class {{class_name}}")
	case "meeting_notes":
		content = skeletonDateRe.ReplaceAllString(content, "{{date}}")
		content = skeletonTimeRe.ReplaceAllString(content, "{{time}}")
	case "bug_report":
		content = skeletonTitleRe.ReplaceAllString(content, "$1: {{title}}")
	}
	return content
}

// detectTemplateType scores each shape's patterns and returns the best
// match, empty when nothing hits. Ties break alphabetically for stability.
func detectTemplateType(content string) string {
	best, bestScore := "", 0

	names := make([]string, 0, len(templateTypes))
	for name := range templateTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, pat := range templateTypes[name].patterns {
			if pat.MatchString(content) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}
