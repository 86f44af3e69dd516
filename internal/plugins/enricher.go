package plugins

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

var languagePatterns = map[string][]*regexp.Regexp{
	"python": {
		regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(`),
		regexp.MustCompile(`(?m)^\s*class\s+\w+`),
		regexp.MustCompile(`(?m)^\s*import\s+\w+`),
		regexp.MustCompile(`(?m)^\s*from\s+\w+\s+import`),
	},
	"javascript": {
		regexp.MustCompile(`(?m)^\s*function\s+\w+\s*\(`),
		regexp.MustCompile(`(?m)^\s*const\s+\w+\s*=`),
		regexp.MustCompile(`(?m)^\s*let\s+\w+\s*=`),
		regexp.MustCompile(`(?m)^\s*var\s+\w+\s*=`),
	},
	"java": {
		regexp.MustCompile(`(?m)^\s*public\s+class`),
		regexp.MustCompile(`(?m)^\s*private\s+\w+\s+\w+`),
		regexp.MustCompile(`(?m)^\s*@\w+`),
	},
	"cpp": {
		regexp.MustCompile(`(?m)^\s*#include\s*<`),
		regexp.MustCompile(`(?m)^\s*using\s+namespace`),
		regexp.MustCompile(`(?m)^\s*std::`),
	},
	"go": {
		regexp.MustCompile(`(?m)^\s*package\s+\w+`),
		regexp.MustCompile(`(?m)^\s*func\s+\w+\s*\(`),
		regexp.MustCompile(`(?m)^\s*import\s+\(`),
	},
	"rust": {
		regexp.MustCompile(`(?m)^\s*fn\s+\w+\s*\(`),
		regexp.MustCompile(`(?m)^\s*use\s+\w+`),
		regexp.MustCompile(`(?m)^\s*pub\s+fn`),
	},
	"sql": {
		regexp.MustCompile(`(?mi)^\s*SELECT\s+`),
		regexp.MustCompile(`(?mi)^\s*INSERT\s+INTO`),
		regexp.MustCompile(`(?mi)^\s*UPDATE\s+`),
		regexp.MustCompile(`(?mi)^\s*DELETE\s+FROM`),
	},
	"shell": {
		regexp.MustCompile(`(?m)^\s*#!/bin/(bash|sh)`),
		regexp.MustCompile(`(?m)^\s*sudo\s+`),
		regexp.MustCompile(`(?m)^\s*apt(-get)?\s+`),
	},
}

var (
	emailExactRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	emailFindRe  = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)
	phoneFindRe  = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)

	funcDefRe   = regexp.MustCompile(`(?m)^\s*(?:def|func|function)\s+(\w+)\s*\(`)
	classDefRe  = regexp.MustCompile(`(?m)^\s*(?:public\s+)?class\s+(\w+)`)
	markdownRe  = regexp.MustCompile(`(?m)^(#{1,6}\s|[-*]\s|\d+\.\s|>\s|` + "```" + `)`)
	sentimentUp = []string{"good", "great", "excellent", "amazing", "wonderful", "fantastic", "love", "happy", "best"}
	sentimentDn = []string{"bad", "terrible", "awful", "horrible", "hate", "worst", "sad", "angry", "disappointed"}
)

// EnricherOptions is the config block for the content enricher.
type EnricherOptions struct {
	EnrichCode *bool `json:"enrich_code"`
	EnrichText *bool `json:"enrich_text"`
}

// ContentEnricher classifies clip content and attaches type-specific
// structure: URL parts, code shape, markdown outline, text statistics. It
// also tags the record with the detected type.
type ContentEnricher struct {
	plugin.Base

	log zerolog.Logger
	md  goldmark.Markdown

	enrichCode bool
	enrichText bool
}

// NewContentEnricher builds the enricher from its config block.
func NewContentEnricher(block config.PluginConfig, log zerolog.Logger) (*ContentEnricher, error) {
	var opts EnricherOptions
	if err := decodeOptions(block, &opts); err != nil {
		return nil, err
	}

	e := &ContentEnricher{
		Base:       plugin.NewBase("ContentEnricher", "1.0.0", plugin.PriorityHigh),
		log:        log.With().Str("plugin", "ContentEnricher").Logger(),
		md:         goldmark.New(),
		enrichCode: true,
		enrichText: true,
	}
	if opts.EnrichCode != nil {
		e.enrichCode = *opts.EnrichCode
	}
	if opts.EnrichText != nil {
		e.enrichText = *opts.EnrichText
	}
	return e, nil
}

// Initialize implements plugin.Plugin.
func (e *ContentEnricher) Initialize(_ context.Context) error {
	e.log.Info().Msg("content enricher initialized")
	return nil
}

// ProcessIngest detects the content type and attaches the enrichment under
// the "content" key plus a matching tag.
func (e *ContentEnricher) ProcessIngest(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	contentType := detectContentType(rec.Content)

	enrichment := map[string]clip.Value{
		"content_type": clip.String(contentType),
		"length":       clip.Int(len(rec.Content)),
	}

	switch contentType {
	case "url":
		enrichment["url"] = enrichURL(rec.Content)
	case "email":
		enrichment["email"] = enrichEmail(rec.Content)
	case "markdown":
		enrichment["markdown"] = e.enrichMarkdown(rec.Content)
	case "code":
		if e.enrichCode {
			enrichment["code"] = enrichCode(rec.Content)
		}
	case "text":
		if e.enrichText {
			enrichment["text"] = enrichText(rec.Content)
		}
	}

	rec.Metadata.Enrichments["content"] = clip.Map(enrichment)
	rec.Metadata.AddTag(contentType)

	e.log.Debug().Str("content_type", contentType).Int("chars", len(rec.Content)).Msg("enriched clip")

	return rec, nil
}

// detectContentType classifies trimmed content, most specific type first.
func detectContentType(content string) string {
	trimmed := strings.TrimSpace(content)

	if isWebURL(trimmed) {
		return "url"
	}
	if emailExactRe.MatchString(trimmed) {
		return "email"
	}
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		if json.Valid([]byte(trimmed)) {
			return "json"
		}
	}
	if len(markdownRe.FindAllString(trimmed, 2)) >= 2 {
		return "markdown"
	}
	if detectLanguage(trimmed) != "" {
		return "code"
	}
	return "text"
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// detectLanguage scores every language's patterns and returns the best
// match, empty when nothing hits. Ties break alphabetically for stability.
func detectLanguage(content string) string {
	best, bestScore := "", 0

	langs := make([]string, 0, len(languagePatterns))
	for lang := range languagePatterns {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		score := 0
		for _, pat := range languagePatterns[lang] {
			if pat.MatchString(content) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = lang, score
		}
	}
	return best
}

func enrichURL(content string) clip.Value {
	u, err := url.Parse(strings.TrimSpace(content))
	if err != nil {
		return clip.Map(map[string]clip.Value{"url": clip.String(content)})
	}
	return clip.Map(map[string]clip.Value{
		"url":    clip.String(u.String()),
		"domain": clip.String(u.Host),
		"scheme": clip.String(u.Scheme),
	})
}

func enrichEmail(content string) clip.Value {
	addr := strings.TrimSpace(content)
	out := map[string]clip.Value{"email": clip.String(addr)}
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		out["domain"] = clip.String(addr[at+1:])
	}
	return clip.Map(out)
}

func enrichCode(content string) clip.Value {
	out := map[string]clip.Value{
		"lines": clip.Int(strings.Count(content, "\n") + 1),
		"chars": clip.Int(len(content)),
	}
	if lang := detectLanguage(content); lang != "" {
		out["language"] = clip.String(lang)
	}
	if fns := captureNames(funcDefRe, content, 10); len(fns) > 0 {
		out["functions"] = clip.Strings(fns)
	}
	if cls := captureNames(classDefRe, content, 10); len(cls) > 0 {
		out["classes"] = clip.Strings(cls)
	}

	comments := 0
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//") ||
			strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*") {
			comments++
		}
	}
	out["comment_lines"] = clip.Int(comments)

	return clip.Map(out)
}

// enrichMarkdown walks the goldmark AST and summarizes document structure.
func (e *ContentEnricher) enrichMarkdown(content string) clip.Value {
	source := []byte(content)
	doc := e.md.Parser().Parse(text.NewReader(source))

	headings := []string{}
	links, codeBlocks, lists := 0, 0, 0

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			if len(headings) < 10 {
				headings = append(headings, string(v.Text(source)))
			}
		case *ast.Link, *ast.AutoLink:
			links++
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			codeBlocks++
		case *ast.List:
			lists++
		}
		return ast.WalkContinue, nil
	})

	out := map[string]clip.Value{
		"lines":       clip.Int(strings.Count(content, "\n") + 1),
		"links":       clip.Int(links),
		"code_blocks": clip.Int(codeBlocks),
		"lists":       clip.Int(lists),
	}
	if len(headings) > 0 {
		out["headings"] = clip.Strings(headings)
	}
	return clip.Map(out)
}

func enrichText(content string) clip.Value {
	out := map[string]clip.Value{
		"word_count": clip.Int(len(strings.Fields(content))),
		"line_count": clip.Int(strings.Count(content, "\n") + 1),
		"char_count": clip.Int(len(content)),
	}

	if emails := uniqueMatches(emailFindRe, content, 5); len(emails) > 0 {
		out["emails"] = clip.Strings(emails)
	}
	if phones := uniqueMatches(phoneFindRe, content, 5); len(phones) > 0 {
		out["phones"] = clip.Strings(phones)
	}
	if sentiment := analyzeSentiment(content); sentiment != "" {
		out["sentiment"] = clip.String(sentiment)
	}

	return clip.Map(out)
}

// analyzeSentiment is a keyword heuristic, not a model. Empty string means
// no signal either way.
func analyzeSentiment(content string) string {
	lower := strings.ToLower(content)
	pos, neg := 0, 0
	for _, w := range sentimentUp {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range sentimentDn {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	case pos > 0:
		return "neutral"
	}
	return ""
}

func captureNames(re *regexp.Regexp, content string, limit int) []string {
	var names []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		if len(m) > 1 && m[1] != "" {
			names = append(names, m[1])
			if len(names) == limit {
				break
			}
		}
	}
	return names
}

func uniqueMatches(re *regexp.Regexp, content string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range re.FindAllString(content, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}
