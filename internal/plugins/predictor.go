package plugins

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipstash/internal/clip"
	"clipstash/internal/config"
	"clipstash/internal/plugin"
	"clipstash/internal/sysctx"
)

// PredictorOptions is the config block for the paste predictor.
type PredictorOptions struct {
	HalfLifeMinutes *float64 `json:"half_life_minutes"`
}

// PastePredictor estimates how likely a clip is to be pasted again, from
// how often and how recently it was pasted before. The estimate lands in
// predictions["paste_likelihood"] with the headline number mirrored into
// ConfidenceScores. Search results are re-ranked by the same signal.
type PastePredictor struct {
	plugin.Base

	log      zerolog.Logger
	halfLife time.Duration

	mu         sync.Mutex
	pasteCount map[string]int
	lastPaste  map[string]time.Time
}

// NewPastePredictor builds the predictor from its config block.
func NewPastePredictor(block config.PluginConfig, log zerolog.Logger) (*PastePredictor, error) {
	var opts PredictorOptions
	if err := decodeOptions(block, &opts); err != nil {
		return nil, err
	}

	halfLife := 30 * time.Minute
	if opts.HalfLifeMinutes != nil && *opts.HalfLifeMinutes > 0 {
		halfLife = time.Duration(*opts.HalfLifeMinutes * float64(time.Minute))
	}

	return &PastePredictor{
		Base:       plugin.NewBase("PastePredictor", "1.0.0", plugin.PriorityHigh),
		log:        log.With().Str("plugin", "PastePredictor").Logger(),
		halfLife:   halfLife,
		pasteCount: make(map[string]int),
		lastPaste:  make(map[string]time.Time),
	}, nil
}

// Initialize implements plugin.Plugin.
func (p *PastePredictor) Initialize(_ context.Context) error {
	p.log.Info().Dur("half_life", p.halfLife).Msg("paste predictor initialized")
	return nil
}

// ProcessIngest attaches the current likelihood estimate for this clip.
func (p *PastePredictor) ProcessIngest(_ context.Context, rec *clip.Record, snap sysctx.Snapshot) (*clip.Record, error) {
	likelihood := p.likelihood(rec.Hash, time.Now())

	rec.Metadata.Predictions["paste_likelihood"] = clip.Map(map[string]clip.Value{
		"type":       clip.String("paste_likelihood"),
		"confidence": clip.Number(round3(likelihood)),
		"active_app": clip.String(snap.ActiveApp),
	})
	rec.Metadata.ConfidenceScores["paste_prediction"] = round3(likelihood)

	return rec, nil
}

// OnPrePaste records the paste event so future estimates reflect it.
func (p *PastePredictor) OnPrePaste(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	p.mu.Lock()
	p.pasteCount[rec.Hash]++
	p.lastPaste[rec.Hash] = time.Now()
	p.mu.Unlock()
	return rec, nil
}

// OnPostSearch promotes results the user pastes often, keeping the stored
// order among clips with equal likelihood.
func (p *PastePredictor) OnPostSearch(_ context.Context, _ string, results []*clip.Record) ([]*clip.Record, error) {
	now := time.Now()
	sort.SliceStable(results, func(i, j int) bool {
		return p.likelihood(results[i].Hash, now) > p.likelihood(results[j].Hash, now)
	})
	return results, nil
}

// likelihood maps paste frequency with exponential recency decay into (0, 1).
func (p *PastePredictor) likelihood(hash string, now time.Time) float64 {
	p.mu.Lock()
	count := p.pasteCount[hash]
	last := p.lastPaste[hash]
	p.mu.Unlock()

	if count == 0 {
		return 0.1
	}

	age := now.Sub(last)
	decay := math.Exp2(-age.Seconds() / p.halfLife.Seconds())
	score := (1 - math.Exp2(-float64(count))) * (0.5 + 0.5*decay)
	return math.Min(score, 0.99)
}
