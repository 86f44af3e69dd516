package plugin

import (
	"context"
	stderrors "errors"
	"fmt"

	"clipstash/internal/clip"
	"clipstash/internal/errors"
	"clipstash/internal/sysctx"
)

// Hook names used in logs and stage errors.
const (
	hookIngest     = "ingest"
	hookPrePaste   = "pre-paste"
	hookPostSearch = "post-search"
)

// DispatchIngest runs rec through every enabled plugin in priority order via
// the ingest hook. Each invocation is independently bounded and isolated: a
// plugin that times out or fails is logged and skipped, and the record keeps
// the value accumulated so far. The dispatch never aborts early due to a
// single plugin's failure; only cancellation of ctx terminates the loop,
// returning the record as last accumulated.
//
// Each stage receives its own clone of the record, so a stage abandoned at
// its deadline cannot corrupt the accumulated value. Plugins that completed within
// budget appear in the returned record's ProcessedBy in execution order.
func (m *Manager) DispatchIngest(ctx context.Context, rec *clip.Record, snap sysctx.Snapshot) *clip.Record {
	for _, p := range m.active() {
		if ctx.Err() != nil {
			return rec
		}

		staged := rec.Clone()
		res, err := m.invokeRecord(ctx, p, hookIngest, func(ictx context.Context) (*clip.Record, error) {
			return p.ProcessIngest(ictx, staged, snap)
		})
		if err != nil {
			m.logStage(err)
			continue
		}
		if res == nil {
			m.logStage(errors.NewStageFault(p.Name(), hookIngest, fmt.Errorf("returned nil record")))
			continue
		}

		res.ProcessedBy = append(res.ProcessedBy, p.Name())
		rec = res
	}
	return rec
}

// DispatchPrePaste runs the pre-paste hook chain. The moment any plugin
// vetoes, dispatch stops and ErrVeto is returned: a binding decision the
// caller must honor by aborting the paste. A plugin that times out or fails
// is treated as pass-through and cannot veto.
func (m *Manager) DispatchPrePaste(ctx context.Context, rec *clip.Record, snap sysctx.Snapshot) (*clip.Record, error) {
	for _, p := range m.active() {
		if ctx.Err() != nil {
			return rec, nil
		}

		staged := rec.Clone()
		res, err := m.invokeRecord(ctx, p, hookPrePaste, func(ictx context.Context) (*clip.Record, error) {
			out, herr := p.OnPrePaste(ictx, staged, snap)
			if herr == nil && out == nil {
				// nil record without error is the interop form of a veto
				herr = ErrVeto
			}
			return out, herr
		})
		if err != nil {
			if stderrors.Is(err, ErrVeto) {
				m.log.Info().Str("plugin", p.Name()).Msg("paste blocked by plugin")
				return nil, ErrVeto
			}
			m.logStage(err)
			continue
		}

		rec = res
	}
	return rec, nil
}

// DispatchPostSearch runs the post-search hook chain over a results
// sequence. Each plugin may filter or reorder; on timeout or failure the
// sequence is left as received from the prior stage.
func (m *Manager) DispatchPostSearch(ctx context.Context, query string, results []*clip.Record) []*clip.Record {
	for _, p := range m.active() {
		if ctx.Err() != nil {
			return results
		}

		staged := append([]*clip.Record(nil), results...)
		res, err := m.invokeResults(ctx, p, func(ictx context.Context) ([]*clip.Record, error) {
			return p.OnPostSearch(ictx, query, staged)
		})
		if err != nil {
			m.logStage(err)
			continue
		}

		results = res
	}
	return results
}

// invokeRecord runs fn on its own goroutine and awaits it with the plugin's
// deadline. Deadline-exceeded and panics are both converted into stage
// errors; the abandoned goroutine holds only its own clone of the record.
func (m *Manager) invokeRecord(ctx context.Context, p Plugin, hook string, fn func(context.Context) (*clip.Record, error)) (*clip.Record, error) {
	ictx, cancel := context.WithTimeout(ctx, m.budget(p))
	defer cancel()

	type result struct {
		rec *clip.Record
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		rec, err := fn(ictx)
		done <- result{rec: rec, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if stderrors.Is(res.err, ErrVeto) {
				return nil, ErrVeto
			}
			return nil, errors.NewStageFault(p.Name(), hook, res.err)
		}
		return res.rec, nil
	case <-ictx.Done():
		return nil, errors.NewStageTimeout(p.Name(), hook)
	}
}

// invokeResults is invokeRecord for the post-search result sequence.
func (m *Manager) invokeResults(ctx context.Context, p Plugin, fn func(context.Context) ([]*clip.Record, error)) ([]*clip.Record, error) {
	ictx, cancel := context.WithTimeout(ctx, m.budget(p))
	defer cancel()

	type result struct {
		recs []*clip.Record
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		recs, err := fn(ictx)
		done <- result{recs: recs, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, errors.NewStageFault(p.Name(), hookPostSearch, res.err)
		}
		if res.recs == nil {
			res.recs = []*clip.Record{}
		}
		return res.recs, nil
	case <-ictx.Done():
		return nil, errors.NewStageTimeout(p.Name(), hookPostSearch)
	}
}

// logStage logs an absorbed stage error at the level matching its kind.
func (m *Manager) logStage(err error) {
	cErr, ok := err.(*errors.ClipError)
	if !ok {
		m.log.Error().Err(err).Msg("stage failed")
		return
	}
	ev := m.log.Error()
	if cErr.Code == errors.ErrStageTimeout {
		ev = m.log.Warn()
	}
	ev.Str("plugin", fmt.Sprint(cErr.Details["plugin"])).
		Str("hook", fmt.Sprint(cErr.Details["hook"])).
		Msg(cErr.Message)
}
