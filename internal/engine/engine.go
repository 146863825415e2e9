package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/icetime/internal/goalie"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/reconcile"
	"github.com/roach88/icetime/internal/shifts"
	"github.com/roach88/icetime/internal/situation"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/timeline"
	"github.com/roach88/icetime/internal/timemodel"
)

// Engine reconstructs games. It holds no per-game state and is safe for
// concurrent use.
type Engine struct {
	log    *slog.Logger
	parser *source.Parser
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithParser sets the parser used by ReconstructDocuments.
func WithParser(p *source.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		p, err := source.NewParser(source.WithLogger(e.log))
		if err != nil {
			return nil, fmt.Errorf("create parser: %w", err)
		}
		e.parser = p
	}
	return e, nil
}

// Result is the outcome of one reconstruction.
type Result struct {
	Game     *ir.Game
	Timeline *timeline.Timeline
	Verdict  reconcile.Verdict
}

// ReconstructDocuments decodes raw documents and reconstructs the game.
func (e *Engine) ReconstructDocuments(docs source.Documents) (*Result, error) {
	game, err := e.parser.Parse(docs)
	if err != nil {
		return nil, fromInputError(0, err)
	}
	return e.Reconstruct(game)
}

// Reconstruct builds and verifies the timeline for game.
//
// On a time-on-ice mismatch the complete result is returned together with a
// RECONCILIATION_FAILED error and Timeline.Verified is false.
func (e *Engine) Reconstruct(game *ir.Game) (*Result, error) {
	id := game.Info.GameID
	log := e.log.With("game_id", id)
	geom := timemodel.ForGame(game.Info.IsPlayoff)

	last := lastPeriod(geom, game)
	if last == 0 {
		return nil, &GameError{Code: ErrCodeMalformedInput, GameID: id, Document: source.DocPlayByPlay, Message: "no played periods"}
	}
	periods := geom.Periods(last)

	goalies := make([]goalie.Assignment, 0, len(ir.Sides))
	occ := make(map[ir.Side]*shifts.Occupancy, len(ir.Sides))
	for _, side := range ir.Sides {
		ts := game.Shifts(side)
		a := goalie.Identify(side, ts.Intervals, periods)
		if a.LowConfidence() {
			log.Warn("low confidence goaltender assignment", "side", side, "starter", a.Starter, "notes", a.Notes)
		}
		goalies = append(goalies, a)
		occ[side] = shifts.Normalize(geom, last, side, ts.Intervals, a)
		for _, c := range occ[side].Conflicts() {
			log.Debug("goaltender slot conflict", "side", side, "period", c.Period, "second", c.SecondsIntoPeriod, "chosen", c.Chosen)
		}
	}

	sit, err := situation.Scan(game.Plays, situation.Config{
		Geometry: geom,
		Roster:   game.Roster,
		GoalieIn: func(side ir.Side, p, s int) bool {
			return occ[side].GoaltenderIn(p, s)
		},
		Logger: log,
	})
	if err != nil {
		return nil, fromInputError(id, err)
	}

	tl, err := timeline.Assemble(timeline.Input{
		Info:       game.Info,
		Geometry:   geom,
		LastPeriod: last,
		Away:       occ[ir.SideAway],
		Home:       occ[ir.SideHome],
		Situation:  sit,
		Goalies:    goalies,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble game %d: %w", id, err)
	}

	verdict := reconcile.Validate(tl.Entries, game.Roster)
	for _, w := range verdict.Warnings {
		log.Warn("too many skaters", "side", w.Side, "period", w.Period, "second", w.SecondsIntoPeriod, "skaters", w.Skaters)
	}
	tl.Verified = verdict.Passed
	res := &Result{Game: game, Timeline: tl, Verdict: verdict}

	log.Info("reconstructed game",
		"periods", tl.NumPeriods,
		"entries", len(tl.Entries),
		"penalties", len(tl.Penalties),
		"verified", tl.Verified)

	if !verdict.Passed {
		return res, &GameError{
			Code:    ErrCodeReconciliationFailed,
			GameID:  id,
			Message: verdict.Summary(),
		}
	}
	return res, nil
}

// lastPeriod is the highest non-shootout period seen in the plays or shifts.
func lastPeriod(geom timemodel.Geometry, game *ir.Game) int {
	last := 0
	note := func(p int) {
		if !geom.IsShootout(p) && p > last {
			last = p
		}
	}
	for _, pl := range game.Plays {
		note(pl.Period)
	}
	for _, side := range ir.Sides {
		for _, iv := range game.Shifts(side).Intervals {
			note(iv.Period)
		}
	}
	return last
}
