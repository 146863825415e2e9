package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/testutil"
)

// Harness runs scenarios against the real engine.
type Harness struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a harness. A nil logger discards engine logs.
func New(logger *slog.Logger) (*Harness, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eng, err := engine.New(engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return &Harness{engine: eng, logger: logger}, nil
}

// Run executes a scenario with a quiet harness.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(nil)
	if err != nil {
		return nil, err
	}
	return h.Run(scenario)
}

// Run synthesizes the scenario's documents, reconstructs the game and
// evaluates the expected outcome and assertions.
//
// The returned error reports a scenario that cannot be executed at all.
// Expectation failures are recorded in the Result.
func (h *Harness) Run(scenario *Scenario) (result *Result, err error) {
	defer func() {
		// The builder panics on players that were never dressed.
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("scenario %s: %v", scenario.Name, r)
		}
	}()

	b := Build(scenario.Game)
	res, runErr := h.engine.ReconstructDocuments(source.Documents(b.Documents()))

	result = NewResult()
	result.Engine = res
	result.Status = engine.StatusOf(runErr)
	result.ErrorCode = string(engine.CodeOf(runErr))
	if runErr != nil && result.ErrorCode == "" {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, runErr)
	}

	checkOutcome(result, scenario.Expect, runErr)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"status", result.Status,
		"pass", result.Pass)
	return result, nil
}

// Build turns a game spec into a game builder.
func Build(g GameSpec) *testutil.GameBuilder {
	b := testutil.NewGame(g.Season, g.GameType, g.Number)
	if g.StandardRosters {
		b.StandardRosters()
	}
	for _, p := range g.Goalies {
		b.Goalie(p.Side, p.ID, p.Number)
	}
	for _, p := range g.Skaters {
		b.Skater(p.Side, p.ID, p.Number)
	}
	for _, p := range g.Lineups {
		b.Lineup(p)
	}
	for _, sh := range g.Shifts {
		if sh.Detail != 0 {
			b.AnnotatedShift(sh.Side, sh.Player, sh.Period, sh.Start, sh.End, sh.Detail)
		} else {
			b.Shift(sh.Side, sh.Player, sh.Period, sh.Start, sh.End)
		}
	}
	for _, p := range g.Periods {
		b.Period(p)
	}
	for _, ev := range g.Events {
		switch ev.Type {
		case ir.PlayPenalty:
			b.Penalty(ev.Side, ev.Period, ev.Seconds, ev.Player, ev.Code, ev.Minutes)
		case ir.PlayGoal:
			b.Goal(ev.Side, ev.Period, ev.Seconds, ev.Player)
		default:
			b.EventWith(ev.Type, ev.Period, ev.Seconds, ev.Situation, nil)
		}
	}
	for _, toi := range g.ReportTOI {
		b.ReportTOI(toi.Player, toi.Seconds)
	}
	if g.ByNumberOnly {
		b.ByNumberOnly()
	}
	return b
}

func checkOutcome(result *Result, want Outcome, runErr error) {
	if result.Status != want.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", want.Status, result.Status)
		if runErr != nil {
			msg += fmt.Sprintf(" (%v)", runErr)
		}
		result.AddError(msg)
	}
	if want.ErrorCode != "" && result.ErrorCode != want.ErrorCode {
		result.AddError(fmt.Sprintf("error code: expected %s, got %q", want.ErrorCode, result.ErrorCode))
	}
	if result.Engine != nil {
		if got := len(result.Engine.Verdict.Mismatches); got != want.Mismatches {
			result.AddError(fmt.Sprintf("time-on-ice mismatches: expected %d, got %d", want.Mismatches, got))
		}
	}
}
