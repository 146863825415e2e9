// Package situation runs the penalty ledger over the play-by-play log and
// derives the situation code for any instant of a game.
//
// The scan is strictly left to right. Before each event every running
// penalty that has reached its expiry is retired and a synthetic
// penalty-expired entry is logged. Penalties called at one timestamp are
// resolved together under the coincidental rules, a goal releases a minor
// of the team scored on, and a delayed-penalty signal suppresses logging
// until the next faceoff.
package situation

import (
	"fmt"
	"log/slog"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

const document = "play-by-play"

// GoalieLookup reports whether side had a goaltender in net at (p, s).
type GoalieLookup func(side ir.Side, p, s int) bool

// Config supplies the scan's collaborators.
type Config struct {
	Geometry timemodel.Geometry
	Roster   *ir.Roster
	GoalieIn GoalieLookup
	Logger   *slog.Logger
}

// Result is everything the scan produced. It is owned by one game.
type Result struct {
	// Log is the situation event log in scan order.
	Log []ir.EventLogEntry

	// Penalties is the final ledger in call order.
	Penalties []*Penalty

	// Cancelled lists calls removed by coincidental cancellation.
	Cancelled []Cancelled

	// PenaltyShots maps game seconds to recorded penalty-shot codes.
	PenaltyShots map[int]ir.SituationCode

	geom   timemodel.Geometry
	counts map[ir.Side][]int
}

// PenaltyCount returns the number of strength-affecting penalties side was
// serving at elapsed second e. A penalty covers (start, end].
func (r *Result) PenaltyCount(side ir.Side, e int) int {
	c := r.counts[side]
	if e < 0 || e >= len(c) {
		return 0
	}
	return c[e]
}

// CodeAt derives the situation code at (p, s) from the ledger windows and
// the supplied goalie flags. Recorded penalty-shot codes take precedence.
func (r *Result) CodeAt(p, s int, awayGoalie, homeGoalie bool) ir.SituationCode {
	if code, ok := r.PenaltyShots[r.geom.GameSecond(p, s)]; ok {
		return code
	}
	e := r.geom.Elapsed(p, s)
	return Code(r.geom, p, r.PenaltyCount(ir.SideAway, e), r.PenaltyCount(ir.SideHome, e), awayGoalie, homeGoalie)
}

type scanner struct {
	cfg     Config
	log     *slog.Logger
	ledger  *Ledger
	result  *Result
	grouped map[int]bool
	inSeq   bool
	current ir.SituationCode
}

// Scan runs the ledger over plays. It fails on an unknown event type, an
// unknown penalty type code, or a reference the roster cannot resolve.
func Scan(plays []ir.Play, cfg Config) (*Result, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GoalieIn == nil {
		cfg.GoalieIn = func(ir.Side, int, int) bool { return true }
	}
	s := &scanner{
		cfg:     cfg,
		log:     cfg.Logger,
		ledger:  NewLedger(),
		grouped: map[int]bool{},
		result: &Result{
			PenaltyShots: map[int]ir.SituationCode{},
			geom:         cfg.Geometry,
		},
	}

	for i := range plays {
		if err := s.step(plays, i); err != nil {
			return nil, err
		}
	}

	s.result.Penalties = s.ledger.Penalties()
	s.result.counts = buildCounts(s.ledger.windows())
	return s.result, nil
}

func (s *scanner) step(plays []ir.Play, i int) error {
	pl := plays[i]
	geom := s.cfg.Geometry
	record := fmt.Sprintf("event %d", pl.EventID)

	if !ir.IsKnownPlayType(pl.Type) {
		return ir.Malformed(document, record, "unknown event type %q", pl.Type)
	}
	if geom.IsShootout(pl.Period) {
		return nil
	}
	if !geom.Contains(pl.Period, pl.Seconds) {
		return ir.Malformed(document, record, "time %s is outside period %d", pl.TimeInPeriod, pl.Period)
	}

	now := geom.Elapsed(pl.Period, pl.Seconds)
	if s.current == "" {
		s.current = s.codeAt(pl.Period, pl.Seconds)
	}
	s.notePenaltyShot(pl)
	s.expireThrough(now)

	switch pl.Type {
	case ir.PlayPenalty:
		if s.grouped[i] {
			break
		}
		if err := s.assess(s.collect(plays, i), now); err != nil {
			return err
		}
	case ir.PlayGoal:
		if err := s.goal(pl, now); err != nil {
			return err
		}
	case ir.PlayDelayedPenalty:
		s.logPlay(pl, true)
		s.inSeq = true
	case ir.PlayFaceoff:
		s.logPlay(pl, false)
		s.inSeq = false
	case ir.PlayPeriodStart, ir.PlayPeriodEnd:
		if !s.inSeq {
			s.logPlay(pl, false)
		}
	}

	s.current = s.codeAt(pl.Period, pl.Seconds)
	return nil
}

// codeAt derives the live code from the ledger as it stands.
func (s *scanner) codeAt(p, sec int) ir.SituationCode {
	return Code(s.cfg.Geometry, p,
		s.ledger.ActiveStrength(ir.SideAway), s.ledger.ActiveStrength(ir.SideHome),
		s.cfg.GoalieIn(ir.SideAway, p, sec), s.cfg.GoalieIn(ir.SideHome, p, sec))
}

func (s *scanner) notePenaltyShot(pl ir.Play) {
	if !pl.SituationCode.IsPenaltyShot() || pl.Type == ir.PlayPeriodEnd || pl.Type == ir.PlayGameEnd {
		return
	}
	s.result.PenaltyShots[s.cfg.Geometry.GameSecond(pl.Period, pl.Seconds)] = pl.SituationCode
}

func (s *scanner) expireThrough(now int) {
	for {
		tr, ok := s.ledger.ExpireNext(now)
		if !ok {
			return
		}
		s.logTransition(tr)
	}
}

// logTransition appends a synthetic penalty-expired entry carrying the code
// after the expiration.
func (s *scanner) logTransition(tr Transition) {
	geom := s.cfg.Geometry
	p, sec := geom.FromElapsed(tr.At)
	before := s.current
	after := s.codeAt(p, sec)

	s.result.Log = append(s.result.Log, ir.EventLogEntry{
		EventType:         ir.PlayPenaltyExpired,
		Period:            p,
		PeriodType:        geom.PeriodType(p),
		TimeInPeriod:      timemodel.FormatClock(sec),
		TimeRemaining:     timemodel.FormatClock(geom.PeriodLength(p) - sec),
		SecondsIntoPeriod: sec,
		ElapsedSeconds:    tr.At,
		SituationBefore:   before,
		SituationAfter:    after,
		Synthetic:         true,
		Expiration:        tr.Penalty.expiration(tr.Reason),
	})
	s.current = after

	s.log.Debug("penalty expired",
		"event_id", tr.Penalty.EventID,
		"side", tr.Penalty.Side,
		"reason", tr.Reason,
		"period", p,
		"seconds", sec,
		"activated", len(tr.Activated))
}

func (s *scanner) logPlay(pl ir.Play, delayed bool) {
	after := s.codeAt(pl.Period, pl.Seconds)
	if pl.SituationCode.IsPenaltyShot() {
		after = pl.SituationCode
	}
	periodType := pl.PeriodType
	if periodType == "" {
		periodType = s.cfg.Geometry.PeriodType(pl.Period)
	}
	s.result.Log = append(s.result.Log, ir.EventLogEntry{
		EventID:           pl.EventID,
		EventType:         pl.Type,
		Period:            pl.Period,
		PeriodType:        periodType,
		TimeInPeriod:      pl.TimeInPeriod,
		TimeRemaining:     pl.TimeRemaining,
		SecondsIntoPeriod: pl.Seconds,
		ElapsedSeconds:    s.cfg.Geometry.Elapsed(pl.Period, pl.Seconds),
		SituationBefore:   s.current,
		SituationAfter:    after,
		RecordedSituation: pl.SituationCode,
		DelayedPenalty:    delayed,
	})
}

// collect gathers every penalty call sharing the timestamp of plays[i].
func (s *scanner) collect(plays []ir.Play, i int) []ir.Play {
	var group []ir.Play
	for j := i; j < len(plays); j++ {
		pl := plays[j]
		if pl.Period != plays[i].Period || pl.Seconds != plays[i].Seconds {
			break
		}
		if pl.Type == ir.PlayPenalty {
			group = append(group, pl)
			s.grouped[j] = true
		}
	}
	return group
}

func (s *scanner) assess(group []ir.Play, now int) error {
	var calls []Call
	for _, pl := range group {
		call, ok, err := s.call(pl)
		if err != nil {
			return err
		}
		if ok {
			calls = append(calls, call)
		}
	}

	res := Resolve(calls)
	s.result.Cancelled = append(s.result.Cancelled, res.Cancelled...)
	for _, p := range res.Serve {
		s.ledger.Add(p, now)
		s.log.Debug("penalty assessed",
			"event_id", p.EventID,
			"side", p.Side,
			"player_id", p.PlayerID,
			"severity", p.Severity,
			"duration", p.Duration,
			"state", p.State.Name(),
			"rule", res.Rule)
	}
	return nil
}

// call validates one penalty play and converts it to a Call. ok is false for
// calls that never enter the ledger.
func (s *scanner) call(pl ir.Play) (c Call, ok bool, err error) {
	record := fmt.Sprintf("event %d", pl.EventID)
	d := pl.Details
	if d == nil {
		return Call{}, false, ir.Malformed(document, record, "penalty has no details")
	}
	side, err := s.resolveTeam(d.EventOwnerTeamID, record)
	if err != nil {
		return Call{}, false, err
	}
	for _, id := range []ir.PlayerID{d.CommittedByPlayerID, d.ServedByPlayerID, d.DrawnByPlayerID} {
		if err := s.resolvePlayer(id, record); err != nil {
			return Call{}, false, err
		}
	}
	sev, ledgered, err := SeverityFor(d.TypeCode)
	if err != nil {
		return Call{}, false, ir.Malformed(document, record, "%v", err)
	}
	if !ledgered {
		return Call{}, false, nil
	}

	player := d.CommittedByPlayerID
	if player == ir.NoPlayer {
		player = d.ServedByPlayerID
	}
	duration := 0
	if d.DurationMinutes != nil {
		duration = *d.DurationMinutes * 60
	} else {
		s.log.Warn("penalty without duration treated as expired", "event_id", pl.EventID)
	}
	return Call{
		EventID:  pl.EventID,
		Side:     side,
		TeamID:   d.EventOwnerTeamID,
		PlayerID: player,
		TypeCode: d.TypeCode,
		DescKey:  d.DescKey,
		Severity: sev,
		Duration: duration,
	}, true, nil
}

func (s *scanner) goal(pl ir.Play, now int) error {
	record := fmt.Sprintf("event %d", pl.EventID)
	if pl.Details == nil {
		return ir.Malformed(document, record, "goal has no details")
	}
	scorer, err := s.resolveTeam(pl.Details.EventOwnerTeamID, record)
	if err != nil {
		return err
	}
	if err := s.resolvePlayer(pl.Details.ScoringPlayerID, record); err != nil {
		return err
	}

	tr, ok := s.ledger.ReleaseOnGoal(scorer, now)
	switch {
	case !ok:
	case tr.Shortened:
		s.log.Debug("goal ended one unit of a multi-unit minor",
			"event_id", tr.Penalty.EventID, "side", tr.Penalty.Side)
	default:
		s.logTransition(tr)
	}
	return nil
}

func (s *scanner) resolveTeam(team ir.TeamID, record string) (ir.Side, error) {
	side, ok := s.cfg.Roster.SideOf(team)
	if !ok {
		return "", ir.Unresolved(document, record, "team %d is not playing in this game", team)
	}
	return side, nil
}

// resolvePlayer checks one roster reference. Penalty and goal details are the
// only plays whose ir.PlayDetails carry player ids; a new player field there
// must be resolved here too.
func (s *scanner) resolvePlayer(id ir.PlayerID, record string) error {
	if id == ir.NoPlayer {
		return nil
	}
	if _, ok := s.cfg.Roster.Player(id); !ok {
		return ir.Unresolved(document, record, "player %d is not on either roster", id)
	}
	return nil
}

// buildCounts turns strength windows into per-elapsed-second penalty counts.
func buildCounts(windows []window) map[ir.Side][]int {
	size := 0
	for _, w := range windows {
		size = max(size, w.end+2)
	}
	counts := map[ir.Side][]int{}
	for _, side := range ir.Sides {
		diff := make([]int, size)
		for _, w := range windows {
			if w.side != side {
				continue
			}
			diff[w.start+1]++
			diff[w.end+1]--
		}
		running := 0
		for e := range diff {
			running += diff[e]
			diff[e] = running
		}
		counts[side] = diff
	}
	return counts
}
