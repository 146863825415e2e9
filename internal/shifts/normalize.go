// Package shifts turns per-player shift intervals into per-second occupancy.
//
// Boundary policy:
//   - Second 0 of a period is filled only from shifts that start exactly at 0.
//   - Otherwise a shift [start, end] covers seconds start+1 through end, so
//     the handover second of an on-the-fly change belongs to the outgoing
//     shift alone.
//   - end is capped at the period length.
//
// Goaltender-tagged players are kept in a parallel slot and never counted as
// skaters.
package shifts

import (
	"slices"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

// GoalieTags tells the normalizer which players play goal.
// goalie.Assignment satisfies it.
type GoalieTags interface {
	IsGoaltender(id ir.PlayerID) bool
	GoalieFor(period int) (ir.PlayerID, bool)
}

// Conflict records a second where more than one tagged goaltender was on the
// ice for the same team.
type Conflict struct {
	Period            int           `json:"period"`
	SecondsIntoPeriod int           `json:"secondsIntoPeriod"`
	Candidates        []ir.PlayerID `json:"candidates"`
	Chosen            ir.PlayerID   `json:"chosen"`
}

// Occupancy is one team's per-second on-ice record, indexed by game second.
type Occupancy struct {
	Side ir.Side

	geom      timemodel.Geometry
	seconds   []ir.OnIceSecond
	conflicts []Conflict
}

// Normalize builds occupancy for one team over periods 1..lastPeriod.
// Shifts outside the played periods are ignored.
func Normalize(geom timemodel.Geometry, lastPeriod int, side ir.Side, shifts []ir.ShiftInterval, tags GoalieTags) *Occupancy {
	total := geom.TotalGameSeconds(lastPeriod)
	skaters := make([][]ir.PlayerID, total)
	goalies := make([][]ir.PlayerID, total)
	played := geom.Periods(lastPeriod)

	for _, sh := range shifts {
		if !slices.Contains(played, sh.Period) {
			continue
		}
		slots := skaters
		if tags.IsGoaltender(sh.PlayerID) {
			slots = goalies
		}

		end := min(sh.End, geom.PeriodLength(sh.Period))
		if sh.Start == 0 {
			gs := geom.GameSecond(sh.Period, 0)
			slots[gs] = append(slots[gs], sh.PlayerID)
		}
		for s := sh.Start + 1; s <= end; s++ {
			gs := geom.GameSecond(sh.Period, s)
			slots[gs] = append(slots[gs], sh.PlayerID)
		}
	}

	o := &Occupancy{Side: side, geom: geom, seconds: make([]ir.OnIceSecond, total)}
	for gs := range o.seconds {
		ids := skaters[gs]
		slices.Sort(ids)
		o.seconds[gs].Skaters = slices.Compact(ids)
		if o.seconds[gs].Skaters == nil {
			o.seconds[gs].Skaters = []ir.PlayerID{}
		}
		o.seconds[gs].Goaltender = o.resolveGoalie(gs, goalies[gs], tags)
	}
	return o
}

// resolveGoalie picks one goaltender for a second. The period's designated
// goaltender wins a conflict; otherwise the lowest ID does.
func (o *Occupancy) resolveGoalie(gs int, ids []ir.PlayerID, tags GoalieTags) ir.PlayerID {
	slices.Sort(ids)
	ids = slices.Compact(ids)
	switch len(ids) {
	case 0:
		return ir.NoPlayer
	case 1:
		return ids[0]
	}

	p, s, _ := o.geom.FromGameSecond(gs)
	chosen := ids[0]
	if designated, ok := tags.GoalieFor(p); ok && slices.Contains(ids, designated) {
		chosen = designated
	}
	o.conflicts = append(o.conflicts, Conflict{
		Period:            p,
		SecondsIntoPeriod: s,
		Candidates:        ids,
		Chosen:            chosen,
	})
	return chosen
}

// At returns occupancy for (period, secondsIntoPeriod).
func (o *Occupancy) At(p, s int) ir.OnIceSecond {
	return o.AtGameSecond(o.geom.GameSecond(p, s))
}

// AtGameSecond returns occupancy by timeline index. Indexes outside the
// normalized range are empty.
func (o *Occupancy) AtGameSecond(gs int) ir.OnIceSecond {
	if gs < 0 || gs >= len(o.seconds) {
		return ir.OnIceSecond{Skaters: []ir.PlayerID{}}
	}
	return o.seconds[gs]
}

// GoaltenderIn reports whether a goaltender was in net at (p, s).
func (o *Occupancy) GoaltenderIn(p, s int) bool {
	return o.At(p, s).HasGoaltender()
}

// Len returns the number of game seconds covered.
func (o *Occupancy) Len() int {
	return len(o.seconds)
}

// Conflicts returns the goaltender conflicts found while normalizing.
func (o *Occupancy) Conflicts() []Conflict {
	return o.conflicts
}
