// Package goalie infers which player was in net for a team, period by period,
// from shift data alone.
//
// No single upstream field is trusted to name the goaltender. The starter is
// the period-one opener with the largest aggregate ice time; later periods
// switch goaltender only when a different player opens the period with a long
// unbroken shift. Roster goaltender hints act as a cross-check. The result
// carries a confidence flag so callers can see when the heuristic had to
// break a tie or overrule itself.
package goalie

import (
	"fmt"
	"slices"

	"github.com/roach88/icetime/internal/ir"
)

// LongShiftThreshold is the minimum length in seconds of a period-opening
// shift that marks a goaltender change.
const LongShiftThreshold = 120

// Confidence grades a goaltender assignment.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// PeriodGoalie records the goaltender in net at the start of a period.
type PeriodGoalie struct {
	Period   int         `json:"period"`
	PlayerID ir.PlayerID `json:"playerId"`
}

// Assignment is the confidence-annotated result for one team.
type Assignment struct {
	Side       ir.Side        `json:"side"`
	Starter    ir.PlayerID    `json:"starter"`
	ByPeriod   []PeriodGoalie `json:"byPeriod"`
	Tagged     []ir.PlayerID  `json:"tagged"`
	Confidence Confidence     `json:"confidence"`
	Notes      []string       `json:"notes,omitempty"`
}

// IsGoaltender reports whether id is tagged as a goaltender for occupancy.
func (a Assignment) IsGoaltender(id ir.PlayerID) bool {
	_, found := slices.BinarySearch(a.Tagged, id)
	return found
}

// GoalieFor returns the designated goaltender for period p.
func (a Assignment) GoalieFor(p int) (ir.PlayerID, bool) {
	for _, pg := range a.ByPeriod {
		if pg.Period == p {
			return pg.PlayerID, pg.PlayerID != ir.NoPlayer
		}
	}
	return ir.NoPlayer, false
}

// LowConfidence reports whether any decision needed a tie-break or override.
func (a Assignment) LowConfidence() bool {
	return a.Confidence == ConfidenceLow
}

// profile aggregates one player's shifts in roster order.
type profile struct {
	id        ir.PlayerID
	order     int
	candidate bool
	// total is the summed period-one duration.
	total int
	// opening maps period to the longest shift starting at second 0.
	opening map[int]int
}

// Identify runs the goaltender heuristic over one team's shifts.
// Roster order is the order of first appearance in shifts.
func Identify(side ir.Side, shifts []ir.ShiftInterval, periods []int) Assignment {
	a := Assignment{Side: side, Confidence: ConfidenceHigh}
	profiles := buildProfiles(shifts)

	hasCandidates := false
	for _, p := range profiles {
		if p.candidate {
			hasCandidates = true
			break
		}
	}

	a.Starter = a.pickStarter(profiles, hasCandidates)
	a.walkPeriods(profiles, periods, hasCandidates)

	tagged := map[ir.PlayerID]bool{}
	for _, pg := range a.ByPeriod {
		if pg.PlayerID != ir.NoPlayer {
			tagged[pg.PlayerID] = true
		}
	}
	for _, p := range profiles {
		if p.candidate {
			tagged[p.id] = true
		}
	}
	for id := range tagged {
		a.Tagged = append(a.Tagged, id)
	}
	slices.Sort(a.Tagged)
	return a
}

func buildProfiles(shifts []ir.ShiftInterval) []*profile {
	byID := map[ir.PlayerID]*profile{}
	var out []*profile
	for _, s := range shifts {
		p, ok := byID[s.PlayerID]
		if !ok {
			p = &profile{id: s.PlayerID, order: len(out), opening: map[int]int{}}
			byID[s.PlayerID] = p
			out = append(out, p)
		}
		if s.IsGoaltenderCandidate {
			p.candidate = true
		}
		if s.Period == 1 {
			p.total += s.Duration()
		}
		if s.Start == 0 && s.Duration() > p.opening[s.Period] {
			p.opening[s.Period] = s.Duration()
		}
	}
	return out
}

// leader returns the profile with the largest score, breaking ties by roster
// order. tied reports whether the runner-up matched the leader.
func leader(ps []*profile, score func(*profile) int) (best *profile, tied bool) {
	for _, p := range ps {
		switch {
		case best == nil || score(p) > score(best):
			best, tied = p, false
		case score(p) == score(best):
			tied = true
		}
	}
	return best, tied
}

func (a *Assignment) lower(format string, args ...any) {
	a.Confidence = ConfidenceLow
	a.Notes = append(a.Notes, fmt.Sprintf(format, args...))
}

func (a *Assignment) pickStarter(profiles []*profile, hasCandidates bool) ir.PlayerID {
	byTotal := func(p *profile) int { return p.total }

	var openers []*profile
	for _, p := range profiles {
		if _, ok := p.opening[1]; ok {
			openers = append(openers, p)
		}
	}

	best, tied := leader(openers, byTotal)
	if best != nil && tied {
		a.lower("starter %d tied on period-1 ice time; kept roster order", best.id)
	}

	if hasCandidates && (best == nil || !best.candidate) {
		var pool []*profile
		for _, p := range openers {
			if p.candidate {
				pool = append(pool, p)
			}
		}
		if len(pool) == 0 {
			for _, p := range profiles {
				if p.candidate {
					pool = append(pool, p)
				}
			}
		}
		heuristic := best
		best, _ = leader(pool, byTotal)
		if heuristic != nil {
			a.lower("duration leader %d is not a roster goaltender; using %d", heuristic.id, best.id)
		} else {
			a.lower("no period-1 opener; using roster goaltender %d", best.id)
		}
	}

	if best == nil {
		a.lower("no starting goaltender found")
		return ir.NoPlayer
	}
	return best.id
}

func (a *Assignment) walkPeriods(profiles []*profile, periods []int, hasCandidates bool) {
	current := a.Starter
	for i, period := range periods {
		if i > 0 {
			current = a.periodChange(profiles, period, current, hasCandidates)
		}
		a.ByPeriod = append(a.ByPeriod, PeriodGoalie{Period: period, PlayerID: current})
	}
}

func (a *Assignment) periodChange(profiles []*profile, period int, current ir.PlayerID, hasCandidates bool) ir.PlayerID {
	var qualifiers []*profile
	for _, p := range profiles {
		if hasCandidates && !p.candidate {
			continue
		}
		if p.opening[period] > LongShiftThreshold {
			if p.id == current {
				return current
			}
			qualifiers = append(qualifiers, p)
		}
	}
	if len(qualifiers) == 0 {
		return current
	}

	best, tied := leader(qualifiers, func(p *profile) int { return p.opening[period] })
	if tied {
		a.lower("period %d goaltender change tied; kept roster order %d", period, best.id)
	}
	return best.id
}
