// Package timemodel converts between period-relative clock readings and the
// two absolute clocks used during reconstruction.
//
// Elapsed seconds follow the game clock: the end of one period and the start
// of the next share a single value, so penalty durations carry across
// intermission without special cases.
//
// Game seconds index the timeline. Every period contributes length+1 slots
// (secondsIntoPeriod 0 through length inclusive), which keeps the mapping
// injective and order-preserving across period boundaries.
//
// All functions are pure and stateless.
package timemodel

import (
	"fmt"
	"strconv"
	"strings"
)

// Period lengths in seconds.
const (
	RegulationPeriodLength = 1200
	RegularSeasonOTLength  = 300
	PlayoffOTLength        = 1200
	RegulationPeriods      = 3

	// ShootoutPeriod is the regular-season period number of the shootout.
	ShootoutPeriod = 5
)

// Skater baselines.
const (
	FullStrengthSkaters = 5
	ThreeOnThreeSkaters = 3
)

// Period type labels carried in event logs.
const (
	PeriodTypeRegulation = "REG"
	PeriodTypeOvertime   = "OT"
	PeriodTypeShootout   = "SO"
)

// Geometry describes the period structure of one game.
type Geometry struct {
	Playoff bool
}

// ForGame returns the geometry for a regular-season or playoff game.
func ForGame(playoff bool) Geometry {
	return Geometry{Playoff: playoff}
}

// IsShootout reports whether period p is the regular-season shootout.
// Shootouts have no clock and no meaningful occupancy.
func (g Geometry) IsShootout(p int) bool {
	return !g.Playoff && p >= ShootoutPeriod
}

// PeriodLength returns the length of period p in seconds. The shootout, and
// any period number below 1, has length 0.
func (g Geometry) PeriodLength(p int) int {
	switch {
	case p < 1:
		return 0
	case p <= RegulationPeriods:
		return RegulationPeriodLength
	case g.Playoff:
		return PlayoffOTLength
	case p == RegulationPeriods+1:
		return RegularSeasonOTLength
	}
	return 0
}

// PeriodType returns the upstream period type label for p.
func (g Geometry) PeriodType(p int) string {
	switch {
	case p <= RegulationPeriods:
		return PeriodTypeRegulation
	case g.IsShootout(p):
		return PeriodTypeShootout
	}
	return PeriodTypeOvertime
}

// SkaterBaseline returns the full-strength skater count in period p.
// Regular-season overtime is played three-on-three.
func (g Geometry) SkaterBaseline(p int) int {
	if !g.Playoff && p == RegulationPeriods+1 {
		return ThreeOnThreeSkaters
	}
	return FullStrengthSkaters
}

// Contains reports whether (p, s) names a real instant of a played period.
func (g Geometry) Contains(p, s int) bool {
	if p < 1 || g.IsShootout(p) {
		return false
	}
	return s >= 0 && s <= g.PeriodLength(p)
}

// Elapsed converts (period, secondsIntoPeriod) to game-clock seconds.
func (g Geometry) Elapsed(p, s int) int {
	total := 0
	for q := 1; q < p; q++ {
		total += g.PeriodLength(q)
	}
	return total + s
}

// FromElapsed recovers (period, secondsIntoPeriod) from game-clock seconds.
// A boundary value resolves to the end of the earlier period. Values past the
// end of regular-season overtime stay in overtime.
func (g Geometry) FromElapsed(e int) (p, s int) {
	if e <= 0 {
		return 1, max(e, 0)
	}
	for p = 1; ; p++ {
		length := g.PeriodLength(p)
		if e <= length || (!g.Playoff && p == RegulationPeriods+1) {
			return p, e
		}
		e -= length
	}
}

// GameSecond converts (period, secondsIntoPeriod) to the timeline index.
func (g Geometry) GameSecond(p, s int) int {
	total := 0
	for q := 1; q < p; q++ {
		total += g.PeriodLength(q) + 1
	}
	return total + s
}

// FromGameSecond is the inverse of GameSecond.
func (g Geometry) FromGameSecond(gs int) (p, s int, err error) {
	if gs < 0 {
		return 0, 0, fmt.Errorf("game second %d is negative", gs)
	}
	for p = 1; ; p++ {
		if g.IsShootout(p) {
			return 0, 0, fmt.Errorf("game second %d is past the end of play", gs)
		}
		slots := g.PeriodLength(p) + 1
		if gs < slots {
			return p, gs, nil
		}
		gs -= slots
	}
}

// Periods lists the played periods 1..last, excluding the shootout.
func (g Geometry) Periods(last int) []int {
	out := make([]int, 0, last)
	for p := 1; p <= last; p++ {
		if g.IsShootout(p) {
			break
		}
		out = append(out, p)
	}
	return out
}

// TotalGameSeconds returns the timeline length for the given played periods.
func (g Geometry) TotalGameSeconds(last int) int {
	periods := g.Periods(last)
	if len(periods) == 0 {
		return 0
	}
	p := periods[len(periods)-1]
	return g.GameSecond(p, g.PeriodLength(p)) + 1
}

// ParseClock parses an "MM:SS" clock reading into seconds. Minutes are not
// bounded so that game totals such as "61:20" parse.
func ParseClock(raw string) (int, error) {
	mm, ss, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want MM:SS", raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("clock %q: bad minutes", raw)
	}
	s, err := strconv.Atoi(ss)
	if err != nil || s < 0 || s > 59 || len(ss) != 2 {
		return 0, fmt.Errorf("clock %q: bad seconds", raw)
	}
	return m*60 + s, nil
}

// FormatClock renders seconds as "MM:SS".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
