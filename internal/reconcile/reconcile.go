// Package reconcile checks a finished timeline against the per-player time
// on ice reported with the shift charts.
//
// Every second a player occupies in the timeline, as skater or goaltender,
// counts toward their total. Period-start snapshot seconds are instants and
// are skipped, so a period of length L contributes at most L seconds. Any
// non-zero difference fails the game.
package reconcile

import (
	"fmt"

	"github.com/roach88/icetime/internal/ir"
)

// MaxSkaters is the most skaters a team may legally have on the ice.
const MaxSkaters = 6

// Mismatch is one player whose recounted time disagrees with the report.
type Mismatch struct {
	Side     ir.Side     `json:"side"`
	PlayerID ir.PlayerID `json:"playerId"`
	Number   int         `json:"number"`
	Name     string      `json:"name"`
	Expected int         `json:"expected"`
	Actual   int         `json:"actual"`
	Diff     int         `json:"diff"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d %s (%d): calculated %ds, expected %ds (diff: %+ds)",
		m.Number, m.Name, m.PlayerID, m.Actual, m.Expected, m.Diff)
}

// Warning flags a second with an implausible number of skaters. Warnings do
// not fail a game.
type Warning struct {
	Side              ir.Side `json:"side"`
	Period            int     `json:"period"`
	SecondsIntoPeriod int     `json:"secondsIntoPeriod"`
	GameSecond        int     `json:"secondsElapsedGame"`
	Skaters           int     `json:"skaters"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s has %d skaters at period %d second %d", w.Side, w.Skaters, w.Period, w.SecondsIntoPeriod)
}

// Verdict is the outcome of reconciling one game.
type Verdict struct {
	Passed         bool       `json:"passed"`
	CheckedPlayers int        `json:"checkedPlayers"`
	Mismatches     []Mismatch `json:"mismatches"`
	Warnings       []Warning  `json:"warnings"`
}

// Validate recounts per-player seconds in entries and compares them with the
// reported totals on roster. Players without a reported total are skipped.
func Validate(entries []ir.TimelineEntry, roster *ir.Roster) Verdict {
	counted := make(map[ir.PlayerID]int)
	v := Verdict{Mismatches: []Mismatch{}, Warnings: []Warning{}}

	for _, e := range entries {
		for _, side := range ir.Sides {
			o := e.Side(side)
			if len(o.Skaters) > MaxSkaters {
				v.Warnings = append(v.Warnings, Warning{
					Side:              side,
					Period:            e.Period,
					SecondsIntoPeriod: e.SecondsIntoPeriod,
					GameSecond:        e.GameSecond,
					Skaters:           len(o.Skaters),
				})
			}
			if e.SecondsIntoPeriod == 0 {
				continue
			}
			for _, id := range o.Skaters {
				counted[id]++
			}
			if o.HasGoaltender() {
				counted[o.Goaltender]++
			}
		}
	}

	for _, p := range roster.InOrder() {
		if !p.HasReportedTOI {
			continue
		}
		v.CheckedPlayers++
		if actual := counted[p.ID]; actual != p.ReportedTOI {
			v.Mismatches = append(v.Mismatches, Mismatch{
				Side:     p.Side,
				PlayerID: p.ID,
				Number:   p.Number,
				Name:     p.Name,
				Expected: p.ReportedTOI,
				Actual:   actual,
				Diff:     actual - p.ReportedTOI,
			})
		}
	}
	v.Passed = len(v.Mismatches) == 0
	return v
}

// Summary renders the mismatches one per line.
func (v Verdict) Summary() string {
	if v.Passed {
		return fmt.Sprintf("%d players reconciled", v.CheckedPlayers)
	}
	out := fmt.Sprintf("%d of %d players disagree with reported time on ice", len(v.Mismatches), v.CheckedPlayers)
	for _, m := range v.Mismatches {
		out += "\n  " + m.String()
	}
	return out
}
