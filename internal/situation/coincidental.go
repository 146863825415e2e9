package situation

import (
	"github.com/roach88/icetime/internal/ir"
)

// Rules applied when resolving penalties called at one stoppage.
const (
	RuleNone = ""
	// RuleServeBoth is NHL Rule 19.1: a single minor each way is served in
	// full, leaving the teams four-on-four.
	RuleServeBoth = "19.1"
	// RuleCancel is NHL Rule 19.5: equal numbers of majors, then minors,
	// cancel across teams.
	RuleCancel = "19.5"
)

// Call is one penalty call before coincidental resolution.
type Call struct {
	EventID  int64
	Side     ir.Side
	TeamID   ir.TeamID
	PlayerID ir.PlayerID
	TypeCode string
	DescKey  string
	Severity Severity
	Duration int
}

// Cancelled records a call removed by coincidental cancellation.
type Cancelled struct {
	EventID  int64       `json:"eventId"`
	Side     ir.Side     `json:"side"`
	PlayerID ir.PlayerID `json:"playerId"`
	Severity Severity    `json:"severity"`
	Rule     string      `json:"rule"`
}

// Resolution is the outcome of one timestamp's calls.
type Resolution struct {
	Rule      string
	Serve     []*Penalty
	Cancelled []Cancelled
}

// Resolve applies coincidental-penalty rules to calls sharing a timestamp,
// then merges calls on the same player into one entry with summed duration.
// Misconducts are never cancelled and merge separately from strength calls.
func Resolve(calls []Call) Resolution {
	var res Resolution
	cancelled := make([]bool, len(calls))

	index := func(side ir.Side, sev Severity) []int {
		var out []int
		for i, c := range calls {
			if c.Side == side && c.Severity == sev {
				out = append(out, i)
			}
		}
		return out
	}

	homeMinors, awayMinors := index(ir.SideHome, SeverityMinor), index(ir.SideAway, SeverityMinor)
	homeMajors, awayMajors := index(ir.SideHome, SeverityMajor), index(ir.SideAway, SeverityMajor)

	cancelPairs := func(home, away []int) {
		n := min(len(home), len(away))
		for _, i := range append(home[:n:n], away[:n]...) {
			cancelled[i] = true
			c := calls[i]
			res.Cancelled = append(res.Cancelled, Cancelled{
				EventID: c.EventID, Side: c.Side, PlayerID: c.PlayerID, Severity: c.Severity, Rule: RuleCancel,
			})
		}
		if n > 0 {
			res.Rule = RuleCancel
		}
	}

	if len(homeMinors) == 1 && len(awayMinors) == 1 && len(homeMajors) == 0 && len(awayMajors) == 0 {
		res.Rule = RuleServeBoth
	} else {
		cancelPairs(homeMajors, awayMajors)
		cancelPairs(homeMinors, awayMinors)
	}

	type mergeKey struct {
		side       ir.Side
		player     ir.PlayerID
		misconduct bool
	}
	merged := map[mergeKey]*Penalty{}
	for i, c := range calls {
		if cancelled[i] {
			continue
		}
		key := mergeKey{c.Side, c.PlayerID, c.Severity == SeverityMisconduct}
		if p, ok := merged[key]; ok && c.PlayerID != ir.NoPlayer {
			p.Duration += c.Duration
			if c.Severity == SeverityMajor {
				p.Severity = SeverityMajor
			}
			continue
		}
		p := &Penalty{
			EventID:  c.EventID,
			Side:     c.Side,
			TeamID:   c.TeamID,
			PlayerID: c.PlayerID,
			TypeCode: c.TypeCode,
			DescKey:  c.DescKey,
			Severity: c.Severity,
			Duration: c.Duration,
		}
		if c.PlayerID != ir.NoPlayer {
			merged[key] = p
		}
		res.Serve = append(res.Serve, p)
	}
	return res
}
