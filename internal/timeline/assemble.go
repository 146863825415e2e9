// Package timeline merges occupancy and the situation engine into the
// per-second timeline, and serializes it.
//
// The Timeline value is the one canonical in-memory structure. The JSON
// document and the flat CSV table are produced from it by independent
// serializers; neither is derived from the other.
package timeline

import (
	"fmt"

	"github.com/roach88/icetime/internal/goalie"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/shifts"
	"github.com/roach88/icetime/internal/situation"
	"github.com/roach88/icetime/internal/timemodel"
)

// Input collects the products of the earlier stages for one game.
type Input struct {
	Info       ir.GameInfo
	Geometry   timemodel.Geometry
	LastPeriod int
	Away       *shifts.Occupancy
	Home       *shifts.Occupancy
	Situation  *situation.Result
	Goalies    []goalie.Assignment
}

// Diagnostics are non-fatal observations made while assembling.
type Diagnostics struct {
	// AwayCountMismatches and HomeCountMismatches count seconds where the
	// number of players in the shift data differs from the code's skater digit.
	AwayCountMismatches int                   `json:"awayCountMismatches"`
	HomeCountMismatches int                   `json:"homeCountMismatches"`
	GoalieConflicts     []shifts.Conflict     `json:"goalieConflicts"`
	CancelledPenalties  []situation.Cancelled `json:"cancelledPenalties"`
}

// Timeline is the full reconstruction of one game.
type Timeline struct {
	Info        ir.GameInfo
	NumPeriods  int
	Entries     []ir.TimelineEntry
	Goaltenders []goalie.Assignment
	Penalties   []situation.Record
	Events      []ir.EventLogEntry
	Diagnostics Diagnostics

	// Verified is set once reconciliation passes.
	Verified bool

	// Digest is the content digest of Entries.
	Digest string

	// EventsDigest is the content digest of Events.
	EventsDigest string
}

// Assemble builds one entry per game second of every played period.
// A recorded penalty-shot code overrides the derived code for its second.
func Assemble(in Input) (*Timeline, error) {
	geom := in.Geometry
	periods := geom.Periods(in.LastPeriod)
	total := geom.TotalGameSeconds(in.LastPeriod)
	if in.Away.Len() != total || in.Home.Len() != total {
		return nil, fmt.Errorf("occupancy covers %d/%d seconds, timeline needs %d",
			in.Away.Len(), in.Home.Len(), total)
	}
	tl := &Timeline{
		Info:        in.Info,
		NumPeriods:  len(periods),
		Entries:     make([]ir.TimelineEntry, 0, total),
		Goaltenders: in.Goalies,
		Events:      in.Situation.Log,
		Diagnostics: Diagnostics{
			GoalieConflicts:    append(append([]shifts.Conflict{}, in.Away.Conflicts()...), in.Home.Conflicts()...),
			CancelledPenalties: append([]situation.Cancelled{}, in.Situation.Cancelled...),
		},
	}
	for _, p := range in.Situation.Penalties {
		tl.Penalties = append(tl.Penalties, p.Record())
	}

	for _, p := range periods {
		for s := 0; s <= geom.PeriodLength(p); s++ {
			away, home := in.Away.At(p, s), in.Home.At(p, s)
			code := in.Situation.CodeAt(p, s, away.HasGoaltender(), home.HasGoaltender())

			if !code.IsPenaltyShot() {
				if len(away.Skaters) != code.AwaySkaters() {
					tl.Diagnostics.AwayCountMismatches++
				}
				if len(home.Skaters) != code.HomeSkaters() {
					tl.Diagnostics.HomeCountMismatches++
				}
			}

			tl.Entries = append(tl.Entries, ir.TimelineEntry{
				Period:            p,
				SecondsIntoPeriod: s,
				GameSecond:        geom.GameSecond(p, s),
				Situation:         code,
				Strength:          code.Strength(),
				Home:              home,
				Away:              away,
			})
		}
	}

	digest, err := ir.TimelineDigest(tl.Entries)
	if err != nil {
		return nil, fmt.Errorf("digest timeline: %w", err)
	}
	tl.Digest = digest

	if tl.EventsDigest, err = ir.EventLogDigest(tl.Events); err != nil {
		return nil, fmt.Errorf("digest event log: %w", err)
	}
	return tl, nil
}
