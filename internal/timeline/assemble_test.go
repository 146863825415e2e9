package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/icetime/internal/goalie"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/shifts"
	"github.com/roach88/icetime/internal/situation"
	"github.com/roach88/icetime/internal/timemodel"
)

const (
	homeTeam ir.TeamID = 10
	awayTeam ir.TeamID = 20
)

// onePeriodGame builds a single regular-season period: both goaltenders
// play the whole period, two skaters each play the whole period, and the
// home side takes a minor at 100.
func onePeriodGame(t *testing.T, extra ...ir.Play) Input {
	t.Helper()
	geom := timemodel.ForGame(false)

	roster := ir.NewRoster(ir.Team{ID: homeTeam, Abbrev: "HOM"}, ir.Team{ID: awayTeam, Abbrev: "AWY"})
	var home, away []ir.ShiftInterval
	for _, id := range []ir.PlayerID{1, 8, 9} {
		roster.Add(ir.Player{ID: id, Side: ir.SideHome, TeamID: homeTeam})
		home = append(home, ir.ShiftInterval{PlayerID: id, Side: ir.SideHome, Period: 1, Start: 0, End: 1200, IsGoaltenderCandidate: id == 1})
	}
	for _, id := range []ir.PlayerID{2, 18, 19} {
		roster.Add(ir.Player{ID: id, Side: ir.SideAway, TeamID: awayTeam})
		away = append(away, ir.ShiftInterval{PlayerID: id, Side: ir.SideAway, Period: 1, Start: 0, End: 1200, IsGoaltenderCandidate: id == 2})
	}

	homeG := goalie.Identify(ir.SideHome, home, []int{1})
	awayG := goalie.Identify(ir.SideAway, away, []int{1})
	homeOcc := shifts.Normalize(geom, 1, ir.SideHome, home, homeG)
	awayOcc := shifts.Normalize(geom, 1, ir.SideAway, away, awayG)

	minutes := 2
	plays := append([]ir.Play{
		{EventID: 1, Type: ir.PlayPeriodStart, Period: 1, TimeInPeriod: "00:00", TimeRemaining: "20:00"},
		{EventID: 2, Type: ir.PlayPenalty, Period: 1, Seconds: 100, TimeInPeriod: "01:40", TimeRemaining: "18:20",
			Details: &ir.PlayDetails{EventOwnerTeamID: homeTeam, CommittedByPlayerID: 8, TypeCode: "MIN", DurationMinutes: &minutes}},
		{EventID: 3, Type: ir.PlayFaceoff, Period: 1, Seconds: 100, TimeInPeriod: "01:40", TimeRemaining: "18:20"},
	}, extra...)
	plays = append(plays, ir.Play{EventID: 99, Type: ir.PlayPeriodEnd, Period: 1, Seconds: 1200, TimeInPeriod: "20:00", TimeRemaining: "00:00"})

	lookup := func(side ir.Side, p, s int) bool {
		if side == ir.SideHome {
			return homeOcc.GoaltenderIn(p, s)
		}
		return awayOcc.GoaltenderIn(p, s)
	}
	sit, err := situation.Scan(plays, situation.Config{Geometry: geom, Roster: roster, GoalieIn: lookup})
	require.NoError(t, err)

	return Input{
		Info:       ir.GameInfo{GameID: 2023020001, Season: "20232024", GameDate: "2023-10-10", GameType: 2, Home: roster.Home, Away: roster.Away},
		Geometry:   geom,
		LastPeriod: 1,
		Away:       awayOcc,
		Home:       homeOcc,
		Situation:  sit,
		Goalies:    []goalie.Assignment{awayG, homeG},
	}
}

func TestAssembleOneEntryPerSecond(t *testing.T) {
	tl, err := Assemble(onePeriodGame(t))
	require.NoError(t, err)

	require.Len(t, tl.Entries, 1201)
	assert.Equal(t, 1, tl.NumPeriods)
	for i, e := range tl.Entries {
		require.Equal(t, i, e.GameSecond)
		require.Equal(t, i, e.SecondsIntoPeriod)
	}
	assert.Len(t, tl.Digest, 64)
	assert.Len(t, tl.EventsDigest, 64)
	assert.NotEqual(t, tl.Digest, tl.EventsDigest)
}

func TestAssembleEndToEndPenalty(t *testing.T) {
	tl, err := Assemble(onePeriodGame(t))
	require.NoError(t, err)

	assert.Equal(t, 5, tl.Entries[100].Situation.HomeSkaters())
	for s := 101; s <= 220; s++ {
		require.Equal(t, 4, tl.Entries[s].Situation.HomeSkaters(), "second %d", s)
		require.Equal(t, "5v4", tl.Entries[s].Strength)
	}
	assert.Equal(t, 5, tl.Entries[221].Situation.HomeSkaters())

	var expired []ir.EventLogEntry
	for _, e := range tl.Events {
		if e.EventType == ir.PlayPenaltyExpired {
			expired = append(expired, e)
		}
	}
	require.Len(t, expired, 1)
	assert.Equal(t, 220, expired[0].ElapsedSeconds)
	require.Len(t, tl.Penalties, 1)
	assert.Equal(t, "expired", tl.Penalties[0].State)
}

func TestAssemblePenaltyShotOverride(t *testing.T) {
	shot := ir.Play{EventID: 50, Type: ir.PlayShotOnGoal, Period: 1, Seconds: 600, TimeInPeriod: "10:00", SituationCode: ir.PenaltyShotHome}
	tl, err := Assemble(onePeriodGame(t, shot))
	require.NoError(t, err)

	assert.Equal(t, ir.PenaltyShotHome, tl.Entries[600].Situation)
	assert.Equal(t, ir.StrengthNotApplicable, tl.Entries[600].Strength)
	assert.Equal(t, ir.SituationCode("1551"), tl.Entries[601].Situation, "override applies to its second only")
}

func TestAssembleCountsShiftCodeDisagreement(t *testing.T) {
	tl, err := Assemble(onePeriodGame(t))
	require.NoError(t, err)

	// Two skaters a side never match a five-skater code.
	assert.Equal(t, 1201, tl.Diagnostics.AwayCountMismatches)
	assert.Equal(t, 1201, tl.Diagnostics.HomeCountMismatches)
}

func TestAssembleRejectsShortOccupancy(t *testing.T) {
	in := onePeriodGame(t)
	in.LastPeriod = 2
	_, err := Assemble(in)
	assert.ErrorContains(t, err, "occupancy covers 1201/1201 seconds")
}

func TestAssembleIsDeterministic(t *testing.T) {
	a, err := Assemble(onePeriodGame(t))
	require.NoError(t, err)
	b, err := Assemble(onePeriodGame(t))
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.EventsDigest, b.EventsDigest)
	ja, err := MarshalJSON(a)
	require.NoError(t, err)
	jb, err := MarshalJSON(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb, "re-runs must be byte-identical")
}
