package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

const (
	homeTeam ir.TeamID = 10
	awayTeam ir.TeamID = 20
)

func testRoster() *ir.Roster {
	r := ir.NewRoster(ir.Team{ID: homeTeam, Abbrev: "HOM"}, ir.Team{ID: awayTeam, Abbrev: "AWY"})
	for _, id := range []ir.PlayerID{8, 9, 11, 30} {
		r.Add(ir.Player{ID: id, Side: ir.SideHome, TeamID: homeTeam})
	}
	for _, id := range []ir.PlayerID{18, 19, 21, 40} {
		r.Add(ir.Player{ID: id, Side: ir.SideAway, TeamID: awayTeam})
	}
	return r
}

func ev(id int64, typ string, period, sec int) ir.Play {
	return ir.Play{
		EventID:       id,
		Type:          typ,
		Period:        period,
		Seconds:       sec,
		TimeInPeriod:  timemodel.FormatClock(sec),
		TimeRemaining: timemodel.FormatClock(1200 - sec),
	}
}

func pen(id int64, period, sec int, team ir.TeamID, player ir.PlayerID, code string, minutes int) ir.Play {
	p := ev(id, ir.PlayPenalty, period, sec)
	p.Details = &ir.PlayDetails{EventOwnerTeamID: team, CommittedByPlayerID: player, TypeCode: code, DurationMinutes: &minutes}
	return p
}

func goal(id int64, period, sec int, team ir.TeamID, scorer ir.PlayerID) ir.Play {
	p := ev(id, ir.PlayGoal, period, sec)
	p.Details = &ir.PlayDetails{EventOwnerTeamID: team, ScoringPlayerID: scorer}
	return p
}

func scan(t *testing.T, playoff bool, plays ...ir.Play) *Result {
	t.Helper()
	res, err := Scan(plays, Config{Geometry: timemodel.ForGame(playoff), Roster: testRoster()})
	require.NoError(t, err)
	return res
}

func entriesOfType(log []ir.EventLogEntry, typ string) []ir.EventLogEntry {
	var out []ir.EventLogEntry
	for _, e := range log {
		if e.EventType == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestScanSingleMinorEndToEnd(t *testing.T) {
	res := scan(t, false,
		ev(1, ir.PlayPeriodStart, 1, 0),
		ev(2, ir.PlayFaceoff, 1, 0),
		pen(3, 1, 100, homeTeam, 8, TypeMinor, 2),
		ev(4, ir.PlayFaceoff, 1, 100),
		ev(5, ir.PlayPeriodEnd, 1, 1200),
	)

	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 100, true, true))
	for s := 101; s <= 220; s++ {
		require.Equal(t, ir.SituationCode("1541"), res.CodeAt(1, s, true, true), "second %d", s)
	}
	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 221, true, true))

	expired := entriesOfType(res.Log, ir.PlayPenaltyExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, 220, expired[0].ElapsedSeconds)
	assert.Equal(t, "03:40", expired[0].TimeInPeriod)
	assert.Equal(t, ir.SituationCode("1541"), expired[0].SituationBefore)
	assert.Equal(t, ir.SituationCode("1551"), expired[0].SituationAfter)
	assert.True(t, expired[0].Synthetic)
	assert.Equal(t, string(EndNatural), expired[0].Expiration.Reason)
	assert.Equal(t, int64(3), expired[0].Expiration.OriginalEventID)
}

func TestScanCoincidentalMinorsFourOnFour(t *testing.T) {
	res := scan(t, false,
		pen(1, 1, 300, homeTeam, 8, TypeMinor, 2),
		pen(2, 1, 300, awayTeam, 18, TypeMinor, 2),
		ev(3, ir.PlayFaceoff, 1, 300),
	)

	assert.Equal(t, ir.SituationCode("1441"), res.CodeAt(1, 301, true, true))
	faceoffs := entriesOfType(res.Log, ir.PlayFaceoff)
	require.Len(t, faceoffs, 1)
	assert.Equal(t, ir.SituationCode("1441"), faceoffs[0].SituationAfter, "no power play")
}

func TestScanCoincidentalMajorsCancel(t *testing.T) {
	res := scan(t, false,
		pen(1, 1, 300, homeTeam, 8, TypeMajor, 5),
		pen(2, 1, 300, awayTeam, 18, TypeMajor, 5),
		ev(3, ir.PlayFaceoff, 1, 300),
	)

	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 400, true, true))
	assert.Len(t, res.Cancelled, 2)
	assert.Empty(t, res.Penalties)
}

func TestScanEarlyReleaseOnGoal(t *testing.T) {
	res := scan(t, false,
		pen(1, 1, 100, awayTeam, 18, TypeMinor, 2),
		ev(2, ir.PlayFaceoff, 1, 100),
		goal(3, 1, 150, homeTeam, 8),
		ev(4, ir.PlayFaceoff, 1, 150),
		ev(5, ir.PlayPeriodEnd, 1, 1200),
	)

	assert.Equal(t, ir.SituationCode("1451"), res.CodeAt(1, 150, true, true))
	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 151, true, true), "power play ends at the goal")

	expired := entriesOfType(res.Log, ir.PlayPenaltyExpired)
	require.Len(t, expired, 1, "the original expiry is never logged")
	assert.Equal(t, 150, expired[0].ElapsedSeconds)
	assert.Equal(t, string(EndGoal), expired[0].Expiration.Reason)
}

func TestScanGoalDuringFourOnFour(t *testing.T) {
	res := scan(t, false,
		pen(1, 1, 100, homeTeam, 8, TypeMinor, 2),
		ev(2, ir.PlayFaceoff, 1, 100),
		pen(3, 1, 110, awayTeam, 18, TypeMinor, 2),
		ev(4, ir.PlayFaceoff, 1, 110),
		goal(5, 1, 150, awayTeam, 19),
		ev(6, ir.PlayFaceoff, 1, 150),
		ev(7, ir.PlayPeriodEnd, 1, 1200),
	)

	assert.Equal(t, ir.SituationCode("1441"), res.CodeAt(1, 150, true, true))
	assert.Equal(t, ir.SituationCode("1451"), res.CodeAt(1, 151, true, true), "home minor released by the away goal")
	assert.Equal(t, ir.SituationCode("1451"), res.CodeAt(1, 230, true, true))
	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 231, true, true))

	expired := entriesOfType(res.Log, ir.PlayPenaltyExpired)
	require.Len(t, expired, 2)
	assert.Equal(t, 150, expired[0].ElapsedSeconds)
	assert.Equal(t, string(EndGoal), expired[0].Expiration.Reason)
	assert.Equal(t, 230, expired[1].ElapsedSeconds)
}

func TestScanDelayedPenaltySequence(t *testing.T) {
	res := scan(t, false,
		ev(1, ir.PlayFaceoff, 1, 1100),
		ev(2, ir.PlayDelayedPenalty, 1, 1190),
		ev(3, ir.PlayShotOnGoal, 1, 1195),
		ev(4, ir.PlayPeriodEnd, 1, 1200),
		pen(5, 1, 1200, homeTeam, 9, TypeMinor, 2),
		ev(6, ir.PlayPeriodStart, 2, 0),
		ev(7, ir.PlayFaceoff, 2, 0),
		ev(8, ir.PlayPeriodEnd, 2, 1200),
	)

	var types []string
	for _, e := range res.Log {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		ir.PlayFaceoff, ir.PlayDelayedPenalty, ir.PlayFaceoff,
		ir.PlayPenaltyExpired, ir.PlayPeriodEnd,
	}, types)
	assert.True(t, res.Log[1].DelayedPenalty)
	assert.Equal(t, ir.SituationCode("1541"), res.Log[2].SituationAfter, "penalty was ledgered during the sequence")
	assert.Equal(t, 2, res.Log[3].Period)
	assert.Equal(t, 120, res.Log[3].SecondsIntoPeriod)
}

func TestScanPenaltyAcrossIntermission(t *testing.T) {
	res := scan(t, false,
		pen(1, 1, 1150, homeTeam, 8, TypeMinor, 2),
		ev(2, ir.PlayPeriodEnd, 1, 1200),
		ev(3, ir.PlayPeriodStart, 2, 0),
		ev(4, ir.PlayFaceoff, 2, 100),
	)

	assert.Equal(t, ir.SituationCode("1541"), res.CodeAt(2, 0, true, true))
	assert.Equal(t, ir.SituationCode("1541"), res.CodeAt(2, 70, true, true))
	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(2, 71, true, true))
}

func TestScanMissingDuration(t *testing.T) {
	p := pen(1, 1, 100, homeTeam, 8, TypeMinor, 2)
	p.Details.DurationMinutes = nil
	res := scan(t, false, p, ev(2, ir.PlayFaceoff, 1, 100))

	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(1, 150, true, true))
	require.Len(t, res.Penalties, 1)
	e, ok := res.Penalties[0].Expired()
	require.True(t, ok)
	assert.Equal(t, EndMissingDuration, e.Reason)
}

func TestScanPenaltyShotSentinel(t *testing.T) {
	shot := ev(1, ir.PlayShotOnGoal, 2, 300)
	shot.SituationCode = ir.PenaltyShotAway
	end := ev(2, ir.PlayPeriodEnd, 2, 1200)
	end.SituationCode = ir.PenaltyShotHome

	res := scan(t, true, shot, end)
	assert.Equal(t, ir.PenaltyShotAway, res.CodeAt(2, 300, true, true))
	assert.Equal(t, ir.SituationCode("1551"), res.CodeAt(2, 1200, true, true), "period-end codes are ignored")
}

func TestScanSkipsShootout(t *testing.T) {
	res := scan(t, false,
		ev(1, ir.PlayPeriodEnd, 4, 300),
		goal(2, 5, 0, 999, 12345),
	)
	assert.Len(t, res.Log, 1)
}

func TestScanGoaliePulledCode(t *testing.T) {
	cfg := Config{
		Geometry: timemodel.ForGame(false),
		Roster:   testRoster(),
		GoalieIn: func(side ir.Side, p, s int) bool { return side == ir.SideAway || s < 1140 },
	}
	res, err := Scan([]ir.Play{ev(1, ir.PlayFaceoff, 3, 1150)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, ir.SituationCode("1560"), res.Log[0].SituationAfter)
}

func TestScanFailures(t *testing.T) {
	bogusDetails := ev(2, ir.PlayPenalty, 1, 10)
	unknownDrawnBy := pen(8, 1, 10, homeTeam, 8, TypeMinor, 2)
	unknownDrawnBy.Details.DrawnByPlayerID = 12345
	unknownServedBy := pen(9, 1, 10, homeTeam, 8, TypeBenchMinor, 2)
	unknownServedBy.Details.ServedByPlayerID = 12345

	tests := []struct {
		name string
		play ir.Play
		kind ir.InputErrorKind
	}{
		{"unknown event type", ev(1, "video-review", 1, 10), ir.ErrKindMalformed},
		{"penalty without details", bogusDetails, ir.ErrKindMalformed},
		{"unknown penalty code", pen(3, 1, 10, homeTeam, 8, "XXX", 2), ir.ErrKindMalformed},
		{"unknown team", pen(4, 1, 10, 999, 8, TypeMinor, 2), ir.ErrKindUnresolved},
		{"unknown player", pen(5, 1, 10, homeTeam, 12345, TypeMinor, 2), ir.ErrKindUnresolved},
		{"unknown scorer", goal(6, 1, 10, homeTeam, 12345), ir.ErrKindUnresolved},
		{"unknown drawn-by player", unknownDrawnBy, ir.ErrKindUnresolved},
		{"unknown served-by player", unknownServedBy, ir.ErrKindUnresolved},
		{"time outside period", ev(7, ir.PlayFaceoff, 4, 400), ir.ErrKindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan([]ir.Play{tt.play}, Config{Geometry: timemodel.ForGame(false), Roster: testRoster()})
			require.Error(t, err)
			ie, ok := ir.AsInputError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, ie.Kind)
			assert.Equal(t, "play-by-play", ie.Document)
		})
	}
}

func TestScanIsDeterministic(t *testing.T) {
	plays := []ir.Play{
		pen(1, 1, 100, homeTeam, 8, TypeMinor, 2),
		pen(2, 1, 100, homeTeam, 9, TypeMinor, 2),
		pen(3, 1, 100, awayTeam, 18, TypeMajor, 5),
		goal(4, 1, 200, awayTeam, 18),
		ev(5, ir.PlayPeriodEnd, 1, 1200),
	}
	a := scan(t, false, plays...)
	b := scan(t, false, plays...)
	assert.Equal(t, a.Log, b.Log)
}
