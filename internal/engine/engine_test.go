package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/testutil"
	"github.com/roach88/icetime/internal/timeline"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	return e
}

func run(t *testing.T, b *testutil.GameBuilder) (*Result, error) {
	t.Helper()
	return newEngine(t).ReconstructDocuments(source.Documents(b.Documents()))
}

func minorGame() *testutil.GameBuilder {
	return testutil.NewGame(20232024, 2, 1).
		StandardRosters().
		Lineup(1).
		Period(1).
		Penalty(ir.SideHome, 1, 100, 2, "MIN", 2)
}

func TestReconstructVerifiedGame(t *testing.T) {
	res, err := run(t, minorGame())
	require.NoError(t, err)

	tl := res.Timeline
	assert.True(t, tl.Verified)
	assert.True(t, res.Verdict.Passed)
	assert.Equal(t, 12, res.Verdict.CheckedPlayers)
	require.Len(t, tl.Entries, 1201)

	assert.Equal(t, ir.SituationCode("1551"), tl.Entries[100].Situation)
	for s := 101; s <= 220; s++ {
		require.Equal(t, ir.SituationCode("1541"), tl.Entries[s].Situation, "second %d", s)
	}
	assert.Equal(t, ir.SituationCode("1551"), tl.Entries[221].Situation)

	assert.Equal(t, ir.PlayerID(1), tl.Entries[500].Home.Goaltender)
	assert.Equal(t, ir.PlayerID(51), tl.Entries[500].Away.Goaltender)
	assert.Equal(t, []ir.PlayerID{2, 3, 4, 5, 6}, tl.Entries[500].Home.Skaters)
}

func TestReconstructPulledGoalie(t *testing.T) {
	b := testutil.NewGame(20232024, 2, 1).StandardRosters().Period(1)
	b.Shift(ir.SideAway, 51, 1, 0, 1200)
	b.Shift(ir.SideHome, 1, 1, 0, 1140)
	for i := ir.PlayerID(2); i <= 6; i++ {
		b.Shift(ir.SideHome, i, 1, 0, 1200)
		b.Shift(ir.SideAway, 50+i, 1, 0, 1200)
	}
	b.Shift(ir.SideHome, 7, 1, 1140, 1200)

	res, err := run(t, b)
	require.NoError(t, err)

	e := res.Timeline.Entries[1150]
	assert.Equal(t, ir.SituationCode("1560"), e.Situation)
	assert.Equal(t, "5v5", e.Strength)
	assert.False(t, e.Home.HasGoaltender())
	assert.Len(t, e.Home.Skaters, 6)
	assert.Equal(t, ir.SituationCode("1551"), res.Timeline.Entries[1140].Situation)
}

func TestReconstructReconciliationFailure(t *testing.T) {
	res, err := run(t, minorGame().ReportTOI(3, 1195))
	require.Error(t, err)
	assert.True(t, IsReconciliationError(err))
	assert.False(t, IsInputError(err))

	require.NotNil(t, res, "the unverified result is still returned")
	assert.False(t, res.Timeline.Verified)
	require.Len(t, res.Verdict.Mismatches, 1)
	assert.Equal(t, 5, res.Verdict.Mismatches[0].Diff)
	assert.Contains(t, err.Error(), "calculated 1200s, expected 1195s (diff: +5s)")
}

func TestReconstructInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *testutil.GameBuilder
		code  ErrorCode
		doc   string
	}{
		{
			name: "unknown event type",
			build: func() *testutil.GameBuilder {
				return minorGame().Event("zamboni-on-ice", 1, 300)
			},
			code: ErrCodeMalformedInput,
			doc:  source.DocPlayByPlay,
		},
		{
			name: "penalty by undressed player",
			build: func() *testutil.GameBuilder {
				return minorGame().Penalty(ir.SideAway, 1, 400, 999, "MIN", 2)
			},
			code: ErrCodeUnresolvedReference,
			doc:  source.DocPlayByPlay,
		},
		{
			name: "inverted shift",
			build: func() *testutil.GameBuilder {
				return minorGame().Shift(ir.SideHome, 7, 1, 600, 500)
			},
			code: ErrCodeMalformedInput,
			doc:  source.DocHomeShifts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, tt.build())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsInputError(err))
			assert.Equal(t, tt.code, CodeOf(err))

			var ge *GameError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.doc, ge.Document)
		})
	}
}

func TestReconstructIsByteIdentical(t *testing.T) {
	a, err := run(t, minorGame())
	require.NoError(t, err)
	b, err := run(t, minorGame())
	require.NoError(t, err)

	ja, err := timeline.MarshalJSON(a.Timeline)
	require.NoError(t, err)
	jb, err := timeline.MarshalJSON(b.Timeline)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)

	ca, err := timeline.MarshalCSV(a.Timeline)
	require.NoError(t, err)
	cb, err := timeline.MarshalCSV(b.Timeline)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestReconstructNoPlayedPeriods(t *testing.T) {
	game := &ir.Game{
		Info:   ir.GameInfo{GameID: 7},
		Roster: ir.NewRoster(ir.Team{ID: 10}, ir.Team{ID: 20}),
	}
	_, err := newEngine(t).Reconstruct(game)
	assert.Equal(t, ErrCodeMalformedInput, CodeOf(err))
}

func TestGameErrorMessage(t *testing.T) {
	err := &GameError{Code: ErrCodeMalformedInput, GameID: 2023020001, Document: "play-by-play", Record: "event 12", Message: "bad"}
	assert.Equal(t, "MALFORMED_INPUT: game 2023020001 (play-by-play, event 12): bad", err.Error())

	missing := NewMissingInputError(2023020001, "boxscore", nil)
	assert.True(t, IsMissingInputError(missing))
	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
}
