package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSituationCode(t *testing.T) {
	assert.Equal(t, SituationCode("1551"), NewSituationCode(true, 5, 5, true))
	assert.Equal(t, SituationCode("1451"), NewSituationCode(true, 4, 5, true))
	assert.Equal(t, SituationCode("0651"), NewSituationCode(false, 6, 5, true))
}

func TestSituationCodeStrength(t *testing.T) {
	tests := []struct {
		code     SituationCode
		expected string
	}{
		{"1551", "5v5"},
		{"1451", "5v4"},
		{"1541", "5v4"},
		{"1441", "4v4"},
		{"1351", "5v3"},
		{"0651", "5v5"}, // away goalie pulled: extra attacker discounted
		{"0641", "5v4"}, // pulled while shorthanded
		{"1331", "3v3"},
		{"1431", "4v3"},
		{"0101", StrengthNotApplicable},
		{"1010", StrengthNotApplicable},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.Strength())
		})
	}
}

func TestParseSituationCode(t *testing.T) {
	c, err := ParseSituationCode("1541")
	require.NoError(t, err)
	assert.True(t, c.AwayGoalie())
	assert.True(t, c.HomeGoalie())
	assert.Equal(t, 5, c.AwaySkaters())
	assert.Equal(t, 4, c.HomeSkaters())
	assert.Equal(t, 4, c.Skaters(SideHome))

	for _, bad := range []string{"", "155", "15511", "1a51", "2551", "1552"} {
		_, err := ParseSituationCode(bad)
		assert.Error(t, err, "code %q", bad)
	}
}

func TestPenaltyShotSentinels(t *testing.T) {
	assert.True(t, PenaltyShotAway.IsPenaltyShot())
	assert.True(t, PenaltyShotHome.IsPenaltyShot())
	assert.False(t, SituationCode("1551").IsPenaltyShot())
}
