package ir

import (
	"fmt"
	"strconv"
)

// SituationCode is the 4-character strength encoding
// [awayGoalie][awaySkaters][homeSkaters][homeGoalie].
// Away fields always precede home fields.
type SituationCode string

// Penalty-shot sentinels. They are not derivable from skater counts and are
// only ever copied verbatim from the play-by-play.
const (
	PenaltyShotAway SituationCode = "0101"
	PenaltyShotHome SituationCode = "1010"
)

// StrengthNotApplicable is the strength label for penalty-shot seconds.
const StrengthNotApplicable = "N/A"

// NewSituationCode encodes goalie flags and skater counts.
// Counts above 9 cannot be encoded and are clamped.
func NewSituationCode(awayGoalie bool, awaySkaters, homeSkaters int, homeGoalie bool) SituationCode {
	digit := func(n int) byte { return byte('0' + max(0, min(9, n))) }
	flag := func(b bool) byte {
		if b {
			return '1'
		}
		return '0'
	}
	return SituationCode([]byte{flag(awayGoalie), digit(awaySkaters), digit(homeSkaters), flag(homeGoalie)})
}

// ParseSituationCode validates a raw code from the play-by-play.
func ParseSituationCode(raw string) (SituationCode, error) {
	if len(raw) != 4 {
		return "", fmt.Errorf("situation code %q: want 4 digits", raw)
	}
	for i := 0; i < 4; i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", fmt.Errorf("situation code %q: non-digit at %d", raw, i)
		}
	}
	if (raw[0] != '0' && raw[0] != '1') || (raw[3] != '0' && raw[3] != '1') {
		return "", fmt.Errorf("situation code %q: goalie flags must be 0 or 1", raw)
	}
	return SituationCode(raw), nil
}

// IsPenaltyShot reports whether c is one of the penalty-shot sentinels.
func (c SituationCode) IsPenaltyShot() bool {
	return c == PenaltyShotAway || c == PenaltyShotHome
}

// AwayGoalie reports the away goalie-in-net flag.
func (c SituationCode) AwayGoalie() bool { return len(c) == 4 && c[0] == '1' }

// HomeGoalie reports the home goalie-in-net flag.
func (c SituationCode) HomeGoalie() bool { return len(c) == 4 && c[3] == '1' }

// AwaySkaters returns the away skater digit.
func (c SituationCode) AwaySkaters() int { return c.digit(1) }

// HomeSkaters returns the home skater digit.
func (c SituationCode) HomeSkaters() int { return c.digit(2) }

// Skaters returns the skater digit for side.
func (c SituationCode) Skaters(side Side) int {
	if side == SideHome {
		return c.HomeSkaters()
	}
	return c.AwaySkaters()
}

func (c SituationCode) digit(i int) int {
	if len(c) != 4 {
		return 0
	}
	n, _ := strconv.Atoi(string(c[i]))
	return n
}

// Strength collapses the code into a team-agnostic label such as "5v4".
// A team without its goaltender has the extra attacker discounted before
// comparison; the larger count is reported first.
func (c SituationCode) Strength() string {
	if c.IsPenaltyShot() || len(c) != 4 {
		return StrengthNotApplicable
	}
	away, home := c.AwaySkaters(), c.HomeSkaters()
	if !c.AwayGoalie() {
		away--
	}
	if !c.HomeGoalie() {
		home--
	}
	hi, lo := max(away, home), min(away, home)
	return fmt.Sprintf("%dv%d", hi, lo)
}
