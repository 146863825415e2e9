package situation

import (
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

// MinSkaters is the floor: a team is never reduced below three skaters.
const MinSkaters = 3

// MaxSkaters is the largest count a code can carry: five skaters plus an
// extra attacker for a pulled goaltender.
const MaxSkaters = 6

// Skaters derives one team's skater count from penalty counts.
// At a five-skater baseline each running penalty removes a skater down to
// the floor. At the three-on-three overtime baseline the opponent instead
// gains a skater per penalty differential, up to five.
func Skaters(baseline, own, opp int) int {
	if baseline == timemodel.ThreeOnThreeSkaters {
		return MinSkaters + max(0, min(opp-own, 2))
	}
	return max(MinSkaters, baseline-own)
}

// Code derives the situation code for an instant of period p. A team whose
// goaltender is out of the net carries an extra attacker.
func Code(geom timemodel.Geometry, p, awayPenalties, homePenalties int, awayGoalie, homeGoalie bool) ir.SituationCode {
	baseline := geom.SkaterBaseline(p)
	away := Skaters(baseline, awayPenalties, homePenalties)
	home := Skaters(baseline, homePenalties, awayPenalties)
	if !awayGoalie {
		away++
	}
	if !homeGoalie {
		home++
	}
	return ir.NewSituationCode(awayGoalie, min(away, MaxSkaters), min(home, MaxSkaters), homeGoalie)
}
