package testutil

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

// Team ids used by every synthetic game.
const (
	HomeTeamID ir.TeamID = 10
	AwayTeamID ir.TeamID = 20
)

// Documents is the raw input set for one synthetic game. Its layout matches
// source.Documents so callers can convert between the two.
type Documents struct {
	HomeShifts []byte
	AwayShifts []byte
	PlayByPlay []byte
	Boxscore   []byte
}

// GameBuilder assembles the four raw documents of a synthetic game.
//
// Reported time on ice is derived from the shifts added, so a game built
// without overlapping shifts reconciles. Use ReportTOI to force a
// disagreement.
//
// Example:
//
//	docs := testutil.NewGame(20232024, 2, 1).
//		StandardRosters().
//		Lineup(1).
//		Period(1).
//		Penalty(ir.SideHome, 1, 100, 102, "MIN", 2).
//		Documents()
type GameBuilder struct {
	season   int64
	gameType int
	number   int
	date     string
	teams    map[ir.Side]*teamSpec
	plays    []playSpec
	events   *EventSequence

	byNumberOnly bool
	toi          map[ir.PlayerID]int
}

type teamSpec struct {
	team    ir.Team
	players []*playerSpec
}

type playerSpec struct {
	id       ir.PlayerID
	number   int
	name     string
	position string
	goalie   bool
	shifts   []shiftSpec
}

type shiftSpec struct {
	period, start, end, detail int
}

type playSpec struct {
	order   int
	period  int
	seconds int
	body    map[string]any
}

// NewGame starts a game identified by season, game type and game number.
func NewGame(season int64, gameType, number int) *GameBuilder {
	return &GameBuilder{
		season:   season,
		gameType: gameType,
		number:   number,
		date:     "2023-10-10",
		teams: map[ir.Side]*teamSpec{
			ir.SideHome: {team: ir.Team{ID: HomeTeamID, Abbrev: "HOM", Name: "Home Club"}},
			ir.SideAway: {team: ir.Team{ID: AwayTeamID, Abbrev: "AWY", Name: "Away Club"}},
		},
		events: NewEventSequence(),
		toi:    map[ir.PlayerID]int{},
	}
}

// GameID returns {season start year}{game type:02}{number:04}.
func (b *GameBuilder) GameID() int64 {
	return (b.season/10000)*1_000_000 + int64(b.gameType)*10_000 + int64(b.number)
}

// Playoff reports whether the game uses playoff overtime rules.
func (b *GameBuilder) Playoff() bool {
	return b.gameType == ir.GameTypePlayoff
}

// Geometry returns the period geometry for the game type.
func (b *GameBuilder) Geometry() timemodel.Geometry {
	return timemodel.ForGame(b.Playoff())
}

// Skater dresses a skater for side.
func (b *GameBuilder) Skater(side ir.Side, id ir.PlayerID, number int) *GameBuilder {
	t := b.teams[side]
	t.players = append(t.players, &playerSpec{id: id, number: number, name: fmt.Sprintf("Skater %d", id), position: "C"})
	return b
}

// Goalie dresses a goaltender for side.
func (b *GameBuilder) Goalie(side ir.Side, id ir.PlayerID, number int) *GameBuilder {
	t := b.teams[side]
	t.players = append(t.players, &playerSpec{id: id, number: number, name: fmt.Sprintf("Goalie %d", id), position: "G", goalie: true})
	return b
}

// StandardRosters dresses two goaltenders and six skaters per side.
// Home ids are 1, 31 (goalies) and 2..7; away ids are 51, 81 and 52..57.
func (b *GameBuilder) StandardRosters() *GameBuilder {
	for _, side := range ir.Sides {
		base := ir.PlayerID(0)
		if side == ir.SideAway {
			base = 50
		}
		b.Goalie(side, base+1, 1)
		b.Goalie(side, base+31, 31)
		for i := ir.PlayerID(2); i <= 7; i++ {
			b.Skater(side, base+i, int(i)+10)
		}
	}
	return b
}

// Shift adds an on-ice interval in seconds into period.
func (b *GameBuilder) Shift(side ir.Side, id ir.PlayerID, period, start, end int) *GameBuilder {
	return b.shift(side, id, shiftSpec{period: period, start: start, end: end})
}

// AnnotatedShift adds a shift row carrying a non-zero detail code.
func (b *GameBuilder) AnnotatedShift(side ir.Side, id ir.PlayerID, period, start, end, detail int) *GameBuilder {
	return b.shift(side, id, shiftSpec{period: period, start: start, end: end, detail: detail})
}

func (b *GameBuilder) shift(side ir.Side, id ir.PlayerID, s shiftSpec) *GameBuilder {
	p := b.player(side, id)
	p.shifts = append(p.shifts, s)
	return b
}

func (b *GameBuilder) player(side ir.Side, id ir.PlayerID) *playerSpec {
	for _, p := range b.teams[side].players {
		if p.id == id {
			return p
		}
	}
	panic(fmt.Sprintf("testutil: player %d is not dressed for %s", id, side))
}

// Lineup puts each side's first goaltender and first five skaters on the
// ice for the whole of period.
func (b *GameBuilder) Lineup(period int) *GameBuilder {
	length := b.Geometry().PeriodLength(period)
	for _, side := range ir.Sides {
		goalies, skaters := 0, 0
		for _, p := range b.teams[side].players {
			switch {
			case p.goalie && goalies == 0:
				goalies++
			case !p.goalie && skaters < 5:
				skaters++
			default:
				continue
			}
			p.shifts = append(p.shifts, shiftSpec{period: period, start: 0, end: length})
		}
	}
	return b
}

// ReportTOI overrides the reported time on ice for a player.
func (b *GameBuilder) ReportTOI(id ir.PlayerID, seconds int) *GameBuilder {
	b.toi[id] = seconds
	return b
}

// ByNumberOnly omits player ids from shift chart rows so they must be
// resolved through the boxscore sweater numbers.
func (b *GameBuilder) ByNumberOnly() *GameBuilder {
	b.byNumberOnly = true
	return b
}

// Period adds period-start and an opening faceoff at 0 and period-end at the
// period's length.
func (b *GameBuilder) Period(period int) *GameBuilder {
	length := b.Geometry().PeriodLength(period)
	b.Event(ir.PlayPeriodStart, period, 0)
	b.Event(ir.PlayFaceoff, period, 0)
	return b.Event(ir.PlayPeriodEnd, period, length)
}

// Event adds a play with no details.
func (b *GameBuilder) Event(typ string, period, seconds int) *GameBuilder {
	return b.EventWith(typ, period, seconds, "", nil)
}

// EventWith adds a play with an optional recorded situation code and
// details object.
func (b *GameBuilder) EventWith(typ string, period, seconds int, situation string, details map[string]any) *GameBuilder {
	geom := b.Geometry()
	body := map[string]any{
		"eventId":     b.events.Next(),
		"typeDescKey": typ,
		"periodDescriptor": map[string]any{
			"number":               period,
			"periodType":           geom.PeriodType(period),
			"maxRegulationPeriods": timemodel.RegulationPeriods,
		},
		"timeInPeriod":  timemodel.FormatClock(seconds),
		"timeRemaining": timemodel.FormatClock(max(geom.PeriodLength(period)-seconds, 0)),
	}
	if situation != "" {
		body["situationCode"] = situation
	}
	if details != nil {
		body["details"] = details
	}
	b.plays = append(b.plays, playSpec{order: len(b.plays), period: period, seconds: seconds, body: body})
	return b
}

// Penalty adds a penalty against side committed by player.
func (b *GameBuilder) Penalty(side ir.Side, period, seconds int, player ir.PlayerID, typeCode string, minutes int) *GameBuilder {
	return b.EventWith(ir.PlayPenalty, period, seconds, "", map[string]any{
		"eventOwnerTeamId":    b.teams[side].team.ID,
		"committedByPlayerId": player,
		"typeCode":            typeCode,
		"descKey":             "tripping",
		"duration":            minutes,
	})
}

// Goal adds a goal scored by side.
func (b *GameBuilder) Goal(side ir.Side, period, seconds int, scorer ir.PlayerID) *GameBuilder {
	return b.EventWith(ir.PlayGoal, period, seconds, "", map[string]any{
		"eventOwnerTeamId": b.teams[side].team.ID,
		"scoringPlayerId":  scorer,
	})
}

// LastEventID returns the id of the most recently added play.
func (b *GameBuilder) LastEventID() int64 {
	return b.events.Current()
}

// Documents renders the four raw documents.
func (b *GameBuilder) Documents() Documents {
	return Documents{
		HomeShifts: mustJSON(b.shiftChart(ir.SideHome)),
		AwayShifts: mustJSON(b.shiftChart(ir.SideAway)),
		PlayByPlay: mustJSON(b.playByPlay()),
		Boxscore:   mustJSON(b.boxscore()),
	}
}

func (b *GameBuilder) shiftChart(side ir.Side) map[string]any {
	geom := b.Geometry()
	t := b.teams[side]
	players := make([]map[string]any, 0, len(t.players))
	for _, p := range t.players {
		if len(p.shifts) == 0 {
			continue
		}
		toi := 0
		rows := make([]map[string]any, 0, len(p.shifts))
		for i, s := range p.shifts {
			rows = append(rows, map[string]any{
				"shiftNumber": i + 1,
				"period":      s.period,
				"startTime":   timemodel.FormatClock(s.start),
				"endTime":     timemodel.FormatClock(s.end),
				"duration":    timemodel.FormatClock(s.end - s.start),
				"detailCode":  s.detail,
			})
			if s.detail == 0 && !geom.IsShootout(s.period) {
				toi += min(s.end, geom.PeriodLength(s.period)) - s.start
			}
		}
		if override, ok := b.toi[p.id]; ok {
			toi = override
		}
		row := map[string]any{
			"number":     p.number,
			"name":       p.name,
			"position":   p.position,
			"shifts":     rows,
			"gameTotals": map[string]any{"toi": timemodel.FormatClock(toi), "shifts": len(rows)},
		}
		if !b.byNumberOnly {
			row["playerId"] = p.id
		}
		players = append(players, row)
	}
	return map[string]any{
		"gameId":  b.GameID(),
		"teamId":  t.team.ID,
		"players": players,
	}
}

func (b *GameBuilder) playByPlay() map[string]any {
	specs := append([]playSpec(nil), b.plays...)
	sort.SliceStable(specs, func(i, j int) bool {
		a, c := specs[i], specs[j]
		if a.period != c.period {
			return a.period < c.period
		}
		if a.seconds != c.seconds {
			return a.seconds < c.seconds
		}
		return playRank(a) < playRank(c)
	})
	plays := make([]map[string]any, len(specs))
	for i, s := range specs {
		plays[i] = s.body
	}
	return map[string]any{
		"id":       b.GameID(),
		"season":   b.season,
		"gameType": b.gameType,
		"homeTeam": map[string]any{"id": HomeTeamID, "abbrev": b.teams[ir.SideHome].team.Abbrev},
		"awayTeam": map[string]any{"id": AwayTeamID, "abbrev": b.teams[ir.SideAway].team.Abbrev},
		"plays":    plays,
	}
}

// playRank keeps period-start first and period-end last within a second.
func playRank(s playSpec) int {
	switch s.body["typeDescKey"] {
	case ir.PlayPeriodStart:
		return 0
	case ir.PlayPeriodEnd, ir.PlayGameEnd:
		return 2
	}
	return 1
}

func (b *GameBuilder) boxscore() map[string]any {
	groups := func(side ir.Side) map[string]any {
		forwards, goalies := []map[string]any{}, []map[string]any{}
		for _, p := range b.teams[side].players {
			entry := map[string]any{
				"playerId":      p.id,
				"sweaterNumber": p.number,
				"name":          map[string]any{"default": p.name},
				"position":      p.position,
			}
			if p.goalie {
				goalies = append(goalies, entry)
			} else {
				forwards = append(forwards, entry)
			}
		}
		return map[string]any{"forwards": forwards, "defense": []map[string]any{}, "goalies": goalies}
	}
	team := func(side ir.Side) map[string]any {
		t := b.teams[side].team
		return map[string]any{"id": t.ID, "abbrev": t.Abbrev, "name": map[string]any{"default": t.Name}}
	}
	return map[string]any{
		"id":       b.GameID(),
		"season":   b.season,
		"gameType": b.gameType,
		"gameDate": b.date,
		"homeTeam": team(ir.SideHome),
		"awayTeam": team(ir.SideAway),
		"playerByGameStats": map[string]any{
			"homeTeam": groups(ir.SideHome),
			"awayTeam": groups(ir.SideAway),
		},
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal document: %v", err))
	}
	return data
}
