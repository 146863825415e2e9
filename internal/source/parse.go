// Package source decodes the raw per-game input documents into the engine's
// domain types.
//
// Three documents describe a game: one shift chart per team, the
// play-by-play log, and the boxscore. Each is checked against an embedded
// CUE definition before decoding, so structural defects surface as
// malformed-input errors naming the document. The boxscore is the roster of
// record: shift chart rows that carry only a sweater number are resolved
// through it, and its goalies group seeds the goaltender hints.
package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timemodel"
)

// Document names used in errors.
const (
	DocHomeShifts = "home shifts"
	DocAwayShifts = "away shifts"
	DocPlayByPlay = "play-by-play"
	DocBoxscore   = "boxscore"
)

// PositionGoalie is the roster position code for goaltenders.
const PositionGoalie = "G"

// Documents holds the raw bytes of one game's inputs.
type Documents struct {
	HomeShifts []byte
	AwayShifts []byte
	PlayByPlay []byte
	Boxscore   []byte
}

// Parser decodes Documents into an ir.Game.
type Parser struct {
	validator *Validator
	log       *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the parser's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// WithValidator replaces the process-wide schema validator.
func WithValidator(v *Validator) Option {
	return func(p *Parser) { p.validator = v }
}

// NewParser creates a parser. Without WithValidator it uses DefaultValidator.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.validator == nil {
		v, err := DefaultValidator()
		if err != nil {
			return nil, err
		}
		p.validator = v
	}
	return p, nil
}

// Parse decodes docs with a default parser.
func Parse(docs Documents) (*ir.Game, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(docs)
}

// Check validates every document against its schema without decoding.
func (p *Parser) Check(docs Documents) error {
	for _, d := range []struct {
		kind Kind
		name string
		data []byte
	}{
		{KindShiftChart, DocHomeShifts, docs.HomeShifts},
		{KindShiftChart, DocAwayShifts, docs.AwayShifts},
		{KindPlayByPlay, DocPlayByPlay, docs.PlayByPlay},
		{KindBoxscore, DocBoxscore, docs.Boxscore},
	} {
		if err := p.validator.Validate(d.kind, d.name, d.data); err != nil {
			return err
		}
	}
	return nil
}

// Parse validates and decodes docs.
func (p *Parser) Parse(docs Documents) (*ir.Game, error) {
	if err := p.Check(docs); err != nil {
		return nil, err
	}

	var box rawBoxscore
	if err := decode(DocBoxscore, docs.Boxscore, &box); err != nil {
		return nil, err
	}
	var pbp rawPlayByPlay
	if err := decode(DocPlayByPlay, docs.PlayByPlay, &pbp); err != nil {
		return nil, err
	}

	if pbp.ID != box.ID {
		return nil, ir.Malformed(DocPlayByPlay, "", "game id %d does not match boxscore game id %d", pbp.ID, box.ID)
	}
	home, away := team(box.HomeTeam), team(box.AwayTeam)
	if ir.TeamID(pbp.HomeTeam.ID) != home.ID || ir.TeamID(pbp.AwayTeam.ID) != away.ID {
		return nil, ir.Malformed(DocPlayByPlay, "", "teams %d@%d do not match boxscore %d@%d",
			pbp.AwayTeam.ID, pbp.HomeTeam.ID, away.ID, home.ID)
	}

	info := ir.GameInfo{
		GameID:    box.ID,
		Season:    strconv.FormatInt(box.Season, 10),
		GameDate:  box.GameDate,
		GameType:  box.GameType,
		IsPlayoff: box.GameType == ir.GameTypePlayoff,
		Home:      home,
		Away:      away,
	}
	geom := timemodel.ForGame(info.IsPlayoff)

	game := &ir.Game{Info: info, Roster: ir.NewRoster(home, away)}
	numbers := map[ir.Side]map[int]ir.PlayerID{
		ir.SideHome: addGroups(game.Roster, ir.SideHome, home.ID, box.PlayerByGameStats.HomeTeam),
		ir.SideAway: addGroups(game.Roster, ir.SideAway, away.ID, box.PlayerByGameStats.AwayTeam),
	}

	for _, sc := range []struct {
		side ir.Side
		doc  string
		data []byte
		out  *ir.TeamShifts
	}{
		{ir.SideAway, DocAwayShifts, docs.AwayShifts, &game.Away},
		{ir.SideHome, DocHomeShifts, docs.HomeShifts, &game.Home},
	} {
		ts, err := p.shiftChart(game, geom, sc.side, sc.doc, sc.data, numbers[sc.side])
		if err != nil {
			return nil, err
		}
		*sc.out = ts
	}

	plays, err := convertPlays(pbp.Plays)
	if err != nil {
		return nil, err
	}
	game.Plays = plays

	p.log.Debug("parsed game",
		"game_id", info.GameID,
		"players", len(game.Roster.Players),
		"home_shifts", len(game.Home.Intervals),
		"away_shifts", len(game.Away.Intervals),
		"plays", len(game.Plays))
	return game, nil
}

func decode(doc string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &ir.InputError{Kind: ir.ErrKindMalformed, Document: doc, Message: "decode", Err: err}
	}
	return nil
}

func team(t rawTeam) ir.Team {
	out := ir.Team{ID: ir.TeamID(t.ID), Abbrev: t.Abbrev}
	if t.Name != nil {
		out.Name = normalizeName(t.Name.Default)
	}
	return out
}

// normalizeName trims and NFC-normalizes a display name.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// addGroups adds a side's dressed players and returns its sweater-number
// index. The first player listed under a number keeps it.
func addGroups(r *ir.Roster, side ir.Side, teamID ir.TeamID, g rawGroups) map[int]ir.PlayerID {
	numbers := make(map[int]ir.PlayerID)
	for _, group := range []struct {
		players []rawBoxPlayer
		goalie  bool
	}{
		{g.Forwards, false},
		{g.Defense, false},
		{g.Goalies, true},
	} {
		for _, bp := range group.players {
			id := ir.PlayerID(bp.PlayerID)
			position := bp.Position
			if group.goalie && position == "" {
				position = PositionGoalie
			}
			r.Add(ir.Player{
				ID:             id,
				Side:           side,
				TeamID:         teamID,
				Number:         bp.SweaterNumber,
				Name:           normalizeName(bp.Name.Default),
				Position:       position,
				GoaltenderHint: group.goalie,
			})
			if _, taken := numbers[bp.SweaterNumber]; !taken {
				numbers[bp.SweaterNumber] = id
			}
		}
	}
	return numbers
}

func (p *Parser) shiftChart(game *ir.Game, geom timemodel.Geometry, side ir.Side, doc string, data []byte, numbers map[int]ir.PlayerID) (ir.TeamShifts, error) {
	var chart rawShiftChart
	if err := decode(doc, data, &chart); err != nil {
		return ir.TeamShifts{}, err
	}
	t := game.Roster.Team(side)
	if chart.GameID != game.Info.GameID {
		return ir.TeamShifts{}, ir.Malformed(doc, "", "game id %d does not match %d", chart.GameID, game.Info.GameID)
	}
	if chart.TeamID != nil && ir.TeamID(*chart.TeamID) != t.ID {
		return ir.TeamShifts{}, ir.Malformed(doc, "", "team %d is not the %s team %d", *chart.TeamID, side, t.ID)
	}

	out := ir.TeamShifts{Side: side, TeamID: t.ID}
	for _, rp := range chart.Players {
		record := fmt.Sprintf("player #%d %s", rp.Number, rp.Name)
		player, err := p.resolve(game.Roster, side, t.ID, rp, numbers, doc, record)
		if err != nil {
			return ir.TeamShifts{}, err
		}

		toi, err := timemodel.ParseClock(rp.GameTotals.TOI)
		if err != nil {
			return ir.TeamShifts{}, &ir.InputError{Kind: ir.ErrKindMalformed, Document: doc, Record: record, Message: "gameTotals.toi", Err: err}
		}
		player.ReportedTOI, player.HasReportedTOI = toi, true
		game.Roster.Add(player)

		candidate := player.GoaltenderHint || player.Position == PositionGoalie
		for _, rs := range rp.Shifts {
			shiftRecord := fmt.Sprintf("%s shift %d", record, rs.ShiftNumber)
			if rs.DetailCode != nil && *rs.DetailCode != 0 {
				continue
			}
			if geom.IsShootout(rs.Period) {
				continue
			}
			start, err := timemodel.ParseClock(rs.StartTime)
			if err != nil {
				return ir.TeamShifts{}, &ir.InputError{Kind: ir.ErrKindMalformed, Document: doc, Record: shiftRecord, Message: "startTime", Err: err}
			}
			end, err := timemodel.ParseClock(rs.EndTime)
			if err != nil {
				return ir.TeamShifts{}, &ir.InputError{Kind: ir.ErrKindMalformed, Document: doc, Record: shiftRecord, Message: "endTime", Err: err}
			}
			switch {
			case start == end:
				continue
			case start > end:
				return ir.TeamShifts{}, ir.Malformed(doc, shiftRecord, "start %s is after end %s", rs.StartTime, rs.EndTime)
			case !geom.Contains(rs.Period, start):
				return ir.TeamShifts{}, ir.Malformed(doc, shiftRecord, "start %s is outside period %d", rs.StartTime, rs.Period)
			}
			out.Intervals = append(out.Intervals, ir.ShiftInterval{
				PlayerID:              player.ID,
				TeamID:                t.ID,
				Side:                  side,
				Period:                rs.Period,
				Start:                 start,
				End:                   end,
				IsGoaltenderCandidate: candidate,
			})
		}
	}
	return out, nil
}

// resolve finds the roster entry for a shift chart row. Rows without a
// player id are matched by sweater number.
func (p *Parser) resolve(r *ir.Roster, side ir.Side, teamID ir.TeamID, rp rawShiftPlayer, numbers map[int]ir.PlayerID, doc, record string) (ir.Player, error) {
	if rp.PlayerID == nil {
		id, ok := numbers[rp.Number]
		if !ok {
			return ir.Player{}, ir.Unresolved(doc, record, "sweater number %d is not on the %s roster", rp.Number, side)
		}
		pl, _ := r.Player(id)
		return pl, nil
	}

	id := ir.PlayerID(*rp.PlayerID)
	if pl, ok := r.Player(id); ok {
		if pl.Side != side {
			return ir.Player{}, ir.Unresolved(doc, record, "player %d dresses for the %s team", id, pl.Side)
		}
		return pl, nil
	}

	p.log.Debug("shift chart player missing from boxscore", "player_id", id, "side", side)
	pl := ir.Player{ID: id, Side: side, TeamID: teamID, Number: rp.Number, Name: normalizeName(rp.Name)}
	if rp.Position != nil {
		pl.Position = *rp.Position
	}
	return pl, nil
}

func convertPlays(raw []rawPlay) ([]ir.Play, error) {
	plays := make([]ir.Play, 0, len(raw))
	for _, rp := range raw {
		sec, err := timemodel.ParseClock(rp.TimeInPeriod)
		if err != nil {
			return nil, &ir.InputError{
				Kind:     ir.ErrKindMalformed,
				Document: DocPlayByPlay,
				Record:   fmt.Sprintf("event %d", rp.EventID),
				Message:  "timeInPeriod",
				Err:      err,
			}
		}
		pl := ir.Play{
			EventID:              rp.EventID,
			Type:                 rp.TypeDescKey,
			Period:               rp.PeriodDescriptor.Number,
			PeriodType:           rp.PeriodDescriptor.PeriodType,
			MaxRegulationPeriods: rp.PeriodDescriptor.MaxRegulationPeriods,
			TimeInPeriod:         rp.TimeInPeriod,
			TimeRemaining:        rp.TimeRemaining,
			Seconds:              sec,
			SituationCode:        ir.SituationCode(rp.SituationCode),
		}
		if d := rp.Details; d != nil {
			pl.Details = &ir.PlayDetails{
				EventOwnerTeamID:    ir.TeamID(d.EventOwnerTeamID),
				CommittedByPlayerID: ir.PlayerID(d.CommittedByPlayerID),
				ServedByPlayerID:    ir.PlayerID(d.ServedByPlayerID),
				DrawnByPlayerID:     ir.PlayerID(d.DrawnByPlayerID),
				ScoringPlayerID:     ir.PlayerID(d.ScoringPlayerID),
				TypeCode:            d.TypeCode,
				DescKey:             d.DescKey,
				DurationMinutes:     d.Duration,
			}
		}
		plays = append(plays, pl)
	}
	return plays, nil
}
