package ir

import "slices"

// PlayerID identifies a player across all three input documents.
type PlayerID int64

// NoPlayer is the zero PlayerID. Upstream feeds never assign it, so it marks
// an absent goaltender or a bench penalty with no committing player.
const NoPlayer PlayerID = 0

// TeamID identifies a franchise in the upstream feeds.
type TeamID int64

// Side distinguishes the two teams of a single game.
type Side string

const (
	SideAway Side = "away"
	SideHome Side = "home"
)

// Sides lists both sides in output order: away always precedes home.
var Sides = [2]Side{SideAway, SideHome}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// Team describes one of the two teams in a game.
type Team struct {
	ID     TeamID `json:"id"`
	Abbrev string `json:"abbrev"`
	Name   string `json:"name"`
}

// GameInfo is the descriptive header carried into every output document.
type GameInfo struct {
	GameID    int64  `json:"gameId"`
	Season    string `json:"season"`
	GameDate  string `json:"gameDate"`
	GameType  int    `json:"gameType"`
	IsPlayoff bool   `json:"isPlayoff"`
	Home      Team   `json:"homeTeam"`
	Away      Team   `json:"awayTeam"`
}

// GameTypePlayoff is the upstream game-type code for playoff games.
const GameTypePlayoff = 3

// Player is one roster entry resolved from the boxscore and shift charts.
type Player struct {
	ID       PlayerID `json:"playerId"`
	Side     Side     `json:"side"`
	TeamID   TeamID   `json:"teamId"`
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Position string   `json:"position,omitempty"`

	// GoaltenderHint is set when the roster lists the player among the
	// team's goaltenders. It is a cross-check, never the sole authority.
	GoaltenderHint bool `json:"goaltenderHint,omitempty"`

	// ReportedTOI is the authoritative time on ice in seconds from the shift
	// chart's gameTotals. HasReportedTOI is false for dressed players that
	// have no shift chart row.
	ReportedTOI    int  `json:"reportedToi"`
	HasReportedTOI bool `json:"-"`
}

// Roster resolves player and team references for one game.
type Roster struct {
	Home    Team
	Away    Team
	Players map[PlayerID]Player

	// order preserves first-appearance order for deterministic iteration.
	order []PlayerID
}

// NewRoster creates an empty roster for the two teams.
func NewRoster(home, away Team) *Roster {
	return &Roster{Home: home, Away: away, Players: make(map[PlayerID]Player)}
}

// Add inserts or replaces a player. Replacing keeps the original position in
// roster order.
func (r *Roster) Add(p Player) {
	if _, ok := r.Players[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.Players[p.ID] = p
}

// Player looks up a player by ID.
func (r *Roster) Player(id PlayerID) (Player, bool) {
	p, ok := r.Players[id]
	return p, ok
}

// SideOf resolves a team ID to the side it plays on in this game.
func (r *Roster) SideOf(team TeamID) (Side, bool) {
	switch team {
	case r.Home.ID:
		return SideHome, true
	case r.Away.ID:
		return SideAway, true
	}
	return "", false
}

// Team returns the team playing on side.
func (r *Roster) Team(side Side) Team {
	if side == SideHome {
		return r.Home
	}
	return r.Away
}

// InOrder returns all players in roster order.
func (r *Roster) InOrder() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.Players[id])
	}
	return out
}

// ShiftInterval is one continuous on-ice interval for a player.
// Invariant: 0 <= Start < End, both in seconds into Period.
type ShiftInterval struct {
	PlayerID              PlayerID `json:"playerId"`
	TeamID                TeamID   `json:"teamId"`
	Side                  Side     `json:"side"`
	Period                int      `json:"period"`
	Start                 int      `json:"startTime"`
	End                   int      `json:"endTime"`
	IsGoaltenderCandidate bool     `json:"isGoaltenderCandidate"`
}

// Duration returns the length of the interval in seconds.
func (s ShiftInterval) Duration() int {
	return s.End - s.Start
}

// Play is one play-by-play event after time strings have been parsed.
type Play struct {
	EventID              int64         `json:"eventId"`
	Type                 string        `json:"typeDescKey"`
	Period               int           `json:"period"`
	PeriodType           string        `json:"periodType"`
	MaxRegulationPeriods int           `json:"maxRegulationPeriods"`
	TimeInPeriod         string        `json:"timeInPeriod"`
	TimeRemaining        string        `json:"timeRemaining"`
	Seconds              int           `json:"secondsIntoPeriod"`
	SituationCode        SituationCode `json:"situationCode,omitempty"`
	Details              *PlayDetails  `json:"details,omitempty"`
}

// PlayDetails carries the event-specific fields the engine consumes.
type PlayDetails struct {
	EventOwnerTeamID    TeamID   `json:"eventOwnerTeamId,omitempty"`
	CommittedByPlayerID PlayerID `json:"committedByPlayerId,omitempty"`
	ServedByPlayerID    PlayerID `json:"servedByPlayerId,omitempty"`
	DrawnByPlayerID     PlayerID `json:"drawnByPlayerId,omitempty"`
	ScoringPlayerID     PlayerID `json:"scoringPlayerId,omitempty"`
	TypeCode            string   `json:"typeCode,omitempty"`
	DescKey             string   `json:"descKey,omitempty"`

	// DurationMinutes is nil when the feed omitted the penalty duration.
	DurationMinutes *int `json:"duration,omitempty"`
}

// Play type keys the engine recognizes.
const (
	PlayFaceoff           = "faceoff"
	PlayHit               = "hit"
	PlayGiveaway          = "giveaway"
	PlayTakeaway          = "takeaway"
	PlayShotOnGoal        = "shot-on-goal"
	PlayMissedShot        = "missed-shot"
	PlayBlockedShot       = "blocked-shot"
	PlayGoal              = "goal"
	PlayPenalty           = "penalty"
	PlayStoppage          = "stoppage"
	PlayPeriodStart       = "period-start"
	PlayPeriodEnd         = "period-end"
	PlayGameEnd           = "game-end"
	PlayDelayedPenalty    = "delayed-penalty"
	PlayShootoutComplete  = "shootout-complete"
	PlayFailedShotAttempt = "failed-shot-attempt"

	// PlayPenaltyExpired is synthesized by the engine; it never appears in
	// the upstream feed.
	PlayPenaltyExpired = "penalty-expired"
)

var knownPlayTypes = []string{
	PlayFaceoff, PlayHit, PlayGiveaway, PlayTakeaway, PlayShotOnGoal,
	PlayMissedShot, PlayBlockedShot, PlayGoal, PlayPenalty, PlayStoppage,
	PlayPeriodStart, PlayPeriodEnd, PlayGameEnd, PlayDelayedPenalty,
	PlayShootoutComplete, PlayFailedShotAttempt,
}

// IsKnownPlayType reports whether the engine has a handling rule for t.
func IsKnownPlayType(t string) bool {
	return slices.Contains(knownPlayTypes, t)
}

// TeamShifts is one team's complete shift chart.
type TeamShifts struct {
	Side      Side
	TeamID    TeamID
	Intervals []ShiftInterval
}

// Game bundles everything the engine needs to reconstruct one game.
// It is fully materialized before reconstruction begins.
type Game struct {
	Info   GameInfo
	Roster *Roster
	Home   TeamShifts
	Away   TeamShifts
	Plays  []Play
}

// Shifts returns the shift chart for side.
func (g *Game) Shifts(side Side) TeamShifts {
	if side == SideHome {
		return g.Home
	}
	return g.Away
}

// OnIceSecond is one team's occupancy for a single game second.
// Invariant: Goaltender never appears in Skaters.
type OnIceSecond struct {
	Skaters    []PlayerID `json:"skaters"`
	Goaltender PlayerID   `json:"goalie"`
}

// HasGoaltender reports whether a goaltender was in net.
func (o OnIceSecond) HasGoaltender() bool {
	return o.Goaltender != NoPlayer
}

// Contains reports whether id was on the ice in any role.
func (o OnIceSecond) Contains(id PlayerID) bool {
	if id == NoPlayer {
		return false
	}
	if o.Goaltender == id {
		return true
	}
	_, found := slices.BinarySearch(o.Skaters, id)
	return found
}

// TimelineEntry is the unit of engine output: one game second.
type TimelineEntry struct {
	Period            int           `json:"period"`
	SecondsIntoPeriod int           `json:"secondsIntoPeriod"`
	GameSecond        int           `json:"secondsElapsedGame"`
	Situation         SituationCode `json:"situationCode"`
	Strength          string        `json:"strength"`
	Home              OnIceSecond   `json:"home"`
	Away              OnIceSecond   `json:"away"`
}

// Side returns the occupancy for side.
func (e TimelineEntry) Side(side Side) OnIceSecond {
	if side == SideHome {
		return e.Home
	}
	return e.Away
}

func (e TimelineEntry) canonical() Object {
	return Object{
		"period":             Int(e.Period),
		"secondsIntoPeriod":  Int(e.SecondsIntoPeriod),
		"secondsElapsedGame": Int(e.GameSecond),
		"situationCode":      String(e.Situation),
		"strength":           String(e.Strength),
		"home":               e.Home.canonical(),
		"away":               e.Away.canonical(),
	}
}

func (o OnIceSecond) canonical() Object {
	return Object{
		"skaters": IDs(o.Skaters),
		"goalie":  Int(o.Goaltender),
	}
}

// Expiration describes why and when a penalty stopped affecting play.
type Expiration struct {
	OriginalEventID int64    `json:"originalEventId"`
	TeamID          TeamID   `json:"teamId"`
	PlayerID        PlayerID `json:"playerId"`
	Severity        string   `json:"severity"`
	DurationSeconds int      `json:"penaltyDuration"`
	Reason          string   `json:"reason"`
}

// EventLogEntry is one line of the situation event log: a logged play or a
// synthetic penalty expiration.
type EventLogEntry struct {
	EventID           int64         `json:"eventId,omitempty"`
	EventType         string        `json:"eventType"`
	Period            int           `json:"periodNumber"`
	PeriodType        string        `json:"periodType"`
	TimeInPeriod      string        `json:"timeInPeriod"`
	TimeRemaining     string        `json:"timeRemaining"`
	SecondsIntoPeriod int           `json:"secondsIntoPeriod"`
	ElapsedSeconds    int           `json:"secondsElapsedGame"`
	SituationBefore   SituationCode `json:"situationCodeBefore"`
	SituationAfter    SituationCode `json:"situationCodeAfter"`
	RecordedSituation SituationCode `json:"recordedSituationCode,omitempty"`
	Synthetic         bool          `json:"isSynthetic"`
	DelayedPenalty    bool          `json:"isDelayedPenalty"`
	Expiration        *Expiration   `json:"penaltyExpiration,omitempty"`
}

func (e EventLogEntry) canonical() Object {
	obj := Object{
		"eventId":             Int(e.EventID),
		"eventType":           String(e.EventType),
		"periodNumber":        Int(e.Period),
		"periodType":          String(e.PeriodType),
		"timeInPeriod":        String(e.TimeInPeriod),
		"timeRemaining":       String(e.TimeRemaining),
		"secondsIntoPeriod":   Int(e.SecondsIntoPeriod),
		"secondsElapsedGame":  Int(e.ElapsedSeconds),
		"situationCodeBefore": String(e.SituationBefore),
		"situationCodeAfter":  String(e.SituationAfter),
		"isSynthetic":         Bool(e.Synthetic),
		"isDelayedPenalty":    Bool(e.DelayedPenalty),
	}
	if e.RecordedSituation != "" {
		obj["recordedSituationCode"] = String(e.RecordedSituation)
	}
	if x := e.Expiration; x != nil {
		obj["penaltyExpiration"] = Object{
			"originalEventId": Int(x.OriginalEventID),
			"teamId":          Int(x.TeamID),
			"playerId":        Int(x.PlayerID),
			"severity":        String(x.Severity),
			"penaltyDuration": Int(x.DurationSeconds),
			"reason":          String(x.Reason),
		}
	}
	return obj
}
