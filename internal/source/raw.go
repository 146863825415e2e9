package source

// Raw document shapes. Only the fields the engine reads are declared;
// everything else upstream sends is ignored.

type rawShiftChart struct {
	GameID  int64            `json:"gameId"`
	TeamID  *int64           `json:"teamId"`
	Players []rawShiftPlayer `json:"players"`
}

type rawShiftPlayer struct {
	PlayerID   *int64     `json:"playerId"`
	Number     int        `json:"number"`
	Name       string     `json:"name"`
	Position   *string    `json:"position"`
	Shifts     []rawShift `json:"shifts"`
	GameTotals struct {
		TOI    string `json:"toi"`
		Shifts int    `json:"shifts"`
	} `json:"gameTotals"`
}

type rawShift struct {
	ShiftNumber int     `json:"shiftNumber"`
	Period      int     `json:"period"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Duration    *string `json:"duration"`
	DetailCode  *int    `json:"detailCode"`
}

type rawTeam struct {
	ID     int64  `json:"id"`
	Abbrev string `json:"abbrev"`
	Name   *struct {
		Default string `json:"default"`
	} `json:"name"`
}

type rawPlayByPlay struct {
	ID       int64     `json:"id"`
	Season   int64     `json:"season"`
	GameType int       `json:"gameType"`
	HomeTeam rawTeam   `json:"homeTeam"`
	AwayTeam rawTeam   `json:"awayTeam"`
	Plays    []rawPlay `json:"plays"`
}

type rawPlay struct {
	EventID          int64  `json:"eventId"`
	TypeDescKey      string `json:"typeDescKey"`
	PeriodDescriptor struct {
		Number               int    `json:"number"`
		PeriodType           string `json:"periodType"`
		MaxRegulationPeriods int    `json:"maxRegulationPeriods"`
	} `json:"periodDescriptor"`
	TimeInPeriod  string          `json:"timeInPeriod"`
	TimeRemaining string          `json:"timeRemaining"`
	SituationCode string          `json:"situationCode"`
	Details       *rawPlayDetails `json:"details"`
}

type rawPlayDetails struct {
	EventOwnerTeamID    int64  `json:"eventOwnerTeamId"`
	CommittedByPlayerID int64  `json:"committedByPlayerId"`
	ServedByPlayerID    int64  `json:"servedByPlayerId"`
	DrawnByPlayerID     int64  `json:"drawnByPlayerId"`
	ScoringPlayerID     int64  `json:"scoringPlayerId"`
	TypeCode            string `json:"typeCode"`
	DescKey             string `json:"descKey"`
	Duration            *int   `json:"duration"`
}

type rawBoxscore struct {
	ID                int64   `json:"id"`
	Season            int64   `json:"season"`
	GameType          int     `json:"gameType"`
	GameDate          string  `json:"gameDate"`
	HomeTeam          rawTeam `json:"homeTeam"`
	AwayTeam          rawTeam `json:"awayTeam"`
	PlayerByGameStats struct {
		HomeTeam rawGroups `json:"homeTeam"`
		AwayTeam rawGroups `json:"awayTeam"`
	} `json:"playerByGameStats"`
}

type rawGroups struct {
	Forwards []rawBoxPlayer `json:"forwards"`
	Defense  []rawBoxPlayer `json:"defense"`
	Goalies  []rawBoxPlayer `json:"goalies"`
}

type rawBoxPlayer struct {
	PlayerID      int64  `json:"playerId"`
	SweaterNumber int    `json:"sweaterNumber"`
	Position      string `json:"position"`
	Name          struct {
		Default string `json:"default"`
	} `json:"name"`
}
