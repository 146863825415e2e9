package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
)

// Scenario defines a synthetic game and what its reconstruction must show.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Game describes the raw documents to synthesize.
	Game GameSpec `yaml:"game"`

	// Expect is the required outcome of the reconstruction.
	Expect Outcome `yaml:"expect"`

	// Assertions validate the timeline and the event log.
	Assertions []Assertion `yaml:"assertions"`

	// Golden enables snapshot comparison under testdata/golden.
	Golden bool `yaml:"golden,omitempty"`

	// File is the base name of the file the scenario was loaded from.
	File string `yaml:"-"`
}

// GameSpec describes a synthetic game.
type GameSpec struct {
	Season   int64 `yaml:"season"`
	GameType int   `yaml:"game_type"`
	Number   int   `yaml:"number"`

	// StandardRosters dresses two goalies and six skaters per side.
	StandardRosters bool `yaml:"standard_rosters,omitempty"`

	Skaters []PlayerSpec `yaml:"skaters,omitempty"`
	Goalies []PlayerSpec `yaml:"goalies,omitempty"`

	// Lineups lists periods in which each side's first goalie and first
	// five skaters play the whole period.
	Lineups []int `yaml:"lineups,omitempty"`

	// Periods lists periods that get period-start, faceoff and period-end.
	Periods []int `yaml:"periods,omitempty"`

	Shifts    []ShiftSpec `yaml:"shifts,omitempty"`
	Events    []EventSpec `yaml:"events,omitempty"`
	ReportTOI []TOISpec   `yaml:"report_toi,omitempty"`

	// ByNumberOnly drops player ids from shift rows.
	ByNumberOnly bool `yaml:"by_number_only,omitempty"`
}

// PlayerSpec dresses one player.
type PlayerSpec struct {
	Side   ir.Side     `yaml:"side"`
	ID     ir.PlayerID `yaml:"id"`
	Number int         `yaml:"number"`
}

// ShiftSpec is one shift row.
type ShiftSpec struct {
	Side   ir.Side     `yaml:"side"`
	Player ir.PlayerID `yaml:"player"`
	Period int         `yaml:"period"`
	Start  int         `yaml:"start"`
	End    int         `yaml:"end"`
	Detail int         `yaml:"detail,omitempty"`
}

// EventSpec is one play. Penalty and goal plays need Side and Player.
type EventSpec struct {
	Type      string      `yaml:"type"`
	Side      ir.Side     `yaml:"side,omitempty"`
	Period    int         `yaml:"period"`
	Seconds   int         `yaml:"seconds"`
	Player    ir.PlayerID `yaml:"player,omitempty"`
	Code      string      `yaml:"code,omitempty"`
	Minutes   int         `yaml:"minutes,omitempty"`
	Situation string      `yaml:"situation,omitempty"`
}

// TOISpec overrides one player's reported time on ice.
type TOISpec struct {
	Player  ir.PlayerID `yaml:"player"`
	Seconds int         `yaml:"seconds"`
}

// Outcome is the expected result of a reconstruction.
type Outcome struct {
	// Status is verified, unverified or failed.
	Status string `yaml:"status"`

	// ErrorCode is the expected engine error code, if any.
	ErrorCode string `yaml:"error_code,omitempty"`

	// Mismatches is the expected number of time-on-ice disagreements.
	Mismatches int `yaml:"mismatches,omitempty"`
}

// Assertion validates part of a reconstructed game.
type Assertion struct {
	// Type specifies the assertion type:
	// - "situation": every second in [from, to] of period has code
	// - "strength": every second in [from, to] of period has strength
	// - "skaters": side has count skaters at second of period
	// - "goaltender": side has player in net at second (0 for an empty net)
	// - "event_count": the event log has count entries of event
	// - "event_order": the given event types appear in this order
	Type string `yaml:"type"`

	Side   ir.Side `yaml:"side,omitempty"`
	Period int     `yaml:"period,omitempty"`
	From   int     `yaml:"from,omitempty"`
	To     int     `yaml:"to,omitempty"`
	Second int     `yaml:"second,omitempty"`

	Code     string      `yaml:"code,omitempty"`
	Strength string      `yaml:"strength,omitempty"`
	Count    int         `yaml:"count,omitempty"`
	Player   ir.PlayerID `yaml:"player,omitempty"`
	Event    string      `yaml:"event,omitempty"`
	Events   []string    `yaml:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertSituation  = "situation"
	AssertStrength   = "strength"
	AssertSkaters    = "skaters"
	AssertGoaltender = "goaltender"
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.File = filepath.Base(path)
	return s, nil
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", scenario.Name, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := map[string]string{}
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	g := s.Game
	if g.Season == 0 || g.GameType == 0 || g.Number == 0 {
		return fmt.Errorf("game: season, game_type and number are required")
	}
	if len(g.Periods) == 0 && len(g.Events) == 0 {
		return fmt.Errorf("game: at least one period or event is required")
	}
	for i, p := range append(append([]PlayerSpec{}, g.Skaters...), g.Goalies...) {
		if err := validateSide(p.Side); err != nil {
			return fmt.Errorf("game.players[%d]: %w", i, err)
		}
	}
	for i, sh := range g.Shifts {
		if err := validateSide(sh.Side); err != nil {
			return fmt.Errorf("game.shifts[%d]: %w", i, err)
		}
	}
	for i, ev := range g.Events {
		if err := validateEvent(ev); err != nil {
			return fmt.Errorf("game.events[%d]: %w", i, err)
		}
	}

	switch s.Expect.Status {
	case engine.StatusVerified, engine.StatusUnverified, engine.StatusFailed:
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateSide(side ir.Side) error {
	if !side.Valid() {
		return fmt.Errorf("side must be home or away, got %q", side)
	}
	return nil
}

func validateEvent(ev EventSpec) error {
	if ev.Type == "" {
		return fmt.Errorf("type is required")
	}
	if ev.Period < 1 {
		return fmt.Errorf("period is required")
	}
	switch ev.Type {
	case ir.PlayPenalty:
		if ev.Code == "" {
			return fmt.Errorf("penalty needs a code")
		}
		fallthrough
	case ir.PlayGoal:
		if err := validateSide(ev.Side); err != nil {
			return err
		}
		if ev.Player == ir.NoPlayer {
			return fmt.Errorf("%s needs a player", ev.Type)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSituation, AssertStrength:
		if a.Period < 1 || a.To < a.From {
			return fmt.Errorf("assertions[%d]: %s needs a period and from <= to", index, a.Type)
		}
		if a.Type == AssertSituation && a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for situation", index)
		}
		if a.Type == AssertStrength && a.Strength == "" {
			return fmt.Errorf("assertions[%d]: strength is required for strength", index)
		}
	case AssertSkaters, AssertGoaltender:
		if err := validateSide(a.Side); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Period < 1 {
			return fmt.Errorf("assertions[%d]: period is required for %s", index, a.Type)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
