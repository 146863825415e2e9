package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/icetime/internal/goalie"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/situation"
)

// Document is the structured encoding of a timeline.
type Document struct {
	GameID       int64               `json:"gameId"`
	Season       string              `json:"season"`
	GameDate     string              `json:"gameDate"`
	GameType     int                 `json:"gameType"`
	IsPlayoff    bool                `json:"isPlayoff"`
	NumPeriods   int                 `json:"numPeriods"`
	HomeTeam     ir.Team             `json:"homeTeam"`
	AwayTeam     ir.Team             `json:"awayTeam"`
	Verified     bool                `json:"verified"`
	Digest       string              `json:"digest"`
	EventsDigest string              `json:"eventsDigest"`
	Goaltenders  []goalie.Assignment `json:"goaltenders"`
	Penalties    []situation.Record  `json:"penalties"`
	Events       []ir.EventLogEntry  `json:"events"`
	Diagnostics  Diagnostics         `json:"diagnostics"`
	Timeline     []DocumentEntry     `json:"timeline"`
}

// DocumentEntry is one second of the structured encoding.
type DocumentEntry struct {
	Period             int              `json:"period"`
	SecondsIntoPeriod  int              `json:"secondsIntoPeriod"`
	SecondsElapsedGame int              `json:"secondsElapsedGame"`
	SituationCode      ir.SituationCode `json:"situationCode"`
	Strength           string           `json:"strength"`
	Home               DocumentSide     `json:"home"`
	Away               DocumentSide     `json:"away"`
}

// DocumentSide is one team's occupancy. Goalie is null when the net is empty.
type DocumentSide struct {
	Skaters     []ir.PlayerID `json:"skaters"`
	SkaterCount int           `json:"skaterCount"`
	Goalie      *ir.PlayerID  `json:"goalie"`
}

func documentSide(o ir.OnIceSecond) DocumentSide {
	side := DocumentSide{Skaters: o.Skaters, SkaterCount: len(o.Skaters)}
	if side.Skaters == nil {
		side.Skaters = []ir.PlayerID{}
	}
	if o.HasGoaltender() {
		g := o.Goaltender
		side.Goalie = &g
	}
	return side
}

// NewDocument converts a timeline into its structured encoding.
func NewDocument(tl *Timeline) Document {
	doc := Document{
		GameID:       tl.Info.GameID,
		Season:       tl.Info.Season,
		GameDate:     tl.Info.GameDate,
		GameType:     tl.Info.GameType,
		IsPlayoff:    tl.Info.IsPlayoff,
		NumPeriods:   tl.NumPeriods,
		HomeTeam:     tl.Info.Home,
		AwayTeam:     tl.Info.Away,
		Verified:     tl.Verified,
		Digest:       tl.Digest,
		EventsDigest: tl.EventsDigest,
		Goaltenders:  nonNil(tl.Goaltenders),
		Penalties:    nonNil(tl.Penalties),
		Events:       nonNil(tl.Events),
		Diagnostics:  tl.Diagnostics,
		Timeline:     make([]DocumentEntry, len(tl.Entries)),
	}
	doc.Diagnostics.GoalieConflicts = nonNil(doc.Diagnostics.GoalieConflicts)
	doc.Diagnostics.CancelledPenalties = nonNil(doc.Diagnostics.CancelledPenalties)

	for i, e := range tl.Entries {
		doc.Timeline[i] = DocumentEntry{
			Period:             e.Period,
			SecondsIntoPeriod:  e.SecondsIntoPeriod,
			SecondsElapsedGame: e.GameSecond,
			SituationCode:      e.Situation,
			Strength:           e.Strength,
			Home:               documentSide(e.Home),
			Away:               documentSide(e.Away),
		}
	}
	return doc
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EncodeJSON writes the structured encoding of tl.
func EncodeJSON(w io.Writer, tl *Timeline) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NewDocument(tl)); err != nil {
		return fmt.Errorf("encode timeline document: %w", err)
	}
	return nil
}

// MarshalJSON returns the structured encoding of tl as bytes.
func MarshalJSON(tl *Timeline) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, tl); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses a structured encoding written by EncodeJSON.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode timeline document: %w", err)
	}
	return &doc, nil
}

// Entries rebuilds the canonical timeline entries from a decoded document.
func (d *Document) Entries() []ir.TimelineEntry {
	out := make([]ir.TimelineEntry, len(d.Timeline))
	side := func(s DocumentSide) ir.OnIceSecond {
		o := ir.OnIceSecond{Skaters: s.Skaters}
		if s.Goalie != nil {
			o.Goaltender = *s.Goalie
		}
		return o
	}
	for i, e := range d.Timeline {
		out[i] = ir.TimelineEntry{
			Period:            e.Period,
			SecondsIntoPeriod: e.SecondsIntoPeriod,
			GameSecond:        e.SecondsElapsedGame,
			Situation:         e.SituationCode,
			Strength:          e.Strength,
			Home:              side(e.Home),
			Away:              side(e.Away),
		}
	}
	return out
}
