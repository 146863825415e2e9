package engine

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timeline"
)

// ReplayReport compares a fresh reconstruction with a previously written
// JSON document.
//
// Reconstruction is deterministic, so a document written by the same build
// from the same inputs is byte-identical. A digest mismatch means the
// timeline itself changed, an events mismatch means the situation event log
// did, and a byte mismatch with both digests matching means only the
// surrounding metadata did.
type ReplayReport struct {
	GameID int64 `json:"gameId"`

	// Identical is true when the fresh encoding equals the written bytes.
	Identical bool `json:"identical"`

	// DigestMatch is true when the written digest equals the fresh one.
	DigestMatch bool `json:"digestMatch"`

	// EventsMatch is true when the written event log digest equals the
	// fresh one.
	EventsMatch bool `json:"eventsMatch"`

	// SelfConsistent is true when both written digests match the written
	// timeline entries and event log.
	SelfConsistent bool `json:"selfConsistent"`

	WrittenDigest       string `json:"writtenDigest"`
	FreshDigest         string `json:"freshDigest"`
	WrittenEventsDigest string `json:"writtenEventsDigest"`
	FreshEventsDigest   string `json:"freshEventsDigest"`

	// FirstDivergence is the first game second whose entries differ, or -1.
	FirstDivergence int `json:"firstDivergence"`
}

// OK reports whether the written document reproduces exactly.
func (r ReplayReport) OK() bool {
	return r.Identical && r.DigestMatch && r.EventsMatch && r.SelfConsistent
}

// Compare checks written against fresh.
func Compare(fresh *timeline.Timeline, written []byte) (ReplayReport, error) {
	report := ReplayReport{
		GameID:            fresh.Info.GameID,
		FreshDigest:       fresh.Digest,
		FreshEventsDigest: fresh.EventsDigest,
		FirstDivergence:   -1,
	}

	encoded, err := timeline.MarshalJSON(fresh)
	if err != nil {
		return report, err
	}
	report.Identical = bytes.Equal(encoded, written)

	doc, err := timeline.DecodeDocument(written)
	if err != nil {
		return report, fmt.Errorf("replay game %d: %w", fresh.Info.GameID, err)
	}
	report.WrittenDigest = doc.Digest
	report.DigestMatch = doc.Digest == fresh.Digest
	report.WrittenEventsDigest = doc.EventsDigest
	report.EventsMatch = doc.EventsDigest == fresh.EventsDigest

	entries := doc.Entries()
	recomputed, err := ir.TimelineDigest(entries)
	if err != nil {
		return report, fmt.Errorf("replay game %d: %w", fresh.Info.GameID, err)
	}
	recomputedEvents, err := ir.EventLogDigest(doc.Events)
	if err != nil {
		return report, fmt.Errorf("replay game %d: %w", fresh.Info.GameID, err)
	}
	report.SelfConsistent = recomputed == doc.Digest && recomputedEvents == doc.EventsDigest

	for i := 0; i < max(len(entries), len(fresh.Entries)); i++ {
		if i >= len(entries) || i >= len(fresh.Entries) || !sameEntry(entries[i], fresh.Entries[i]) {
			report.FirstDivergence = i
			break
		}
	}
	return report, nil
}

func sameEntry(a, b ir.TimelineEntry) bool {
	return a.Period == b.Period &&
		a.SecondsIntoPeriod == b.SecondsIntoPeriod &&
		a.GameSecond == b.GameSecond &&
		a.Situation == b.Situation &&
		a.Strength == b.Strength &&
		sameSide(a.Home, b.Home) &&
		sameSide(a.Away, b.Away)
}

func sameSide(a, b ir.OnIceSecond) bool {
	return a.Goaltender == b.Goaltender && slices.Equal(a.Skaters, b.Skaters)
}
