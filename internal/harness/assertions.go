package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/timeline"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome

	// Events is the event log for context, if the assertion concerns it.
	Events []ir.EventLogEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvent log:\n")
		for i, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] P%d %s %s %s->%s\n", i+1, ev.Period, ev.TimeInPeriod, ev.EventType, ev.SituationBefore, ev.SituationAfter)
		}
	}
	return buf.String()
}

// entryAt finds the timeline entry for (period, second).
func entryAt(tl *timeline.Timeline, period, second int) (ir.TimelineEntry, bool) {
	for _, e := range tl.Entries {
		if e.Period == period && e.SecondsIntoPeriod == second {
			return e, true
		}
	}
	return ir.TimelineEntry{}, false
}

// assertRange checks that field(entry) equals want for every second of
// [from, to] in period.
func assertRange(tl *timeline.Timeline, a Assertion, want string, field func(ir.TimelineEntry) string) error {
	for s := a.From; s <= a.To; s++ {
		e, ok := entryAt(tl, a.Period, s)
		if !ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("period %d second %d in the timeline", a.Period, s),
				Actual:   "no such entry",
			}
		}
		if got := field(e); got != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s from %d to %d of period %d", want, a.From, a.To, a.Period),
				Actual:   fmt.Sprintf("%s at second %d", got, s),
			}
		}
	}
	return nil
}

func assertSkaters(tl *timeline.Timeline, a Assertion) error {
	e, ok := entryAt(tl, a.Period, a.Second)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("period %d second %d", a.Period, a.Second), Actual: "no such entry"}
	}
	if got := len(e.Side(a.Side).Skaters); got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s skaters at %d:%d", a.Count, a.Side, a.Period, a.Second),
			Actual:   fmt.Sprintf("%d skaters %v", got, e.Side(a.Side).Skaters),
		}
	}
	return nil
}

func assertGoaltender(tl *timeline.Timeline, a Assertion) error {
	e, ok := entryAt(tl, a.Period, a.Second)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("period %d second %d", a.Period, a.Second), Actual: "no such entry"}
	}
	if got := e.Side(a.Side).Goaltender; got != a.Player {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s goaltender %d at %d:%d", a.Side, a.Player, a.Period, a.Second),
			Actual:   fmt.Sprintf("goaltender %d", got),
		}
	}
	return nil
}

// assertEventCount checks if the event type appears exactly the specified
// number of times in the event log.
func assertEventCount(events []ir.EventLogEntry, a Assertion) error {
	count := 0
	for _, ev := range events {
		if ev.EventType == a.Event {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Events:   events,
		}
	}
	return nil
}

// assertEventOrder checks that the event types appear in the specified
// order. Intervening events are allowed.
func assertEventOrder(events []ir.EventLogEntry, a Assertion) error {
	next := 0
	for _, ev := range events {
		if next < len(a.Events) && ev.EventType == a.Events[next] {
			next++
		}
	}
	if next < len(a.Events) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("events in order: %v", a.Events),
			Actual:   fmt.Sprintf("missing %s after %v", a.Events[next], a.Events[:next]),
			Events:   events,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	tl := result.Timeline()

	for i, a := range assertions {
		if tl == nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s needs a timeline but the game produced none", i, a.Type))
			continue
		}

		var err error
		switch a.Type {
		case AssertSituation:
			err = assertRange(tl, a, a.Code, func(e ir.TimelineEntry) string { return string(e.Situation) })
		case AssertStrength:
			err = assertRange(tl, a, a.Strength, func(e ir.TimelineEntry) string { return e.Strength })
		case AssertSkaters:
			err = assertSkaters(tl, a)
		case AssertGoaltender:
			err = assertGoaltender(tl, a)
		case AssertEventCount:
			err = assertEventCount(tl.Events, a)
		case AssertEventOrder:
			err = assertEventOrder(tl.Events, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
