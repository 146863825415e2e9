package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/icetime/internal/ir"
)

// Snapshot renders a reconstruction as stable text: the outcome, the
// situation as runs of identical codes per period, and the event log.
func Snapshot(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "status: %s\n", result.Status)
	if result.ErrorCode != "" {
		fmt.Fprintf(&buf, "error: %s\n", result.ErrorCode)
	}

	tl := result.Timeline()
	if tl == nil {
		return []byte(buf.String())
	}

	buf.WriteString("segments:\n")
	for _, seg := range segments(tl.Entries) {
		fmt.Fprintf(&buf, "  P%d %04d-%04d %s %s\n", seg.period, seg.from, seg.to, seg.code, seg.code.Strength())
	}

	buf.WriteString("events:\n")
	for _, ev := range tl.Events {
		fmt.Fprintf(&buf, "  P%d %s %s %s>%s", ev.Period, ev.TimeInPeriod, ev.EventType, ev.SituationBefore, ev.SituationAfter)
		if ev.Expiration != nil {
			fmt.Fprintf(&buf, " %s", ev.Expiration.Reason)
		}
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}

type segment struct {
	period   int
	from, to int
	code     ir.SituationCode
}

// segments collapses consecutive entries of one period sharing a code.
func segments(entries []ir.TimelineEntry) []segment {
	var out []segment
	for _, e := range entries {
		n := len(out)
		if n > 0 && out[n-1].period == e.Period && out[n-1].code == e.Situation && out[n-1].to == e.SecondsIntoPeriod-1 {
			out[n-1].to = e.SecondsIntoPeriod
			continue
		}
		out = append(out, segment{period: e.Period, from: e.SecondsIntoPeriod, to: e.SecondsIntoPeriod, code: e.Situation})
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
