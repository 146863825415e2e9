// Package harness runs YAML scenarios describing synthetic games through
// the reconstruction engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: single_minor
//	description: "A home minor leaves the home side four skaters for 120 seconds"
//	game:
//	  season: 20232024
//	  game_type: 2
//	  number: 1
//	  standard_rosters: true
//	  lineups: [1]
//	  periods: [1]
//	  events:
//	    - { type: penalty, side: home, period: 1, seconds: 100, player: 2, code: MIN, minutes: 2 }
//	expect:
//	  status: verified
//	assertions:
//	  - { type: situation, period: 1, from: 101, to: 220, code: "1541" }
//	  - { type: event_count, event: penalty-expired, count: 1 }
//	golden: true
//
// The game section drives testutil.GameBuilder, so reported time on ice
// matches the shifts unless report_toi overrides it.
//
// # Assertion Types
//
//   - situation: every second of a range carries a code
//   - strength: every second of a range carries a strength label
//   - skaters: a side's skater count at one second
//   - goaltender: a side's goaltender at one second (0 for an empty net)
//   - event_count: how often an event type appears in the event log
//   - event_order: event types appear in the given order
//
// # Golden Snapshots
//
// A scenario with golden set is also compared against a text snapshot: the
// situation as runs of identical codes and the event log with before and
// after codes. Package tests compare through goldie; the CLI compares the
// bytes directly and rewrites them with --update.
package harness
