// Package engine reconstructs one game's second-by-second timeline.
//
// The engine wires the leaf packages together in a fixed order:
//
//  1. goalie.Identify tags each team's goaltenders per period
//  2. shifts.Normalize expands shift intervals into per-second occupancy
//  3. situation.Scan runs the penalty ledger over the play-by-play log
//  4. timeline.Assemble merges occupancy and situation codes
//  5. reconcile.Validate recounts time on ice against the shift charts
//
// A reconstruction is pure. It performs no I/O, reads no wall clock and
// holds no state between games, so one Engine may serve many goroutines and
// the same inputs always produce byte-identical output.
//
// ERROR TAXONOMY:
//
// Every failure is reported as a *GameError carrying one of four codes.
// MALFORMED_INPUT and UNRESOLVED_REFERENCE name the offending document and
// record and produce no result. RECONCILIATION_FAILED is returned alongside
// a complete result that is marked unverified. MISSING_INPUT is raised by
// the store when a document does not exist.
package engine
