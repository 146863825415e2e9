package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/store"
	"github.com/roach88/icetime/internal/timeline"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	GameType   int
	GameID     int64
	Unverified bool
}

// ReplayResult holds the replay result for one game.
type ReplayResult struct {
	engine.ReplayReport
	SchemaValid bool   `json:"schema_valid"`
	SchemaError string `json:"schema_error,omitempty"`
	Path        string `json:"path"`
}

// Deterministic reports whether the written document reproduced exactly
// and conforms to the document schema.
func (r ReplayResult) Deterministic() bool {
	return r.SchemaValid && r.OK()
}

func (r ReplayResult) String() string {
	var b strings.Builder
	mark := "✓"
	if !r.Deterministic() {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %d %s\n", mark, r.GameID, r.Path)
	fmt.Fprintf(&b, "  schema valid:    %t\n", r.SchemaValid)
	if r.SchemaError != "" {
		fmt.Fprintf(&b, "  schema error:    %s\n", r.SchemaError)
	}
	fmt.Fprintf(&b, "  byte identical:  %t\n", r.Identical)
	fmt.Fprintf(&b, "  digest match:    %t (%s)\n", r.DigestMatch, r.FreshDigest)
	fmt.Fprintf(&b, "  events match:    %t (%s)\n", r.EventsMatch, r.FreshEventsDigest)
	fmt.Fprintf(&b, "  self consistent: %t", r.SelfConsistent)
	if r.FirstDivergence >= 0 {
		fmt.Fprintf(&b, "\n  first divergence at entry %d", r.FirstDivergence)
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [game-number]",
		Short: "Re-run a game and verify the written timeline",
		Long: `Reconstruct a game again and compare it with its written JSON timeline.

The written document is checked against the timeline schema, its timeline
and event log digests are recomputed from its contents, and the fresh
reconstruction must encode to the same bytes.

Exit codes:
  0 - The written timeline reproduces exactly
  1 - Determinism verification failed (differences detected)
  2 - Command error (no written timeline, missing inputs, etc.)

Examples:
  icetime replay --season 20232024 42
  icetime replay --season 20232024 42 --unverified
  icetime replay --season 20232024 --game-id 2023020042 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GameType, "game-type", 0, "game type code (2 regular season, 3 playoffs)")
	cmd.Flags().Int64Var(&opts.GameID, "game-id", 0, "full game id instead of a game number")
	cmd.Flags().BoolVar(&opts.Unverified, "unverified", false, "replay the timeline kept in the unverified directory")

	return cmd
}

func runReplay(opts *ReplayOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("game-type") {
		cfg.GameType = opts.GameType
	}
	if err := requireSeason(cfg); err != nil {
		return err
	}

	gameID := opts.GameID
	switch {
	case gameID != 0 && len(args) > 0:
		return NewExitError(ExitCommandError, "pass either a game number or --game-id, not both")
	case gameID == 0 && len(args) == 0:
		return NewExitError(ExitCommandError, "a game number or --game-id is required")
	case gameID == 0:
		if gameID, err = gameIDFromArg(cfg, args[0]); err != nil {
			return err
		}
	}

	st, eng, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}

	verified := !opts.Unverified
	path := st.TimelinePath(cfg.Season, gameID, store.FormatJSON, verified)
	written, err := st.ReadTimeline(cfg.Season, gameID, store.FormatJSON, verified)
	if errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no written timeline at %s (run generate first)", path))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read timeline", err)
	}

	docs, err := st.LoadDocuments(cfg.Season, gameID)
	if err != nil {
		return outputGameError(formatter, gameID, ExitCommandError, err)
	}
	res, err := eng.ReconstructDocuments(docs)
	if res == nil {
		return outputGameError(formatter, gameID, ExitFailure, err)
	}
	if err != nil {
		logger.Debug("replayed game is unverified", "game_id", gameID, "error", err)
	}

	report, err := engine.Compare(res.Timeline, written)
	if err != nil {
		return outputGameError(formatter, gameID, ExitFailure, err)
	}
	result := ReplayResult{ReplayReport: report, SchemaValid: true, Path: path}
	if err := timeline.ValidateDocument(written); err != nil {
		result.SchemaValid = false
		result.SchemaError = err.Error()
	}

	if result.Deterministic() {
		return formatter.Success(result)
	}

	message := fmt.Sprintf("timeline for game %d does not reproduce", gameID)
	if formatter.Format == "json" {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeReplay, Message: message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, result)
	}
	return NewExitError(ExitFailure, message)
}
