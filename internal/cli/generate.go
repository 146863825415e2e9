package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/icetime/internal/config"
	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/reconcile"
	"github.com/roach88/icetime/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	GameType       int
	GameID         int64
	Formats        []string
	KeepUnverified bool
}

// GenerateResult describes one generated game.
type GenerateResult struct {
	GameID     int64                `json:"game_id"`
	Status     string               `json:"status"`
	Entries    int                  `json:"entries"`
	Events     int                  `json:"events"`
	Digest     string               `json:"digest,omitempty"`
	Mismatches []reconcile.Mismatch `json:"mismatches,omitempty"`
	Paths      []string             `json:"paths,omitempty"`
}

func (r GenerateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %d: %s (%d seconds, %d events)", r.GameID, r.Status, r.Entries, r.Events)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "\n  %s", m)
	}
	for _, p := range r.Paths {
		fmt.Fprintf(&b, "\n  wrote %s", p)
	}
	return b.String()
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [game-number]",
		Short: "Reconstruct and write one game's timeline",
		Long: `Reconstruct the second-by-second timeline of one game.

The game is named by its number within the season and game type, or
directly with --game-id. Its shift charts, play-by-play and boxscore are
read from the data directory; the verified timeline is written in every
configured format.

Exit codes:
  0 - Timeline verified and written
  1 - Reconciliation mismatch or malformed input
  2 - Command error (missing inputs, bad flags, etc.)

Examples:
  icetime generate --season 20232024 42
  icetime generate --season 20232024 --game-id 2023020042 --formats json
  icetime generate --season 20232024 42 --keep-unverified --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GameType, "game-type", 0, "game type code (2 regular season, 3 playoffs)")
	cmd.Flags().Int64Var(&opts.GameID, "game-id", 0, "full game id instead of a game number")
	cmd.Flags().StringSliceVar(&opts.Formats, "formats", nil, "output formats (json,csv)")
	cmd.Flags().BoolVar(&opts.KeepUnverified, "keep-unverified", false, "write timelines that fail reconciliation")

	return cmd
}

func runGenerate(opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyGameFlags(cmd, cfg, opts.GameType, opts.Formats, opts.KeepUnverified); err != nil {
		return err
	}
	if err := requireSeason(cfg); err != nil {
		return err
	}
	formats, err := cfg.OutputFormats()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --formats", err)
	}

	gameID := opts.GameID
	switch {
	case gameID != 0 && len(args) > 0:
		return NewExitError(ExitCommandError, "pass either a game number or --game-id, not both")
	case gameID == 0 && len(args) == 0:
		return NewExitError(ExitCommandError, "a game number or --game-id is required")
	case gameID == 0:
		gameID, err = gameIDFromArg(cfg, args[0])
		if err != nil {
			return err
		}
	}

	st, eng, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Reading inputs for game %d from %s", gameID, st.Root())
	docs, err := st.LoadDocuments(cfg.Season, gameID)
	if err != nil {
		return outputGameError(formatter, gameID, ExitCommandError, err)
	}

	res, err := eng.ReconstructDocuments(docs)
	if res == nil {
		return outputGameError(formatter, gameID, ExitFailure, err)
	}

	result := GenerateResult{
		GameID:     gameID,
		Status:     engine.StatusOf(err),
		Entries:    len(res.Timeline.Entries),
		Events:     len(res.Timeline.Events),
		Digest:     res.Timeline.Digest,
		Mismatches: res.Verdict.Mismatches,
	}
	paths, writeErr := st.WriteTimeline(cfg.Season, res.Timeline, formats, cfg.KeepUnverified)
	result.Paths = paths
	if writeErr != nil {
		return WrapExitError(ExitCommandError, "failed to write timeline", writeErr)
	}
	logger.Debug("timeline written", "game_id", gameID, "status", result.Status, "paths", len(paths))

	if err == nil {
		return formatter.Success(result)
	}

	if formatter.Format == "json" {
		if encErr := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: string(engine.CodeOf(err)), Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintln(formatter.Writer, result)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("game %d is unverified", gameID), err)
}

// outputGameError reports a game that produced no timeline.
func outputGameError(f *OutputFormatter, gameID int64, exitCode int, err error) error {
	code := string(engine.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	if outErr := f.Error(code, err.Error(), map[string]any{"game_id": gameID}); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode, fmt.Sprintf("game %d failed", gameID), err)
}

// applyGameFlags overlays the per-game flags the user set on cfg and
// validates the result.
func applyGameFlags(cmd *cobra.Command, cfg *config.Config, gameType int, formats []string, keep bool) error {
	flags := cmd.Flags()
	if flags.Changed("game-type") {
		cfg.GameType = gameType
	}
	if flags.Changed("formats") {
		cfg.Formats = formats
	}
	if flags.Changed("keep-unverified") {
		cfg.KeepUnverified = keep
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	return nil
}

// gameIDFromArg turns a game number argument into a full game id.
func gameIDFromArg(cfg *config.Config, arg string) (int64, error) {
	number, err := strconv.Atoi(arg)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid game number %q", arg))
	}
	id, err := store.GameID(cfg.Season, cfg.GameType, number)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid game", err)
	}
	return id, nil
}

// openRuntime opens the data directory and builds an engine logging to
// logger.
func openRuntime(cfg *config.Config, logger *slog.Logger) (*store.Store, *engine.Engine, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open data directory", err)
	}
	eng, err := engine.New(engine.WithLogger(logger))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	return st, eng, nil
}
