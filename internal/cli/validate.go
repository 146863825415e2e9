package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	GameType int
	GameID   int64
	From     int
	To       int
}

// GameValidation is the input check of one game.
type GameValidation struct {
	GameID  int64    `json:"game_id"`
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
	Code    string   `json:"code,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool             `json:"valid"`
	Games   []GameValidation `json:"games"`
	Invalid int              `json:"invalid"`
	Total   int              `json:"total"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	for _, g := range r.Games {
		if g.Valid {
			fmt.Fprintf(&b, "✓ %d\n", g.GameID)
			continue
		}
		fmt.Fprintf(&b, "✗ %d\n", g.GameID)
		for _, m := range g.Missing {
			fmt.Fprintf(&b, "  missing %s\n", m)
		}
		if g.Error != "" {
			fmt.Fprintf(&b, "  [%s] %s\n", g.Code, g.Error)
		}
	}
	fmt.Fprintf(&b, "\nValidation Summary: %d valid, %d invalid, %d total", r.Total-r.Invalid, r.Invalid, r.Total)
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [game-number]",
		Short: "Check game inputs without reconstructing",
		Long: `Check that a game's input documents are complete and well formed.

Each game needs both shift charts, the play-by-play and the boxscore. Every
present document is checked against its schema and decoded; nothing is
written. With no game number, --from/--to select a range, and with neither
every game in the season inventory is checked.

Exit codes:
  0 - All inputs valid
  1 - One or more games have missing or malformed inputs
  2 - Command error

Examples:
  icetime validate --season 20232024 42
  icetime validate --season 20232024 --from 1 --to 100 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GameType, "game-type", 0, "game type code (2 regular season, 3 playoffs)")
	cmd.Flags().Int64Var(&opts.GameID, "game-id", 0, "full game id instead of a game number")
	cmd.Flags().IntVar(&opts.From, "from", 0, "first game number")
	cmd.Flags().IntVar(&opts.To, "to", 0, "last game number")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
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

	st, _, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}

	var ids []int64
	switch {
	case opts.GameID != 0:
		ids = []int64{opts.GameID}
	case len(args) == 1:
		id, err := gameIDFromArg(cfg, args[0])
		if err != nil {
			return err
		}
		ids = []int64{id}
	default:
		if ids, err = selectGames(cmd, cfg, st, opts.From, opts.To); err != nil {
			return err
		}
	}

	parser, err := source.NewParser(source.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create parser", err)
	}

	result := ValidationResult{Valid: true, Games: make([]GameValidation, 0, len(ids)), Total: len(ids)}
	for _, id := range ids {
		gv := GameValidation{GameID: id, Valid: true}
		if missing := st.MissingInputs(cfg.Season, id); len(missing) > 0 {
			gv.Valid = false
			gv.Missing = missing
			gv.Code = string(engine.ErrCodeMissingInput)
		} else if docs, err := st.LoadDocuments(cfg.Season, id); err != nil {
			gv.Valid = false
			gv.Code = ErrCodeGeneric
			gv.Error = err.Error()
		} else if _, err := parser.Parse(docs); err != nil {
			gv.Valid = false
			gv.Code = string(engine.ErrCodeMalformedInput)
			if ie, ok := ir.AsInputError(err); ok && ie.Kind == ir.ErrKindUnresolved {
				gv.Code = string(engine.ErrCodeUnresolvedReference)
			}
			gv.Error = err.Error()
		}
		formatter.VerboseLog("Checked game %d: valid=%t", id, gv.Valid)
		if !gv.Valid {
			result.Valid = false
			result.Invalid++
		}
		result.Games = append(result.Games, gv)
	}

	if result.Valid {
		return formatter.Success(result)
	}

	message := fmt.Sprintf("%d of %d game(s) have invalid inputs", result.Invalid, result.Total)
	if formatter.Format == "json" {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalid, Message: message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, result)
	}
	return NewExitError(ExitFailure, message)
}
