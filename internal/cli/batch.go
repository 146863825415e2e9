package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/icetime/internal/batch"
	"github.com/roach88/icetime/internal/config"
	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/metrics"
	"github.com/roach88/icetime/internal/store"
)

// shutdownGrace bounds how long an interrupted batch waits for in-flight
// games.
const shutdownGrace = 30 * time.Second

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	GameType       int
	From           int
	To             int
	Workers        int
	Formats        []string
	MetricsFile    string
	KeepUnverified bool
}

// BatchGame is one line of a batch report.
type BatchGame struct {
	GameID     int64    `json:"game_id"`
	Status     string   `json:"status"`
	ErrorCode  string   `json:"error_code,omitempty"`
	Error      string   `json:"error,omitempty"`
	Paths      []string `json:"paths,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID      string      `json:"run_id"`
	Season     string      `json:"season"`
	Games      []BatchGame `json:"games"`
	Verified   int         `json:"verified"`
	Unverified int         `json:"unverified"`
	Failed     int         `json:"failed"`
	Missing    int         `json:"missing"`
	Skipped    int         `json:"skipped"`
	Total      int         `json:"total"`
	ElapsedMS  int64       `json:"elapsed_ms"`
}

func newBatchResult(s *batch.Summary, requested int) BatchResult {
	r := BatchResult{
		RunID:      s.RunID,
		Season:     s.Season,
		Games:      make([]BatchGame, 0, len(s.Outcomes)),
		Verified:   s.Count(engine.StatusVerified),
		Unverified: s.Count(engine.StatusUnverified),
		Failed:     s.Count(engine.StatusFailed),
		Missing:    s.Count(engine.StatusMissing),
		Skipped:    s.Skipped,
		Total:      requested,
		ElapsedMS:  s.Elapsed.Milliseconds(),
	}
	for _, o := range s.Outcomes {
		g := BatchGame{
			GameID:     o.GameID,
			Status:     o.Status,
			Paths:      o.Paths,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			g.Error = o.Err.Error()
			g.ErrorCode = string(engine.CodeOf(o.Err))
		}
		r.Games = append(r.Games, g)
	}
	return r
}

func (r BatchResult) String() string {
	var b strings.Builder
	for _, g := range r.Games {
		mark := "✓"
		if g.Status != engine.StatusVerified {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %d %s", mark, g.GameID, g.Status)
		if g.Error != "" {
			fmt.Fprintf(&b, ": %s", g.Error)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nBatch Summary: %d verified, %d unverified, %d failed, %d missing, %d skipped, %d total",
		r.Verified, r.Unverified, r.Failed, r.Missing, r.Skipped, r.Total)
	return b.String()
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Reconstruct many games concurrently",
		Long: `Reconstruct a range of games on a bounded worker pool.

Without --from and --to every game with a play-by-play document in the
season is processed. One game's failure never stops the others; the run
ends with a per-game report and a summary. Interrupting the run stops
dispatching new games and waits for those in flight.

Exit codes:
  0 - Every game verified
  1 - One or more games failed, were unverified, missing or skipped
  2 - Command error (bad range, unreadable data directory, etc.)

Examples:
  icetime batch --season 20232024 --from 1 --to 1312
  icetime batch --season 20232024 --workers 4 --metrics-file batch.prom
  icetime batch --season 20232024 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GameType, "game-type", 0, "game type code (2 regular season, 3 playoffs)")
	cmd.Flags().IntVar(&opts.From, "from", 0, "first game number")
	cmd.Flags().IntVar(&opts.To, "to", 0, "last game number")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent games (default from config)")
	cmd.Flags().StringSliceVar(&opts.Formats, "formats", nil, "output formats (json,csv)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&opts.KeepUnverified, "keep-unverified", false, "write timelines that fail reconciliation")

	return cmd
}

func runBatch(opts *BatchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
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

	st, eng, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	ids, err := selectGames(cmd, cfg, st, opts.From, opts.To)
	if err != nil {
		return err
	}

	mgr := metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsFile != ""))
	mgr.SetWorkers(cfg.Workers)
	pool := batch.NewPool(st, eng,
		batch.WithLogger(logger),
		batch.WithWorkers(cfg.Workers),
		batch.WithRecorder(mgr),
		batch.WithFormats(formats...),
		batch.WithKeepUnverified(cfg.KeepUnverified),
	)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping batch", "signal", sig)
			graceCtx, graceCancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer graceCancel()
			if err := pool.Shutdown(graceCtx); err != nil {
				logger.Warn("in-flight games did not finish", "error", err)
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	formatter.VerboseLog("Processing %d game(s) on %d worker(s)", len(ids), pool.Workers())
	summary := pool.Run(ctx, cfg.Season, ids)
	result := newBatchResult(summary, len(ids))

	if cfg.MetricsFile != "" {
		if err := mgr.WriteTextfile(cfg.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		formatter.VerboseLog("Wrote metrics to %s", cfg.MetricsFile)
	}

	if summary.OK() {
		return formatter.Success(result)
	}

	message := fmt.Sprintf("%d of %d game(s) not verified", result.Total-result.Verified, result.Total)
	if formatter.Format == "json" {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeBatchFailed, Message: message},
			RunID:  result.RunID,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, result)
	}
	return NewExitError(ExitFailure, message)
}

// selectGames returns the games named by --from/--to, or the season's
// inventory when neither is set.
func selectGames(cmd *cobra.Command, cfg *config.Config, st *store.Store, from, to int) ([]int64, error) {
	flags := cmd.Flags()
	if flags.Changed("from") || flags.Changed("to") {
		if !flags.Changed("to") {
			to = from
		}
		if !flags.Changed("from") {
			from = 1
		}
		ids, err := batch.Range(cfg.Season, cfg.GameType, from, to)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid game range", err)
		}
		return ids, nil
	}

	ids, err := st.Inventory(cfg.Season)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to list games", err)
	}
	if len(ids) == 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no games found for season %s in %s", cfg.Season, st.Root()))
	}
	return ids, nil
}
