// Package batch reconstructs many games concurrently.
//
// A Pool feeds game ids to a fixed number of workers. Each worker loads the
// raw documents from the store, runs the engine and writes the outputs. One
// game's failure never stops its siblings. Cancelling the run context, or
// calling Shutdown, stops dispatching new games while games already in
// flight finish.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/metrics"
	"github.com/roach88/icetime/internal/store"
)

// errCodeWrite labels failures that happen after a successful
// reconstruction, while writing outputs.
const errCodeWrite = "WRITE_FAILED"

// Recorder receives one observation per processed game.
type Recorder interface {
	ObserveGame(metrics.GameObservation)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGame(metrics.GameObservation) {}

// Outcome is the result of one game.
type Outcome struct {
	GameID   int64
	Status   string
	Paths    []string
	Err      error
	Duration time.Duration
}

// Summary collects the outcomes of one run in dispatch order.
type Summary struct {
	RunID    string
	Season   string
	Outcomes []Outcome

	// Skipped counts games never dispatched because the run was stopped.
	Skipped int
	Elapsed time.Duration
}

// Count returns the number of games with status.
func (s *Summary) Count(status string) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Succeeded returns the number of verified games.
func (s *Summary) Succeeded() int {
	return s.Count(engine.StatusVerified)
}

// Failed returns the number of processed games that were not verified.
func (s *Summary) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// OK reports whether every requested game was processed and verified.
func (s *Summary) OK() bool {
	return s.Skipped == 0 && s.Failed() == 0
}

// Pool reconstructs games on a bounded number of workers.
type Pool struct {
	name           string
	logger         *slog.Logger
	workers        int
	recorder       Recorder
	formats        []store.Format
	keepUnverified bool

	store  *store.Store
	engine *engine.Engine

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewPool creates a pool reading from and writing to st.
func NewPool(st *store.Store, eng *engine.Engine, opts ...Option) *Pool {
	p := &Pool{
		name:     "batch",
		logger:   slog.Default(),
		workers:  runtime.NumCPU(),
		recorder: nopRecorder{},
		formats:  store.AllFormats,
		store:    st,
		engine:   eng,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run processes every game in ids for season and returns when all
// dispatched games have finished. A Pool runs once.
func (p *Pool) Run(ctx context.Context, season string, ids []int64) *Summary {
	defer close(p.done)

	runID := uuid.Must(uuid.NewV7()).String()
	log := p.logger.With("pool", p.name, "run_id", runID, "season", season)
	log.Info("batch started", "games", len(ids), "workers", p.workers)

	start := time.Now()
	outcomes := make([]Outcome, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			wlog := log.With("worker", name)
			for i := range jobs {
				outcomes[i] = p.process(wlog, season, ids[i])
			}
		}(p.name + "-worker-" + strconv.Itoa(w))
	}

	dispatched := p.dispatch(ctx, jobs, len(ids))
	close(jobs)
	wg.Wait()

	summary := &Summary{
		RunID:    runID,
		Season:   season,
		Outcomes: outcomes[:dispatched],
		Skipped:  len(ids) - dispatched,
		Elapsed:  time.Since(start),
	}
	if summary.Skipped > 0 {
		log.Warn("batch stopped early", "skipped", summary.Skipped)
	}
	log.Info("batch finished",
		"succeeded", summary.Succeeded(),
		"failed", summary.Failed(),
		"elapsed", summary.Elapsed)
	return summary
}

// dispatch sends job indexes until all are sent or the run is stopped, and
// returns how many were sent. Indexes are sent in order, so the dispatched
// games are always a prefix of the input.
func (p *Pool) dispatch(ctx context.Context, jobs chan<- int, n int) int {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return i
		case <-p.shutdown:
			return i
		default:
		}
		select {
		case <-ctx.Done():
			return i
		case <-p.shutdown:
			return i
		case jobs <- i:
		}
	}
	return n
}

// Shutdown stops dispatching and waits for in-flight games or ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("batch %s shutdown: %w", p.name, ctx.Err())
	}
}

func (p *Pool) process(log *slog.Logger, season string, gameID int64) Outcome {
	start := time.Now()
	log = log.With("game_id", gameID)
	out := Outcome{GameID: gameID}
	obs := metrics.GameObservation{}

	var res *engine.Result
	docs, err := p.store.LoadDocuments(season, gameID)
	if err == nil {
		res, err = p.engine.ReconstructDocuments(docs)
	}
	if res != nil {
		paths, werr := p.store.WriteTimeline(season, res.Timeline, p.formats, p.keepUnverified)
		out.Paths = paths
		if werr != nil {
			err = werr
			obs.ErrorCode = errCodeWrite
		}
		observeResult(&obs, res)
	}
	out.Err = err
	out.Status = statusOf(err, obs.ErrorCode)
	out.Duration = time.Since(start)

	if obs.ErrorCode == "" && err != nil {
		obs.ErrorCode = string(engine.CodeOf(err))
	}
	obs.Status = out.Status
	obs.Duration = out.Duration
	p.recorder.ObserveGame(obs)

	switch out.Status {
	case engine.StatusVerified:
		log.Debug("game verified", "paths", out.Paths, "duration", out.Duration)
	case engine.StatusMissing:
		log.Warn("game inputs missing", "error", err)
	default:
		log.Error("game not verified", "status", out.Status, "error", err)
	}
	return out
}

func statusOf(err error, errCode string) string {
	if errCode == errCodeWrite {
		return engine.StatusFailed
	}
	return engine.StatusOf(err)
}

func observeResult(obs *metrics.GameObservation, res *engine.Result) {
	tl := res.Timeline
	obs.Entries = len(tl.Entries)
	obs.TOIMismatches = len(res.Verdict.Mismatches)
	for _, a := range tl.Goaltenders {
		if a.LowConfidence() {
			obs.LowConfidenceGoalies++
		}
	}
	obs.PenaltiesBySeverity = make(map[string]int)
	for _, r := range tl.Penalties {
		obs.PenaltiesBySeverity[string(r.Severity)]++
	}
	obs.CountMismatches = map[string]int{
		string(ir.SideAway): tl.Diagnostics.AwayCountMismatches,
		string(ir.SideHome): tl.Diagnostics.HomeCountMismatches,
	}
}

// Range returns the game ids numbered first through last inclusive.
func Range(season string, gameType, first, last int) ([]int64, error) {
	if first < 1 || last < first {
		return nil, fmt.Errorf("invalid game range %d-%d", first, last)
	}
	ids := make([]int64, 0, last-first+1)
	for n := first; n <= last; n++ {
		id, err := store.GameID(season, gameType, n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
