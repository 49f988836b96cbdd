package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/httpprobe/internal/domain"
	"github.com/hamed0406/httpprobe/internal/notify"
	"github.com/hamed0406/httpprobe/internal/probe"
	"github.com/hamed0406/httpprobe/internal/repo"
)

const notifyTimeout = 10 * time.Second

// Coordinator runs a fixed number of probe iterations over the same targets.
//
// Each iteration spawns one worker per target, waits for every worker to
// finish, and only then drains the result channel. The drain pulls with a
// timeout of Delay and stops at the first empty pull, so Delay is also the
// pause between iterations. Delay doubles as every worker's socket timeout.
type Coordinator struct {
	Logger     *zap.Logger
	Prober     probe.Prober
	Store      repo.RecordStore
	Notifier   notify.Notifier // optional, told about iterations with failures
	Targets    []string
	Iterations int
	Delay      time.Duration
	RunID      string
	Now        func() time.Time

	ids probe.TxnIDs
}

func NewCoordinator(
	logger *zap.Logger,
	prober probe.Prober,
	store repo.RecordStore,
	targets []string,
	iterations int,
	delay time.Duration,
) *Coordinator {
	if iterations < 1 {
		iterations = 1
	}
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Coordinator{
		Logger:     logger,
		Prober:     prober,
		Store:      store,
		Targets:    targets,
		Iterations: iterations,
		Delay:      delay,
		RunID:      uuid.NewString(),
		Now:        time.Now,
	}
}

// Run executes all iterations and returns one summary per finished
// iteration. It only returns an error when ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) ([]domain.IterationSummary, error) {
	// Every worker of an iteration sends exactly once before the join
	// completes, so capacity len(Targets) never blocks a worker.
	results := make(chan probe.Result, len(c.Targets))

	c.Logger.Info("run_started",
		zap.String("run_id", c.RunID),
		zap.Strings("targets", c.Targets),
		zap.Int("iterations", c.Iterations),
		zap.Duration("delay", c.Delay),
	)

	summaries := make([]domain.IterationSummary, 0, c.Iterations)
	for i := 0; i < c.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		summaries = append(summaries, c.runIteration(ctx, i, results))
	}
	c.Logger.Info("run_finished", zap.String("run_id", c.RunID))
	return summaries, ctx.Err()
}

func (c *Coordinator) runIteration(ctx context.Context, i int, results chan probe.Result) domain.IterationSummary {
	started := c.Now()
	log := c.Logger.With(zap.Int("iteration", i))
	log.Info("iteration_started",
		zap.String("datetime", started.Format(domain.DatetimeLayout)),
		zap.Int("targets", len(c.Targets)),
	)

	c.spawn(ctx, results)
	s := c.drain(ctx, log, i, started, results)

	log.Info("iteration_complete",
		zap.Int("drained", s.Drained),
		zap.Int("written", s.Written),
		zap.Int("failed", s.Failed),
		zap.Int("missing", s.Missing()),
	)
	if c.Notifier != nil && s.Failed+s.Missing() > 0 {
		c.notify(ctx, log, s)
	}
	return s
}

// spawn starts one worker per target and blocks until all of them have
// handed their result to the channel.
func (c *Coordinator) spawn(ctx context.Context, results chan<- probe.Result) {
	var wg sync.WaitGroup
	for _, target := range c.Targets {
		target := target
		txnID := c.ids.Next()
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.probeOne(ctx, txnID, target)
		}()
	}
	wg.Wait()
}

// probeOne guarantees a result even if the prober panics.
func (c *Coordinator) probeOne(ctx context.Context, txnID, target string) (res probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("probe_panic",
				zap.String("target", target),
				zap.String("txn_id", txnID),
				zap.Any("panic", r),
			)
			res = probe.Result{
				TransactionID: txnID,
				Target:        target,
				Failure:       probe.FailureInternal,
				Err:           fmt.Errorf("probe panic: %v", r),
			}
		}
	}()
	return c.Prober.Probe(ctx, txnID, target, c.Delay)
}

func (c *Coordinator) drain(ctx context.Context, log *zap.Logger, i int, started time.Time, results <-chan probe.Result) domain.IterationSummary {
	s := domain.IterationSummary{
		RunID:     c.RunID,
		Iteration: i,
		StartedAt: started,
		Targets:   len(c.Targets),
		Failures:  make(map[string]int),
	}
	for {
		select {
		case res := <-results:
			s.Drained++
			c.handle(ctx, log, &s, res)
		case <-time.After(c.Delay):
			return s
		case <-ctx.Done():
			log.Info("drain_cancelled", zap.Int("drained", s.Drained))
			return s
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, log *zap.Logger, s *domain.IterationSummary, res probe.Result) {
	if res.Failed() {
		// the worker already logged the warning; a marker only uses up its slot
		s.Failed++
		s.Failures[res.Failure.String()]++
		log.Debug("result_failed",
			zap.String("target", res.Target),
			zap.String("txn_id", res.TransactionID),
			zap.Stringer("kind", res.Failure),
		)
		return
	}

	rec := NewRecord(c.RunID, s.Iteration, s.StartedAt, res)
	log.Info("result",
		zap.String("server", rec.Server),
		zap.String("txn_id", rec.TransactionID),
		zap.Bool("tcp_success", rec.TCPSuccess),
		zap.Float64("tcp_time_ms", rec.TCPTimeMS),
		zap.Float64("http_time_ms", rec.HTTPTimeMS),
		zap.Float64("total_time_ms", rec.TotalTimeMS),
		zap.Int("pagesize", rec.PageSize),
		zap.Bool("is_success", rec.IsSuccess),
	)
	if err := c.Store.Append(ctx, rec); err != nil {
		log.Warn("store_append_error",
			zap.String("server", rec.Server),
			zap.String("txn_id", rec.TransactionID),
			zap.Error(err),
		)
		return
	}
	s.Written++
}

func (c *Coordinator) notify(ctx context.Context, log *zap.Logger, s domain.IterationSummary) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	title, text := notify.FormatSummary(s)
	if err := c.Notifier.Send(nctx, title, text); err != nil {
		log.Warn("notify_error", zap.Error(err))
	}
}

// NewRecord labels a successful or partial result with its iteration.
func NewRecord(runID string, iteration int, started time.Time, res probe.Result) *domain.Record {
	o := res.Outcome
	return &domain.Record{
		RunID:         runID,
		Iteration:     iteration,
		StartedAt:     started,
		TransactionID: res.TransactionID,
		Server:        res.Target,
		HTTPRequest:   o.RequestText,
		TCPSuccess:    o.TCPConnected,
		TCPTimeMS:     millis(o.TCPTime),
		HTTPTimeMS:    millis(o.HTTPTime),
		TotalTimeMS:   millis(o.TotalTime),
		PageSize:      o.ResponseSize,
		IsSuccess:     o.HTTPSuccess,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
