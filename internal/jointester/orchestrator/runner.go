package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	log "github.com/armadaproject/jointester/internal/common/logging"
	"github.com/armadaproject/jointester/internal/jointester/attributes"
	"github.com/armadaproject/jointester/internal/jointester/batch"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/corpus"
	"github.com/armadaproject/jointester/internal/jointester/indexclient"
	"github.com/armadaproject/jointester/internal/jointester/model"
	"github.com/armadaproject/jointester/internal/jointester/progress"
)

// Runner generates the corpus and streams it to an index client.
//
// Generation, batching and progress reporting all happen on the goroutine calling Run. The first error from any
// of them aborts the run; batches already handed to the index client are not rolled back.
type Runner struct {
	config configuration.Config
	attrs  attributes.Generator
	client indexclient.Client
	clock  clock.PassiveClock

	mu      sync.Mutex
	state   State
	runCtx  *model.RunContext
	tracker *progress.Tracker
}

// NewRunner creates a Runner in the Idle state. client must already be connected.
func NewRunner(
	config configuration.Config,
	attrs attributes.Generator,
	client indexclient.Client,
	clock clock.PassiveClock,
) *Runner {
	return &Runner{
		config: config,
		attrs:  attrs,
		client: client,
		clock:  clock,
		state:  StateIdle,
	}
}

// Run performs a complete run. It may only be called once.
func (r *Runner) Run(ctx context.Context) error {
	if r.State() != StateIdle {
		return errors.Errorf("runner is %s, not %s", r.State(), StateIdle)
	}

	corpusConfig := r.config.Corpus
	runCtx := model.NewRunContext(corpusConfig.IdCounterSeed, r.clock.Now())
	tracker := progress.NewTracker(corpusConfig.TotalRecords(), r.attrs, r.clock)
	r.mu.Lock()
	r.runCtx = runCtx
	r.tracker = tracker
	r.mu.Unlock()

	generator := corpus.NewGenerator(corpusConfig, r.attrs)
	accumulator := batch.NewAccumulator(r.config.Batch.Threshold, 1+corpusConfig.ChildrenPerParent)

	log.Infof(
		"Generating %s parents with %s children each, flushing every %s records",
		r.attrs.FormatNumber(int64(corpusConfig.Parents)),
		r.attrs.FormatNumber(int64(corpusConfig.ChildrenPerParent)),
		r.attrs.FormatNumber(int64(r.config.Batch.Threshold)),
	)

	r.setState(StateGenerating)
	for i := 0; i < corpusConfig.Parents; i++ {
		if err := ctx.Err(); err != nil {
			return r.abort(errors.Wrapf(err, "run interrupted after %d parents", i))
		}
		body, instances, err := generator.NextParentGroup(runCtx)
		if err != nil {
			return r.abort(errors.WithMessagef(err, "generating parent %d", i))
		}
		accumulator.Append(corpus.Arrange(corpusConfig.ChildMode, body, instances)...)

		if b, ok := accumulator.TryFlush(); ok {
			r.setState(StateFlushing)
			if err := r.flush(ctx, runCtx, tracker, b); err != nil {
				return r.abort(err)
			}
			r.setState(StateGenerating)
		}
	}

	r.setState(StateFinalFlushing)
	if b, ok := accumulator.Drain(); ok {
		if err := r.flush(ctx, runCtx, tracker, b); err != nil {
			return r.abort(err)
		}
	}

	r.setState(StateCommitting)
	log.Info("Committing")
	if err := r.client.Commit(ctx); err != nil {
		return r.abort(errors.WithMessage(err, "final commit"))
	}
	r.setState(StateDone)

	summary := tracker.Summary(runCtx)
	log.WithFields(map[string]any{
		"records":  summary.Added,
		"flushes":  summary.Flushes,
		"duration": summary.Duration.Round(time.Millisecond).String(),
	}).Infof("Run complete, %s records indexed at %.0f records/sec", r.attrs.FormatNumber(summary.Added), summary.MeanRate)
	return nil
}

func (r *Runner) flush(ctx context.Context, runCtx *model.RunContext, tracker *progress.Tracker, b batch.Batch) error {
	if err := r.client.AddBatch(ctx, b.Records, r.config.Batch.CommitWithin); err != nil {
		return errors.WithMessagef(err, "adding batch of %d records", b.Size)
	}
	runCtx.RecordFlushed(b.Size)
	tracker.Observe(runCtx)
	return nil
}

func (r *Runner) abort(err error) error {
	r.setState(StateAborted)
	return err
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Summary describes the run once Run has returned. It is zero if Run has not been called.
func (r *Runner) Summary() progress.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tracker == nil {
		return progress.Summary{}
	}
	return r.tracker.Summary(r.runCtx)
}

// StartedAt is the time Run was called, or zero if it has not been.
func (r *Runner) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runCtx == nil {
		return time.Time{}
	}
	return r.runCtx.Start()
}
