package indexclient

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/armadaproject/jointester/internal/jointester/metrics"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

var errClosed = errors.New("index client is closed")

type pendingBatch struct {
	records      []model.Record
	commitWithin time.Duration
}

// Async is a Client that queues batches and sends them to a Backend from a fixed pool of goroutines.
// AddBatch only blocks while the queue is full. The first send failure is latched: it stops the senders, no
// batch is started after it, and it is returned by every later call to AddBatch or Commit. With one sender a
// failure leaves exactly the batches before it indexed; with more, batches already in flight alongside the
// failing one may still land.
// AddBatch and Commit must be called from a single goroutine; Close may be called from any.
type Async struct {
	backend  Backend
	metrics  *metrics.Metrics
	queue    chan pendingBatch
	ctx      context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group
	groupCtx context.Context

	mu        sync.Mutex
	failure   error
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewAsync starts threads senders draining a queue of queueSize batches into backend. The backend must already
// be connected.
func NewAsync(ctx context.Context, backend Backend, queueSize, threads int, m *metrics.Metrics) *Async {
	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	a := &Async{
		backend:  backend,
		metrics:  m,
		queue:    make(chan pendingBatch, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
		groupCtx: groupCtx,
	}
	for i := 0; i < threads; i++ {
		group.Go(a.runSender)
	}
	return a
}

func (a *Async) AddBatch(ctx context.Context, records []model.Record, commitWithin time.Duration) error {
	if err := a.err(); err != nil {
		return err
	}
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return errClosed
	}

	select {
	case a.queue <- pendingBatch{records: records, commitWithin: commitWithin}:
		a.metrics.RecordQueueDepth(len(a.queue))
		return nil
	case <-a.groupCtx.Done():
		if err := a.err(); err != nil {
			return err
		}
		return errors.WithStack(a.groupCtx.Err())
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Commit waits for every queued batch to be sent and then issues a blocking commit to the backend. No
// batches can be added afterwards.
func (a *Async) Commit(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errClosed
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	if err := a.group.Wait(); err != nil {
		return err
	}
	if err := a.ctx.Err(); err != nil {
		return errors.Wrap(err, "batches were not sent before commit")
	}
	if err := a.backend.Commit(ctx); err != nil {
		return errors.WithMessage(err, "committing")
	}
	a.metrics.RecordCommit()
	return nil
}

// Close stops the senders, dropping any batches still queued, and closes the backend. Only Commit closes the
// queue, so Close is safe to call while AddBatch is blocked.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.cancel()
		_ = a.group.Wait()
		a.closeErr = a.backend.Close()
	})
	return a.closeErr
}

func (a *Async) runSender() error {
	for {
		select {
		case <-a.groupCtx.Done():
			return nil
		case batch, ok := <-a.queue:
			if !ok {
				return nil
			}
			if a.groupCtx.Err() != nil || a.err() != nil {
				return nil
			}
			if err := a.send(batch); err != nil {
				a.latch(err)
				return err
			}
		}
	}
}

func (a *Async) send(batch pendingBatch) error {
	a.metrics.RecordQueueDepth(len(a.queue))
	start := time.Now()
	err := a.backend.Send(a.groupCtx, batch.records, batch.commitWithin)
	a.metrics.RecordBatchSent(batch.records, time.Since(start), err)
	if err != nil {
		return errors.WithMessagef(err, "sending batch of %d records", model.CountRecords(batch.records))
	}
	return nil
}

func (a *Async) latch(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failure == nil {
		a.failure = err
	}
}

func (a *Async) err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failure
}
