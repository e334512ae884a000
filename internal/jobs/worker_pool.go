package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"
)

// HandlerFunc executes one leased job. A nil return marks the job succeeded;
// a terminal error parks it; any other error schedules a retry with backoff.
type HandlerFunc func(ctx context.Context, j *job.Job) error

// QueueConfig sets the worker pool parameters for one queue.
type QueueConfig struct {
	// Name of the queue to poll.
	Name string

	// Workers is the number of goroutines polling the queue concurrently.
	Workers int

	// PollInterval is how long an idle worker sleeps between polls.
	PollInterval time.Duration

	// LeaseFor is the visibility timeout granted per execution attempt.
	// Must comfortably exceed the slowest handler run.
	LeaseFor time.Duration
}

// WorkerPool drains the durable job queues. Each queue gets a configured
// number of worker goroutines; each worker leases one job at a time under
// FOR UPDATE SKIP LOCKED, executes the handler registered for the job's
// type, and persists the outcome.
//
// Two workers can never execute the same job concurrently: the lease is
// taken in its own committed transaction before the handler runs, and an
// expired lease is only handed out again by the reclaim sweep.
type WorkerPool struct {
	uowFactory ports.UnitOfWorkFactory
	handlers   map[string]HandlerFunc
	queues     []QueueConfig
	logger     *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWorkerPool creates a pool over the given queues. Handlers are keyed by
// job type; a leased job with no registered handler is parked.
func NewWorkerPool(
	uowFactory ports.UnitOfWorkFactory,
	handlers map[string]HandlerFunc,
	queues []QueueConfig,
	logger *slog.Logger,
) *WorkerPool {
	return &WorkerPool{
		uowFactory: uowFactory,
		handlers:   handlers,
		queues:     queues,
		logger:     logger.With("component", "worker_pool"),
		stop:       make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	for _, queue := range p.queues {
		for i := 0; i < queue.Workers; i++ {
			p.wg.Add(1)
			go p.run(queue)
		}
	}
	p.logger.InfoContext(context.Background(), "Worker pool started", "queues", len(p.queues))
}

// Stop signals all workers and waits for in-flight jobs to finish.
func (p *WorkerPool) Stop() {
	close(p.stop)
	p.wg.Wait()
	p.logger.InfoContext(context.Background(), "Worker pool stopped")
}

func (p *WorkerPool) run(queue QueueConfig) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		worked, err := p.runOne(context.Background(), queue)
		if err != nil {
			p.logger.Error("Queue poll failed", "queue", queue.Name, "error", err)
		}
		if worked {
			continue
		}

		select {
		case <-p.stop:
			return
		case <-time.After(queue.PollInterval):
		}
	}
}

// runOne leases and executes at most one job. Returns worked=false when the
// queue had nothing due.
func (p *WorkerPool) runOne(ctx context.Context, queue QueueConfig) (bool, error) {
	j, err := p.lease(ctx, queue)
	if err != nil || j == nil {
		return false, err
	}

	handlerErr := p.execute(ctx, j)
	if err = p.settle(ctx, j, handlerErr); err != nil {
		return true, err
	}

	return true, nil
}

// lease claims the next due job in its own committed transaction, so the
// lease survives a worker crash during execution.
func (p *WorkerPool) lease(ctx context.Context, queue QueueConfig) (*job.Job, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	j, err := uow.JobRepository().LeaseNextDue(ctx, queue.Name, queue.LeaseFor)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return j, nil
}

// errNoHandler parks jobs whose type nothing is registered for.
var errNoHandler = errors.New("no handler registered for job type")

func (p *WorkerPool) execute(ctx context.Context, j *job.Job) error {
	handler, ok := p.handlers[j.Type()]
	if !ok {
		return fmt.Errorf("%w %q", errNoHandler, j.Type())
	}
	return handler(ctx, j)
}

// settle persists the execution outcome.
func (p *WorkerPool) settle(ctx context.Context, j *job.Job, handlerErr error) error {
	now := time.Now().UTC()

	switch {
	case handlerErr == nil:
		if err := j.Succeed(); err != nil {
			return err
		}

	case isTerminal(handlerErr):
		p.logger.Error("Job parked", "job_id", j.ID(), "job_type", j.Type(), "error", handlerErr)
		if err := j.Park(handlerErr); err != nil {
			return err
		}

	default:
		p.logger.Warn("Job attempt failed",
			"job_id", j.ID(), "job_type", j.Type(), "attempt", j.Attempts(), "error", handlerErr)
		if err := j.Fail(now, handlerErr); err != nil {
			return err
		}
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.JobRepository().Update(ctx, j); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// isTerminal reports whether retrying the job cannot change the outcome.
func isTerminal(err error) bool {
	return ports.IsTerminalIntegration(err) ||
		errors.Is(err, ports.ErrUnknownCarrier) ||
		errors.Is(err, commands.ErrShipmentNotBookable) ||
		errors.Is(err, errNoHandler)
}
