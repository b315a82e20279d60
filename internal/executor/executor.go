// Package executor accepts run requests, executes the stage graph
// asynchronously on a pool of workers, and writes progress and results to
// the status store. Submission is fire-and-forget: callers get a task ID
// back immediately and poll the store for progress.
//
// One worker owns a task end-to-end, so status writes for a given task are
// strictly ordered. Errors never escape a worker uncaught: every terminal
// outcome is persisted before the worker moves on.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/events"
	"github.com/vk/draftpipe/internal/graph"
	"github.com/vk/draftpipe/internal/pipeline"
	"github.com/vk/draftpipe/internal/taskstore"
	"github.com/vk/draftpipe/internal/tier"
)

// maxErrorLength bounds the diagnostic message persisted for failed tasks.
const maxErrorLength = 1000

// Config tunes the executor. Zero values select the defaults.
type Config struct {
	// Workers is the pool size. Default 4.
	Workers int

	// TaskRetries is how many extra whole-task attempts an infrastructure
	// failure earns. Default 2; negative disables whole-task retries.
	TaskRetries int

	// TaskRetryDelay is the fixed delay before a whole-task retry.
	// Default 60s.
	TaskRetryDelay time.Duration

	// SoftTimeout is the point at which a running task is asked to wind
	// down and fail gracefully. Default 4m.
	SoftTimeout time.Duration

	// HardTimeout is the absolute deadline for one task attempt.
	// Default 5m.
	HardTimeout time.Duration

	// Sleep is injectable for tests; nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.TaskRetries < 0 {
		c.TaskRetries = 0
	} else if c.TaskRetries == 0 {
		c.TaskRetries = 2
	}
	if c.TaskRetryDelay <= 0 {
		c.TaskRetryDelay = time.Minute
	}
	if c.SoftTimeout <= 0 {
		c.SoftTimeout = 4 * time.Minute
	}
	if c.HardTimeout <= 0 {
		c.HardTimeout = 5 * time.Minute
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	return c
}

// Executor runs submitted tasks on its worker pool.
type Executor struct {
	graph    *graph.Graph
	store    taskstore.Store
	notifier events.Notifier
	cfg      Config
	queue    *taskQueue
	now      func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New constructs an Executor. The store should already carry its own retry
// decoration (taskstore.NewRetrying); notifier may be nil for no event sink.
func New(g *graph.Graph, store taskstore.Store, notifier events.Notifier, cfg Config) *Executor {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Executor{
		graph:    g,
		store:    store,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		queue:    newTaskQueue(),
		now:      time.Now,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled and the
// queue is closed and drained.
func (e *Executor) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("Starting executor worker pool.", "workers", e.cfg.Workers)
		for i := 0; i < e.cfg.Workers; i++ {
			e.wg.Add(1)
			go e.worker(ctx, i)
		}
	})
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		e.queue.Close()
		e.wg.Wait()
	})
}

// Submit enqueues a run. It writes the initial queued record and returns
// immediately; the caller polls the status store for progress. The tier only
// influences queue priority, never correctness.
func (e *Executor) Submit(ctx context.Context, taskID, input string, t tier.Tier) error {
	now := e.now()
	record := taskstore.Record{
		Status:    taskstore.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Put(ctx, taskID, record); err != nil {
		return fmt.Errorf("recording queued task: %w", err)
	}
	e.publish(ctx, taskID, record)

	e.queue.Push(&task{
		id:       taskID,
		input:    input,
		priority: t.Priority(),
		attempt:  1,
	})
	ctxlog.FromContext(ctx).Debug("Task enqueued.", "taskID", taskID, "tier", t, "priority", t.Priority())
	return nil
}

// QueueDepth reports the number of tasks waiting for a worker.
func (e *Executor) QueueDepth() int {
	return e.queue.Len()
}

// worker is the processing loop for one pool member. Each iteration owns a
// single task from pickup to terminal status write.
func (e *Executor) worker(ctx context.Context, workerID int) {
	defer e.wg.Done()
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for {
		t, ok := e.queue.Pop()
		if !ok {
			logger.Debug("Worker finished.")
			return
		}
		if ctx.Err() != nil {
			logger.Warn("Context cancelled, abandoning queued task.", "taskID", t.id)
			continue
		}
		e.processTask(ctxlog.WithLogger(ctx, logger.With("taskID", t.id)), t)
	}
}

// processTask runs one delivery of a task and applies the whole-task retry
// policy to infrastructure failures.
func (e *Executor) processTask(ctx context.Context, t *task) {
	logger := ctxlog.FromContext(ctx)

	err := e.runOnce(ctx, t)
	if err == nil {
		return
	}

	if t.attempt <= e.cfg.TaskRetries {
		logger.Warn("Task attempt failed, scheduling whole-task retry.", "attempt", t.attempt, "delay", e.cfg.TaskRetryDelay, "error", err)
		retry := *t
		retry.attempt++
		go func() {
			e.cfg.Sleep(ctx, e.cfg.TaskRetryDelay)
			if ctx.Err() == nil {
				e.queue.Push(&retry)
			}
		}()
		return
	}

	logger.Error("Task failed after exhausting whole-task retries.", "attempts", t.attempt, "error", err)
	e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
		r.Status = taskstore.StatusFailed
		r.Error = truncateError(err.Error())
	})
}

// runOnce executes a single attempt. A nil return means the task reached a
// terminal status (completed or failed); a non-nil return is an
// infrastructure failure eligible for the whole-task retry.
func (e *Executor) runOnce(ctx context.Context, t *task) (err error) {
	logger := ctxlog.FromContext(ctx)

	// Panics inside stages or collaborators must not kill the worker; they
	// count as an infrastructure failure of this attempt.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic while processing task.", "panic", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	// Permanent input error: fail fast, no retry.
	if t.input == "" {
		logger.Warn("Rejecting task with empty input.")
		e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
			r.Status = taskstore.StatusFailed
			r.Error = "input must not be empty"
		})
		return nil
	}

	if err := e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
		r.Status = taskstore.StatusProcessing
		r.Stage = "initializing"
	}); err != nil {
		return err
	}

	if err := e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
		r.Status = taskstore.StatusProcessing
		r.Stage = "processing_workflow"
	}); err != nil {
		return err
	}

	final, timedOut, runErr := e.runGraph(ctx, t.input)
	if timedOut {
		// Soft limit hit: checkpoint a graceful failure instead of being
		// killed mid-write. Not retried.
		logger.Warn("Task exceeded its soft time limit.", "softTimeout", e.cfg.SoftTimeout)
		e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
			r.Status = taskstore.StatusFailed
			r.Error = fmt.Sprintf("task exceeded time limit of %s", e.cfg.SoftTimeout)
		})
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("running stage graph: %w", runErr)
	}

	output := final.FinalOutput
	if output == "" {
		output = "No output generated"
	}

	return e.writeStatus(ctx, t.id, func(r *taskstore.Record) {
		r.Status = taskstore.StatusCompleted
		r.Stage = "done"
		r.Output = output
		r.ResearchSummary = final.ResearchSummary
		if final.Fallback {
			r.Error = truncateError(final.Err)
		}
	})
}

// runGraph executes the stage graph under the soft/hard time limits.
func (e *Executor) runGraph(ctx context.Context, input string) (pipeline.State, bool, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.HardTimeout)
	defer cancel()

	type result struct {
		state pipeline.State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		// This goroutine outlives runOnce's recover, so panics must be
		// converted here to surface as an attempt failure.
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("stage graph panicked: %v", r)}
			}
		}()
		state, err := e.graph.Run(runCtx, pipeline.State{Input: input})
		done <- result{state, err}
	}()

	soft := time.NewTimer(e.cfg.SoftTimeout)
	defer soft.Stop()

	select {
	case res := <-done:
		return res.state, false, res.err
	case <-soft.C:
		// Ask the graph to stop, then wait for it so no write races the
		// checkpoint below. The hard deadline bounds this wait.
		cancel()
		<-done
		return pipeline.State{}, true, nil
	}
}

// writeStatus applies mutate to the task's current record, preserving
// CreatedAt across writes, persists it, and publishes the transition.
func (e *Executor) writeStatus(ctx context.Context, taskID string, mutate func(*taskstore.Record)) error {
	record, err := e.store.Get(ctx, taskID)
	if err != nil {
		// A vanished record still gets its terminal write; CreatedAt is
		// re-derived from now.
		record = taskstore.Record{CreatedAt: e.now()}
	}
	mutate(&record)
	record.UpdatedAt = e.now()

	if err := e.store.Put(ctx, taskID, record); err != nil {
		return err
	}
	e.publish(ctx, taskID, record)
	return nil
}

// publish forwards a transition to the notifier. Best effort only.
func (e *Executor) publish(ctx context.Context, taskID string, record taskstore.Record) {
	if err := e.notifier.Publish(ctx, taskID, record); err != nil {
		ctxlog.FromContext(ctx).Warn("Status event publish failed.", "taskID", taskID, "error", err)
	}
}

// truncateError bounds a diagnostic message to protect the store.
func truncateError(msg string) string {
	if len(msg) <= maxErrorLength {
		return msg
	}
	return msg[:maxErrorLength]
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
