package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/taskstore"
)

// statusPollInterval is how often the CLI run polls the status store.
const statusPollInterval = 250 * time.Millisecond

// Run executes one pipeline run end-to-end: it starts the executor, submits
// the configured input, polls the status store until the task is terminal,
// and prints the result. Intended for the CLI; the service façade itself is
// transport-agnostic.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	a.exec.Start(ctx)
	defer a.shutdown()

	a.logger.Info("🚀 Submitting run.", "caller", a.config.Caller)
	sub, err := a.service.SubmitRun(ctx, a.config.Input, a.config.Caller)
	if err != nil {
		return fmt.Errorf("submitting run: %w", err)
	}
	a.logger.Info("Run accepted, waiting for completion.", "taskID", sub.TaskID, "tier", sub.Tier)

	record, err := a.awaitTerminal(ctx, sub.TaskID)
	if err != nil {
		return err
	}

	if record.Status == taskstore.StatusFailed {
		return fmt.Errorf("run %s failed: %s", sub.TaskID, record.Error)
	}

	a.logger.Info("🏁 Run finished.", "taskID", sub.TaskID, "status", record.Status)
	fmt.Fprintln(a.outW, record.Output)
	return nil
}

// awaitTerminal polls the status store until the task reaches a terminal
// status or ctx is cancelled.
func (a *App) awaitTerminal(ctx context.Context, taskID string) (taskstore.Record, error) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		record, err := a.service.GetStatus(ctx, taskID)
		switch {
		case errors.Is(err, taskstore.ErrNotFound):
			// The queued write is synchronous, so a miss here means the
			// record expired out from under us.
			return taskstore.Record{}, fmt.Errorf("task %s vanished from the status store", taskID)
		case err != nil:
			return taskstore.Record{}, fmt.Errorf("polling task %s: %w", taskID, err)
		case record.Status.Terminal():
			return record, nil
		}

		select {
		case <-ctx.Done():
			return taskstore.Record{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// shutdown drains the executor and releases provider resources.
func (a *App) shutdown() {
	a.logger.Debug("Shutting down.")
	a.exec.Stop()
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.store.Close()
	a.logger.Debug("Shutdown complete.")
}
