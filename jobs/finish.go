package jobs

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/helix-id/helix/internal/shared"
)

// Finish classifies a fire-and-forget orchestrator result for the queue:
// taxonomy errors are terminal and must not retry (idempotent no-ops logged
// at info, the rest at error); anything else bubbles up to the queue's
// retry policy.
func Finish(logger *slog.Logger, taskType string, err error) error {
	if err == nil {
		return nil
	}
	if shared.Terminal(err) {
		if shared.Informational(err) {
			logger.Info("command was a no-op", slog.String("task", taskType), slog.Any("reason", err))
		} else {
			logger.Error("command rejected", slog.String("task", taskType), slog.Any("error", err))
		}
		return fmt.Errorf("%s: %v: %w", taskType, err, asynq.SkipRetry)
	}
	return err
}
