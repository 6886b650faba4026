package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/helix-id/helix/jobs"
)

// Task types for the fire-and-forget recovery commands.
const (
	TaskRequestChange = "recovery:request-change"
	TaskCreate        = "recovery:create"
)

// TaskHandlers adapts the recovery service to the command queue. Terminal
// taxonomy failures are logged and dropped; only transport faults retry.
func TaskHandlers(service *Service, logger *slog.Logger) []jobs.TaskHandler {
	return []jobs.TaskHandler{
		{Type: TaskRequestChange, Handler: func(ctx context.Context, t *asynq.Task) error {
			var cmd RequestChangeCommand
			if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
				return fmt.Errorf("%s: decode: %w", TaskRequestChange, asynq.SkipRetry)
			}
			return jobs.Finish(logger, TaskRequestChange, service.RequestChange(ctx, cmd))
		}},
		{Type: TaskCreate, Handler: func(ctx context.Context, t *asynq.Task) error {
			var cmd CreateByEmailCommand
			if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
				return fmt.Errorf("%s: decode: %w", TaskCreate, asynq.SkipRetry)
			}
			return jobs.Finish(logger, TaskCreate, service.CreateByEmail(ctx, cmd))
		}},
	}
}
