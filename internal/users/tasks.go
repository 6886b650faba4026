package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/helix-id/helix/jobs"
)

// Task types for the fire-and-forget lifecycle commands.
const (
	TaskActivate          = "user:activate"
	TaskDeactivate        = "user:deactivate"
	TaskAddGroup          = "user:add-group"
	TaskRemoveGroup       = "user:remove-group"
	TaskChangePassword    = "user:change-password"
	TaskSetPassword       = "user:set-password"
	TaskExpirePassword    = "user:expire-password"
	TaskClearSessions     = "user:clear-sessions"
	TaskChangeUserType    = "user:change-type"
	TaskResendFirstAccess = "user:resend-first-access"
)

func handle[C any](taskType string, logger *slog.Logger, run func(context.Context, C) error) jobs.TaskHandler {
	return jobs.TaskHandler{Type: taskType, Handler: func(ctx context.Context, t *asynq.Task) error {
		var cmd C
		if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
			return fmt.Errorf("%s: decode: %w", taskType, asynq.SkipRetry)
		}
		return jobs.Finish(logger, taskType, run(ctx, cmd))
	}}
}

// TaskHandlers adapts the lifecycle orchestrators to the command queue.
// Terminal taxonomy failures are logged and dropped; transport faults retry.
func TaskHandlers(service *Service, logger *slog.Logger) []jobs.TaskHandler {
	return []jobs.TaskHandler{
		handle(TaskActivate, logger, service.Activate),
		handle(TaskDeactivate, logger, service.Deactivate),
		handle(TaskAddGroup, logger, service.AddGroup),
		handle(TaskRemoveGroup, logger, service.RemoveGroup),
		handle(TaskChangePassword, logger, service.ChangePassword),
		handle(TaskSetPassword, logger, service.SetPassword),
		handle(TaskExpirePassword, logger, service.ExpirePassword),
		handle(TaskClearSessions, logger, service.ClearSessions),
		handle(TaskChangeUserType, logger, service.ChangeUserType),
		handle(TaskResendFirstAccess, logger, service.ResendFirstAccess),
	}
}
