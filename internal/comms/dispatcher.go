package comms

import (
	"context"
	"log/slog"
	"strings"
)

// Destination is one recipient of a notification.
type Destination struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Parameter is one template parameter.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Message is the event-agnostic part of a notification.
type Message struct {
	Subject      string
	Destinations []Destination
	Parameters   []Parameter
}

// SendMessagePayload is the outbound notification command consumed by the
// messaging service.
type SendMessagePayload struct {
	AccountID    string        `json:"account_id"`
	TemplateID   string        `json:"template_id"`
	Subject      string        `json:"subject"`
	Destinations []Destination `json:"destinations"`
	Parameters   []Parameter   `json:"parameters"`
}

// Enqueuer submits send-message commands onto the notifications queue.
type Enqueuer interface {
	EnqueueSendMessage(ctx context.Context, payload SendMessagePayload) error
}

// Dispatcher resolves the messaging rule for an event and sends the
// parameterized message. A missing rule skips the notification; it never
// fails the surrounding command.
type Dispatcher struct {
	cache    *RuleCache
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewDispatcher builds a notification dispatcher.
func NewDispatcher(cache *RuleCache, enqueuer Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{cache: cache, enqueuer: enqueuer, logger: logger}
}

// FormatRedirectURL resolves the redirect URL base from the rule's default
// parameters, substituting the account id when the base carries a
// placeholder for it.
func FormatRedirectURL(rule *Rule, accountID string) string {
	if rule == nil || rule.DefaultContentParameters == nil {
		return ""
	}
	base := rule.DefaultContentParameters["redirectUrl"]
	return strings.ReplaceAll(base, "{accountId}", accountID)
}

// Send resolves the rule for the event and enqueues the notification with
// the redirect URL appended to the template parameters.
func (d *Dispatcher) Send(ctx context.Context, accountID string, event Event, msg Message) {
	rules, err := d.cache.GetOrFetch(ctx, accountID)
	if err != nil {
		d.logger.Warn("communication rules unavailable",
			slog.String("account_id", accountID), slog.Any("error", err))
		return
	}

	rule := rules.For(event)
	if rule == nil {
		d.logger.Warn("communication rule not configured",
			slog.String("account_id", accountID), slog.String("event", string(event)))
		return
	}

	parameters := append(msg.Parameters, Parameter{
		Key:   "redirectUrl",
		Value: FormatRedirectURL(rule, accountID),
	})

	payload := SendMessagePayload{
		AccountID:    accountID,
		TemplateID:   rule.TemplateID,
		Subject:      msg.Subject,
		Destinations: msg.Destinations,
		Parameters:   parameters,
	}
	if err := d.enqueuer.EnqueueSendMessage(ctx, payload); err != nil {
		d.logger.Error("send message enqueue failed",
			slog.String("account_id", accountID), slog.String("event", string(event)), slog.Any("error", err))
	}
}

// TaskTypeSendMessage is the task type consumed by the messaging service.
const TaskTypeSendMessage = "comms:send-message"
