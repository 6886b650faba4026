// Package comms resolves per-account communication rules and dispatches
// notification commands to the messaging service.
package comms

// Event names a lifecycle moment that has a per-account messaging rule.
type Event string

// Events with communication rules.
const (
	OnUserCreated             Event = "user_created"
	OnPasswordChangeRequested Event = "password_change_requested"
	OnPasswordChanged         Event = "password_changed"
	OnUserActivated           Event = "user_activated"
	OnUserDeactivated         Event = "user_deactivated"
)

// Rule is the template binding plus default content parameters (including
// the redirect URL base) configured for one event on one account.
type Rule struct {
	TemplateID               string            `json:"template_id"`
	DefaultContentParameters map[string]string `json:"default_content_parameters"`
}

// Rules holds every event rule configured for an account's auth server.
type Rules struct {
	OnUserCreated             *Rule `json:"on_user_created"`
	OnPasswordChangeRequested *Rule `json:"on_password_change_requested"`
	OnPasswordChanged         *Rule `json:"on_password_changed"`
	OnUserActivated           *Rule `json:"on_user_activated"`
	OnUserDeactivated         *Rule `json:"on_user_deactivated"`
}

// For returns the rule for an event, or nil when none is configured.
func (r *Rules) For(event Event) *Rule {
	if r == nil {
		return nil
	}
	switch event {
	case OnUserCreated:
		return r.OnUserCreated
	case OnPasswordChangeRequested:
		return r.OnPasswordChangeRequested
	case OnPasswordChanged:
		return r.OnPasswordChanged
	case OnUserActivated:
		return r.OnUserActivated
	case OnUserDeactivated:
		return r.OnUserDeactivated
	}
	return nil
}
