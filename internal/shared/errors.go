package shared

import "errors"

var (
	// ErrMalformedReference indicates an externally supplied id that is not a
	// well-formed object reference.
	ErrMalformedReference = errors.New("malformed object reference")
	// ErrAccountInvalid indicates a missing or disabled tenant account.
	ErrAccountInvalid = errors.New("account invalid")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a duplicate create.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyInState indicates a state-idempotent command applied to an
	// entity already in the target state.
	ErrAlreadyInState = errors.New("already in target state")
	// ErrProviderFailed indicates the identity provider returned a failure
	// sentinel. Never retried automatically.
	ErrProviderFailed = errors.New("provider operation failed")
	// ErrTokenInvalid indicates an absent or expired password-recovery token.
	ErrTokenInvalid = errors.New("token expired or invalid")
)

// Terminal reports whether the error belongs to the command taxonomy, i.e.
// retrying the command cannot change the outcome.
func Terminal(err error) bool {
	for _, sentinel := range []error{
		ErrMalformedReference,
		ErrAccountInvalid,
		ErrNotFound,
		ErrAlreadyExists,
		ErrAlreadyInState,
		ErrProviderFailed,
		ErrTokenInvalid,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Informational reports whether the error records an idempotent no-op rather
// than a real failure, so dispatch layers can log it below error level.
func Informational(err error) bool {
	return errors.Is(err, ErrAlreadyInState)
}
