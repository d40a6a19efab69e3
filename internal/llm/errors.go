package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrTimeout           = errors.New("language model timed out")
	ErrEmptyResponse     = errors.New("language model returned an empty response")
	ErrNonTextResponse   = errors.New("language model returned a non-text response")
	ErrUnavailable       = errors.New("language model unavailable")
)

// CredentialError names the environment variable that should hold the API key.
// Sessions show it as "Error: <message>", like any other failed call.
type CredentialError struct {
	Env string
}

func (e *CredentialError) Error() string {
	return e.Env + " not set in environment"
}

func (e *CredentialError) Unwrap() error { return ErrMissingCredential }

// classify maps a transport error onto ErrTimeout or ErrUnavailable.
func classify(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, provider, err)
	}
	return fmt.Errorf("%w: failed to get response from %s: %v", ErrUnavailable, provider, err)
}
