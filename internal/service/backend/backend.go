// Package backend defines the uniform text generation contract the gateway
// dispatches to, with LibreTranslate, Claude CLI and Ark implementations.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Request is the normalized input handed to a backend.
type Request struct {
	Text         string
	SystemPrompt string
	ModelHint    string
}

// Result is the output of exactly one backend call.
type Result struct {
	Text  string
	Model string

	// Passthrough is set when a best-effort backend returned (part of) its
	// input unchanged because the upstream failed.
	Passthrough bool
}

// Backend turns normalized text into generated text. Implementations must
// not touch session or request state.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (Result, error)
}

// Error reports a failed backend call.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err is, or wraps, a backend Error.
func IsError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}
