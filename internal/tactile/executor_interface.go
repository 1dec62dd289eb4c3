package tactile

import (
	"context"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command and returns a comprehensive result.
	// The returned error is reserved for invalid commands; process failures
	// are reported through the result.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd Command) (*ExecutionResult, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	return f(ctx, cmd)
}
