package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"spritegg/internal/logging"
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	config ExecutorConfig
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.BackendDebug("Creating DirectExecutor: timeout=%s, maxOutput=%d bytes",
		config.DefaultTimeout, config.MaxOutputBytes)
	return &DirectExecutor{config: config}
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	cmd = e.config.Merge(cmd)
	logging.BackendDebug("Executing: %s (dir=%s, timeout=%s)", cmd.CommandString(), cmd.WorkingDirectory, cmd.Timeout)

	result := &ExecutionResult{
		ExitCode: -1,
		Command:  &cmd,
	}

	var execCtx context.Context
	var cancel context.CancelFunc
	if cmd.Timeout == NoTimeout {
		execCtx, cancel = context.WithCancel(ctx)
	} else {
		execCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
	}
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = e.buildEnvironment(cmd.Environment)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: cmd.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: cmd.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Truncated = stdoutLimited.truncated || stderrLimited.truncated
	if result.Truncated {
		logging.BackendWarn("Command output truncated: %s", cmd.Binary)
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			result.Killed = true
			result.KillReason = fmt.Sprintf("timeout after %s", cmd.Timeout)
			if cmd.Timeout == NoTimeout {
				result.KillReason = "caller deadline exceeded"
			}
			result.Success = true // Infrastructure worked, command was killed
			logging.BackendWarn("Command killed (timeout): %s after %s", cmd.Binary, cmd.Timeout)
		case errors.Is(execCtx.Err(), context.Canceled):
			result.Killed = true
			result.KillReason = "context canceled"
			result.Success = true
			logging.BackendDebug("Command canceled: %s", cmd.Binary)
		case errors.As(err, &exitErr):
			result.Success = true // Command ran, just returned non-zero
			result.ExitCode = exitErr.ExitCode()
			logging.BackendDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
		default:
			result.Success = false
			result.Error = err.Error()
			logging.BackendError("Command failed: %s - %v", cmd.Binary, err)
		}
		return result, nil
	}

	result.Success = true
	result.ExitCode = 0
	logging.BackendDebug("Command completed: %s -> exit=0, duration=%s", cmd.Binary, result.Duration)
	return result, nil
}

// buildEnvironment creates the environment variable list.
func (e *DirectExecutor) buildEnvironment(cmdEnv []string) []string {
	env := make([]string, 0, len(e.config.AllowedEnvironment)+len(cmdEnv))

	for _, key := range e.config.AllowedEnvironment {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}

	if len(e.config.AllowedEnvironmentPrefixes) > 0 {
		for _, kv := range os.Environ() {
			for _, prefix := range e.config.AllowedEnvironmentPrefixes {
				if strings.HasPrefix(kv, prefix) {
					env = append(env, kv)
					break
				}
			}
		}
	}

	return append(env, cmdEnv...)
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
