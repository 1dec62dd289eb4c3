// Package tactile runs external programs for spritegg: the image compositing
// tools and, from the HTTP bridge, the builder itself as an isolated child
// process. Every execution is bounded by a timeout and returns a structured
// result instead of a bare error so callers can report exit codes and
// output tails.
package tactile

import (
	"strconv"
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "magick", "montage").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, uses the executor's default working directory.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment variables to set (in KEY=VALUE format).
	// These are merged with the executor's allowed environment.
	Environment []string `json:"environment,omitempty"`

	// Timeout bounds wall-clock execution. Zero means the executor default,
	// NoTimeout runs until the process exits or the context is canceled.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxOutputBytes limits captured stdout and stderr each.
	// Zero means the executor default.
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty"`
}

// NoTimeout disables the executor's default and maximum timeout for one
// command.
const NoTimeout time.Duration = -1

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ExecutionResult is the outcome of running a Command.
type ExecutionResult struct {
	// Success reports whether the process could be run at all. A non-zero
	// exit or a timeout kill still counts as success; check ExitCode and Killed.
	Success bool `json:"success"`

	// ExitCode is the process exit status, -1 if it never exited normally.
	ExitCode int `json:"exit_code"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Killed is set when the process was terminated by timeout or cancellation.
	Killed     bool   `json:"killed"`
	KillReason string `json:"kill_reason,omitempty"`

	// Error describes an infrastructure failure (binary missing, etc).
	Error string `json:"error,omitempty"`

	Truncated bool `json:"truncated"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`

	Command *Command `json:"-"`
}

// IsError reports whether the command failed for any reason: it could not
// start, was killed, or exited non-zero.
func (r *ExecutionResult) IsError() bool {
	return !r.Success || r.Killed || r.ExitCode != 0
}

// Output returns combined stdout and stderr.
func (r *ExecutionResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Reason summarizes why the command failed, for error messages.
func (r *ExecutionResult) Reason() string {
	switch {
	case !r.Success:
		return r.Error
	case r.Killed:
		return r.KillReason
	case r.ExitCode != 0:
		tail := LastLine(r.Stderr)
		if tail == "" {
			tail = LastLine(r.Stdout)
		}
		if tail == "" {
			return "exit status " + strconv.Itoa(r.ExitCode)
		}
		return "exit status " + strconv.Itoa(r.ExitCode) + ": " + tail
	default:
		return ""
	}
}

// LastLine returns the last non-empty line of s, trimmed.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// ExecutorConfig holds executor defaults.
type ExecutorConfig struct {
	DefaultWorkingDir string
	DefaultTimeout    time.Duration
	MaxTimeout        time.Duration
	MaxOutputBytes    int64

	// AllowedEnvironment lists variables copied from the parent process.
	AllowedEnvironment []string

	// AllowedEnvironmentPrefixes copies every parent variable with one of
	// these prefixes.
	AllowedEnvironmentPrefixes []string
}

// DefaultExecutorConfig returns defaults suited to image tools.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultWorkingDir:          "",
		DefaultTimeout:             5 * time.Minute,
		MaxTimeout:                 time.Hour,
		MaxOutputBytes:             1024 * 1024,
		AllowedEnvironment:         []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "TMPDIR", "TMP", "TEMP", "SYSTEMROOT"},
		AllowedEnvironmentPrefixes: []string{"MAGICK_", "SPRITEGG_"},
	}
}

// Merge combines this config with command-specific settings.
// Command settings override config defaults.
func (c ExecutorConfig) Merge(cmd Command) Command {
	result := cmd
	if result.WorkingDirectory == "" {
		result.WorkingDirectory = c.DefaultWorkingDir
	}
	if result.Timeout == 0 {
		result.Timeout = c.DefaultTimeout
	}
	if result.Timeout < 0 {
		result.Timeout = NoTimeout
	} else if c.MaxTimeout > 0 && result.Timeout > c.MaxTimeout {
		result.Timeout = c.MaxTimeout
	}
	if result.MaxOutputBytes <= 0 {
		result.MaxOutputBytes = c.MaxOutputBytes
	}
	return result
}
