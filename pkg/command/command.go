package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/golang/glog"
)

// Status classifies how an external command finished
type Status int

const (
	// Success means the command ran and exited 0
	Success Status = iota
	// ExitCode means the command ran but exited non-zero or was killed
	ExitCode
	// IOError means the command could not be issued at all
	IOError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case ExitCode:
		return "exitCode"
	case IOError:
		return "ioError"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result of a single command invocation
type Result struct {
	Status   Status
	ExitCode int
	Output   []byte
	Err      error
}

// ExitError reports a command that ran to completion with a non-zero status
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
}

// Error converts a non-successful result to an error. A Success result returns nil.
func (r Result) Error(cmdline string) error {
	switch r.Status {
	case Success:
		return nil
	case ExitCode:
		return &ExitError{Command: cmdline, Code: r.ExitCode}
	default:
		return r.Err
	}
}

// Runner issues OS commands
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands with os/exec. A zero Timeout means the command may run forever.
type ExecRunner struct {
	Timeout time.Duration
}

// Run implements Runner
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmdline := Line(name, args...)
	glog.Infof("running %s", cmdline)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if len(out) > 0 {
		glog.V(2).Infof("%s output: %s", cmdline, strings.TrimSpace(string(out)))
	}
	if err == nil {
		return Result{Status: Success, Output: out}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode() is -1 when the process was killed by a signal, e.g. on timeout
		return Result{Status: ExitCode, ExitCode: exitErr.ExitCode(), Output: out, Err: err}
	}
	return Result{Status: IOError, ExitCode: -1, Output: out, Err: err}
}

// Line renders a command line for logging
func Line(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
