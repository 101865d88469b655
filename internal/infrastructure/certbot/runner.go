package certbot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// Runner executes an external program and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run blocks until the program exits. Cancelling ctx kills the child.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	logger.FromContext(ctx).Debug("running command", "cmd", commandLine(name, args))
	err := cmd.Run()
	if err != nil {
		return stdoutBuf.String(), stderrBuf.String(), commandError(name, err, stderrBuf.String())
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

func commandError(name string, err error, stderr string) error {
	detail := lastLine(stderr)
	if detail == "" {
		return fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, name, err)
	}
	return fmt.Errorf("%w: %s: %w: %s", domain.ErrCommandFailed, name, err, detail)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
