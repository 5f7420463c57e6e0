package codeassist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// NoIssuesFound is reported when the linter prints nothing.
const NoIssuesFound = "No issues found."

// Linter performs static analysis on a code snippet and returns a
// human readable report.
type Linter interface {
	Lint(ctx context.Context, code string) (string, error)
}

// LinterFunc adapts a function to Linter.
type LinterFunc func(ctx context.Context, code string) (string, error)

// Lint implements Linter.
func (f LinterFunc) Lint(ctx context.Context, code string) (string, error) { return f(ctx, code) }

// CommandLinter writes the snippet to a temporary file and runs an external
// linter on it. The file path is appended as the last argument.
type CommandLinter struct {
	Command string
	Args    []string
	// Suffix is the temp file extension, ".py" by default.
	Suffix  string
	Timeout time.Duration
}

// NewPylint returns a CommandLinter running pylint with text output.
func NewPylint() *CommandLinter {
	return &CommandLinter{
		Command: "pylint",
		Args:    []string{"--output-format=text"},
		Suffix:  ".py",
		Timeout: 30 * time.Second,
	}
}

// Lint implements Linter. Linters signal findings through non-zero exit
// codes, so only a failure to start the command is an error; its stdout
// is the report either way.
func (l *CommandLinter) Lint(ctx context.Context, code string) (string, error) {
	suffix := l.Suffix
	if suffix == "" {
		suffix = ".py"
	}

	f, err := os.CreateTemp("", "codeassist-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(code); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, l.Args...), f.Name())
	cmd := exec.CommandContext(ctx, l.Command, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			return "", fmt.Errorf("run %s: %w", l.Command, err)
		}
	}

	if stdout.Len() == 0 {
		return NoIssuesFound, nil
	}
	return stdout.String(), nil
}
