package codeassist

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellLinter(t *testing.T, script string) *CommandLinter {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	// The temp file path lands in $0.
	return &CommandLinter{Command: "sh", Args: []string{"-c", script}}
}

func TestCommandLinter_PassesSnippetAsFile(t *testing.T) {
	l := shellLinter(t, `cat "$0"`)

	got, err := l.Lint(context.Background(), "print('hi')\n")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", got)
}

func TestCommandLinter_FindingsWithNonZeroExit(t *testing.T) {
	l := shellLinter(t, `echo "W0612: Unused variable 'x'"; exit 4`)

	got, err := l.Lint(context.Background(), "x = 1\n")
	require.NoError(t, err)
	assert.Equal(t, "W0612: Unused variable 'x'\n", got)
}

func TestCommandLinter_EmptyOutput(t *testing.T) {
	l := shellLinter(t, `exit 0`)

	got, err := l.Lint(context.Background(), "pass\n")
	require.NoError(t, err)
	assert.Equal(t, NoIssuesFound, got)
}

func TestCommandLinter_MissingBinary(t *testing.T) {
	l := &CommandLinter{Command: "definitely-not-a-linter-binary"}

	_, err := l.Lint(context.Background(), "pass\n")
	assert.Error(t, err)
}

func TestNewPylint(t *testing.T) {
	l := NewPylint()
	assert.Equal(t, "pylint", l.Command)
	assert.Equal(t, []string{"--output-format=text"}, l.Args)
	assert.Equal(t, ".py", l.Suffix)
}
