package codeassist

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/supportmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snippet = "def add(a, b):\n    return a + b"

func TestExpert_ExplainAndOptimize(t *testing.T) {
	m := model.NewScriptedModel(
		model.TextStep("It adds two numbers."),
		model.TextStep("It is already optimal."),
	)
	e := New(m)

	got, err := e.Explain(context.Background(), snippet)
	require.NoError(t, err)
	assert.Equal(t, "It adds two numbers.", got)

	got, err = e.Optimize(context.Background(), snippet)
	require.NoError(t, err)
	assert.Equal(t, "It is already optimal.", got)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, expertInstruction, reqs[0].Instructions)
	assert.Equal(t, "Explain the following Python code:\n\n"+snippet, reqs[0].Contents[len(reqs[0].Contents)-1].Text())
	assert.Equal(t, "Optimize the following Python function for efficiency:\n\n"+snippet, reqs[1].Contents[len(reqs[1].Contents)-1].Text())
}

func TestExpert_Review(t *testing.T) {
	m := model.NewScriptedModel(
		model.TextStep("explanation"),
		model.TextStep("optimization"),
	)
	var linted string
	e := New(m, func(o *Options) {
		o.Linter = LinterFunc(func(_ context.Context, code string) (string, error) {
			linted = code
			return "C0114: Missing module docstring", nil
		})
	})

	report, err := e.Review(context.Background(), snippet)
	require.NoError(t, err)
	assert.Equal(t, &Report{
		Explanation:  "explanation",
		Lint:         "C0114: Missing module docstring",
		Optimization: "optimization",
	}, report)
	assert.Equal(t, snippet, linted)
}

func TestExpert_ReviewWithoutLinter(t *testing.T) {
	e := New(model.NewScriptedModel(model.TextStep("a"), model.TextStep("b")))

	report, err := e.Review(context.Background(), snippet)
	require.NoError(t, err)
	assert.Equal(t, "Linting is not configured.", report.Lint)
}

func TestExpert_Errors(t *testing.T) {
	boom := errors.New("model unavailable")

	t.Run("empty code", func(t *testing.T) {
		m := model.NewScriptedModel()
		_, err := New(m).Explain(context.Background(), "  \n")
		assert.ErrorIs(t, err, ErrEmptyCode)
		assert.Empty(t, m.Requests())
	})

	t.Run("model error", func(t *testing.T) {
		_, err := New(model.NewScriptedModel(model.ErrorStep(boom))).Review(context.Background(), snippet)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("linter error", func(t *testing.T) {
		e := New(model.NewScriptedModel(model.TextStep("ok")), func(o *Options) {
			o.Linter = LinterFunc(func(context.Context, string) (string, error) { return "", boom })
		})
		_, err := e.Review(context.Background(), snippet)
		assert.ErrorIs(t, err, boom)
	})
}
