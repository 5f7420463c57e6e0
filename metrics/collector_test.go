package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/team"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := NewCollector("test")

	c.RecordHTTPRequest("POST", "/chat", 200, 120*time.Millisecond)
	c.RecordHTTPRequest("POST", "/chat", 201, 80*time.Millisecond)
	c.RecordHTTPRequest("POST", "/chat", 422, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/chat", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/chat", "4xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpRequestDuration))
}

func TestCollector_ToolAndTeam(t *testing.T) {
	c := NewCollector("test")

	c.ObserveToolCall("order_status_tool", "success", 10*time.Millisecond)
	c.ObserveToolCall("order_status_tool", "error", 10*time.Millisecond)
	c.ObserveTeamTurn("PlanningAgent")
	c.ObserveTeamTurn("PlanningAgent")
	c.ObserveTeamRun("Text 'TERMINATE' mentioned", 3, time.Second)
	c.ObserveTeamRun("Maximum number of messages 10 reached, current message count: 10", 9, time.Second)
	c.ObserveTeamRun(team.StopMaxTurns, 5, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("order_status_tool", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.teamTurnsTotal.WithLabelValues("PlanningAgent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.teamRunsTotal.WithLabelValues("text_mention")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.teamRunsTotal.WithLabelValues("max_messages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.teamRunsTotal.WithLabelValues("max_turns")))
}

func TestCollector_InstrumentModel(t *testing.T) {
	c := NewCollector("test")

	ok := c.InstrumentModel(model.FuncModel(func(context.Context, model.Request) (core.Content, error) {
		return core.NewTextContent(core.RoleAssistant, "hi"), nil
	}))
	resp, err := model.GenerateContent(context.Background(), ok, model.Request{})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content.Text())

	boom := errors.New("boom")
	failing := c.InstrumentModel(model.NewScriptedModel(model.ErrorStep(boom)))
	_, err = model.GenerateContent(context.Background(), failing, model.Request{})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, "func", ok.Info().Name)

	// The recording goroutine finishes after the channels close.
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(c.modelRequestsTotal.WithLabelValues("mock", "func", StatusSuccess)) == 1 &&
			testutil.ToFloat64(c.modelRequestsTotal.WithLabelValues("mock", "scripted", StatusError)) == 1
	}, time.Second, 5*time.Millisecond)
}

type noisyModel struct{ errs []error }

func (m noisyModel) Info() model.Info { return model.Info{Name: "noisy", Provider: "mock"} }

func (m noisyModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, len(m.errs))
	for _, err := range m.errs {
		errCh <- err
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func TestCollector_InstrumentModel_ForwardsFirstErrorOnly(t *testing.T) {
	c := NewCollector("test")
	first, second := errors.New("first"), errors.New("second")

	m := c.InstrumentModel(noisyModel{errs: []error{first, second}})
	respCh, errCh := m.Generate(context.Background(), model.Request{})

	// Nobody reads the error channel until the wrapper is done.
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(c.modelRequestsTotal.WithLabelValues("mock", "noisy", StatusError)) == 1
	}, time.Second, 5*time.Millisecond)

	for range respCh {
	}
	var got []error
	for err := range errCh {
		got = append(got, err)
	}
	assert.Equal(t, []error{first}, got)
}

func TestCollector_InstrumentModel_CallerGone(t *testing.T) {
	c := NewCollector("test")
	ctx, cancel := context.WithCancel(context.Background())

	m := c.InstrumentModel(model.FuncModel(func(context.Context, model.Request) (core.Content, error) {
		return core.NewTextContent(core.RoleAssistant, "late"), nil
	}))
	cancel()
	_, _ = m.Generate(ctx, model.Request{})

	assert.Eventually(t, func() bool {
		return testutil.CollectAndCount(c.modelRequestsTotal) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCollector_RecordsTokenUsage(t *testing.T) {
	c := NewCollector("test")
	c.RecordModelRequest("openai", "gpt-4o", StatusSuccess, time.Second, 120, 30)

	assert.Equal(t, 120.0, testutil.ToFloat64(c.modelTokensUsed.WithLabelValues("openai", "gpt-4o", "prompt")))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.modelTokensUsed.WithLabelValues("openai", "gpt-4o", "completion")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("")
	c.ObserveTeamTurn("ResponseAgent")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `supportmesh_team_turns_total{speaker="ResponseAgent"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
