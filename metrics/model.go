package metrics

import (
	"context"
	"time"

	"github.com/hupe1980/supportmesh/model"
)

// Model status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type instrumentedModel struct {
	next      model.Model
	collector *Collector
}

// InstrumentModel wraps m so every Generate call is counted and timed.
// Token usage from the final response is recorded when the provider
// reports it.
func (c *Collector) InstrumentModel(m model.Model) model.Model {
	return &instrumentedModel{next: m, collector: c}
}

func (m *instrumentedModel) Info() model.Info { return m.next.Info() }

func (m *instrumentedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	start := time.Now()
	inResp, inErr := m.next.Generate(ctx, req)

	outResp := make(chan model.Response, 16)
	outErr := make(chan error, 1)

	go func() {
		defer close(outResp)
		defer close(outErr)

		var (
			failed bool
			usage  *model.TokenUsage
		)

		for inResp != nil || inErr != nil {
			select {
			case r, ok := <-inResp:
				if !ok {
					inResp = nil
					continue
				}
				if !r.Partial && r.Usage != nil {
					usage = r.Usage
				}
				select {
				case outResp <- r:
				case <-ctx.Done():
				}
			case err, ok := <-inErr:
				if !ok {
					inErr = nil
					continue
				}
				if err != nil && !failed {
					failed = true
					select {
					case outErr <- err:
					case <-ctx.Done():
					}
				}
			}
		}

		status := StatusSuccess
		if failed {
			status = StatusError
		}

		var prompt, completion int
		if usage != nil {
			prompt, completion = usage.PromptTokens, usage.CompletionTokens
		}

		info := m.next.Info()
		m.collector.RecordModelRequest(info.Provider, info.Name, status, time.Since(start), prompt, completion)
	}()

	return outResp, outErr
}
