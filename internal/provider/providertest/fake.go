// Package providertest provides a scriptable fake provider.Adapter for
// unit tests of the orchestration core, in the style of the pack's
// hand-written test doubles (e.g. MateCommit's mocks.go) rather than
// mockgen-generated ones.
package providertest

import (
	"context"
	"sync"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/provider"
)

// Response scripts a single Complete call's outcome for a given model.
type Response struct {
	Result provider.CompletionResult
	Err    error
}

// StreamScript scripts a single CompleteStream call's outcome for a
// given model: a sequence of fragments followed by a terminal error
// (nil for a clean end).
type StreamScript struct {
	Fragments []provider.StreamFragment
	Err       error
}

// FakeAdapter is an in-memory provider.Adapter driven by per-model
// response queues. Each call to Complete/CompleteStream for a model
// pops the next scripted Response/StreamScript for that model; if the
// queue is exhausted, the last entry is repeated.
type FakeAdapter struct {
	mu        sync.Mutex
	responses map[models.ModelID][]Response
	streams   map[models.ModelID][]StreamScript
	calls     []Call
}

// Call records one invocation, for assertions on call order/count.
type Call struct {
	Model     models.ModelID
	Streaming bool
}

// NewFakeAdapter constructs an empty FakeAdapter.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		responses: make(map[models.ModelID][]Response),
		streams:   make(map[models.ModelID][]StreamScript),
	}
}

// ScriptComplete appends a scripted response for Complete calls against
// model.
func (f *FakeAdapter) ScriptComplete(model models.ModelID, resp Response) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[model] = append(f.responses[model], resp)
	return f
}

// ScriptStream appends a scripted stream for CompleteStream calls
// against model.
func (f *FakeAdapter) ScriptStream(model models.ModelID, script StreamScript) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[model] = append(f.streams[model], script)
	return f
}

// Calls returns every recorded invocation, in order.
func (f *FakeAdapter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Complete implements provider.Adapter.
func (f *FakeAdapter) Complete(_ context.Context, _ []models.ChatMessage, model models.ModelID, _ float64, _ int) (provider.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Model: model})

	queue := f.responses[model]
	if len(queue) == 0 {
		return provider.CompletionResult{}, provider.NewHTTPStatusError(500, errNoScript)
	}
	next := queue[0]
	if len(queue) > 1 {
		f.responses[model] = queue[1:]
	}
	return next.Result, next.Err
}

// CompleteStream implements provider.Adapter.
func (f *FakeAdapter) CompleteStream(ctx context.Context, _ []models.ChatMessage, model models.ModelID, _ float64, _ int) (<-chan provider.StreamFragment, <-chan error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Model: model, Streaming: true})
	queue := f.streams[model]
	var script StreamScript
	if len(queue) > 0 {
		script = queue[0]
		if len(queue) > 1 {
			f.streams[model] = queue[1:]
		}
	} else {
		script = StreamScript{Err: provider.NewHTTPStatusError(500, errNoScript)}
	}
	f.mu.Unlock()

	fragCh := make(chan provider.StreamFragment, len(script.Fragments))
	errCh := make(chan error, 1)

	go func() {
		defer close(fragCh)
		defer close(errCh)
		for _, frag := range script.Fragments {
			select {
			case fragCh <- frag:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- script.Err
	}()

	return fragCh, errCh
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errNoScript = fakeError("providertest: no scripted response for model")
