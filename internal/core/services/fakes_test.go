package services

import (
	"context"
	"strings"
	"sync"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driving"
)

// fakeEmbedder maps texts onto a fixed vocabulary: one dimension per
// axis word, valued by occurrence count. Texts sharing no axis words
// score zero against each other under cosine, which makes threshold
// behaviour easy to stage.
type fakeEmbedder struct {
	axes []string

	mu    sync.Mutex
	calls int
	err   error
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder(axes ...string) *fakeEmbedder {
	return &fakeEmbedder{axes: axes}
}

func (f *fakeEmbedder) embed(text string) []float32 {
	v := make([]float32, len(f.axes))
	lower := strings.ToLower(text)
	for i, axis := range f.axes {
		v[i] = float32(strings.Count(lower, axis))
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.embed(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return len(f.axes) }
func (f *fakeEmbedder) ModelName() string            { return "fake-vocab" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// fakeLLM returns a canned response and records the prompts it saw.
type fakeLLM struct {
	response string
	deltas   []string
	err      error
	// hang makes GenerateStream stall after its deltas until the
	// context is cancelled.
	hang bool

	mu      sync.Mutex
	calls   int
	prompts []string
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) record(prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.record(prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) GenerateStream(
	ctx context.Context, prompt string, _ driven.GenerateOptions,
) (<-chan string, <-chan error) {
	f.record(prompt)
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		if f.err != nil {
			errs <- f.err
			close(errs)
			close(out)
			return
		}
		for _, delta := range f.deltas {
			select {
			case out <- delta:
			case <-ctx.Done():
				errs <- ctx.Err()
				close(errs)
				close(out)
				return
			}
		}
		if f.hang {
			<-ctx.Done()
			errs <- ctx.Err()
			close(errs)
			close(out)
			return
		}
		close(errs)
		close(out)
	}()

	return out, errs
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// scriptedAsk answers from a fixed script keyed by question text.
type scriptedAsk struct {
	answers map[string]domain.Answer
	errs    map[string]error
}

var _ driving.AskService = (*scriptedAsk)(nil)

func (s *scriptedAsk) Ask(_ context.Context, question string, _ int) (domain.Answer, error) {
	if err, ok := s.errs[question]; ok {
		return domain.Answer{}, err
	}
	return s.answers[question], nil
}

func (s *scriptedAsk) AskStream(_ context.Context, _ string, _ int) (*domain.AnswerStream, error) {
	panic("not used")
}
