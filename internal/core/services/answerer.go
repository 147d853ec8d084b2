package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driving"
	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// Ensure Answerer implements the interface.
var _ driving.AskService = (*Answerer)(nil)

// snippetLength bounds citation snippets for display.
const snippetLength = 200

// Answerer orchestrates the generation capability around retrieval:
// grounded prompts in, answers with citations out. Capability failures
// surface as ErrGenerationUnavailable, never as an empty answer.
type Answerer struct {
	retriever driving.Retriever
	llm       driven.LLMService
	cfg       domain.Config
}

// NewAnswerer creates the answering service.
func NewAnswerer(retriever driving.Retriever, llm driven.LLMService, cfg domain.Config) *Answerer {
	return &Answerer{retriever: retriever, llm: llm, cfg: cfg}
}

// Ask answers a question grounded in retrieved chunks. When retrieval
// comes back empty the generation capability is never called; the fixed
// refusal answer is returned with zero citations.
func (a *Answerer) Ask(ctx context.Context, question string, k int) (domain.Answer, error) {
	result, err := a.retriever.Retrieve(ctx, question, k, a.cfg.MaxContextSize)
	if err != nil {
		return domain.Answer{}, err
	}
	if result.Empty() {
		logger.Info("Grounding gap: returning refusal without calling generation")
		return refusalAnswer(), nil
	}

	prompt := AssemblePrompt(question, result)
	logger.Debug("Prompt: %d characters, %d sources", len(prompt), len(result))

	genCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerationTimeout)
	defer cancel()

	var text string
	err = withRetry(genCtx, "generation", func() error {
		var genErr error
		text, genErr = a.llm.Generate(genCtx, prompt, a.generateOptions())
		return genErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.Answer{}, ctx.Err()
		}
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	return domain.Answer{
		Text:      strings.TrimSpace(text),
		Citations: citations(result),
	}, nil
}

// AskStream is Ask with incremental delivery. The returned stream's
// Increments channel closes when generation completes or ctx is
// cancelled; Wait then yields the materialised Answer.
func (a *Answerer) AskStream(ctx context.Context, question string, k int) (*domain.AnswerStream, error) {
	result, err := a.retriever.Retrieve(ctx, question, k, a.cfg.MaxContextSize)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		// Short-circuit: one refusal increment, no generation call.
		out := make(chan string, 1)
		out <- domain.RefusalText
		close(out)
		stream, finish := domain.NewAnswerStream(out)
		finish(refusalAnswer(), nil)
		return stream, nil
	}

	prompt := AssemblePrompt(question, result)
	genCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerationTimeout)

	deltas, errs := a.llm.GenerateStream(genCtx, prompt, a.generateOptions())

	out := make(chan string)
	stream, finish := domain.NewAnswerStream(out)

	go func() {
		defer cancel()
		var b strings.Builder

		forward := func(delta string) bool {
			select {
			case out <- delta:
				return true
			case <-genCtx.Done():
				return false
			}
		}

	consume:
		for delta := range deltas {
			b.WriteString(delta)
			if !forward(delta) {
				break consume
			}
		}
		close(out)

		var streamErr error
		select {
		case streamErr = <-errs:
		default:
		}

		switch {
		case streamErr == nil && genCtx.Err() == nil:
			finish(domain.Answer{
				Text:      strings.TrimSpace(b.String()),
				Citations: citations(result),
			}, nil)
		case ctx.Err() != nil:
			// Caller cancelled; discard partial state.
			finish(domain.Answer{}, ctx.Err())
		default:
			if streamErr == nil {
				streamErr = genCtx.Err()
			}
			finish(domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, streamErr))
		}
	}()

	return stream, nil
}

// generateOptions holds generation deterministic and bounded.
func (a *Answerer) generateOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0,
	}
}

// refusalAnswer is the designated "no grounded answer available" outcome.
func refusalAnswer() domain.Answer {
	return domain.Answer{
		Text:    domain.RefusalText,
		Refused: true,
	}
}

// citations maps retained chunks to display citations, preserving order.
func citations(result domain.RetrievalResult) []domain.Citation {
	cs := make([]domain.Citation, len(result))
	for i, sc := range result {
		cs[i] = domain.Citation{
			DocumentID: sc.Chunk.DocumentID,
			ChunkID:    sc.Chunk.ID,
			Span:       sc.Chunk.Span,
			Product:    sc.Chunk.Product,
			Snippet:    snippet(sc.Chunk.Text),
			Score:      sc.Score,
		}
	}
	return cs
}

// snippet truncates text for citation display without splitting a rune.
func snippet(text string) string {
	if len(text) <= snippetLength {
		return text
	}
	cut := snippetLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
