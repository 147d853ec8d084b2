package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driving"
	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driving.EvalService = (*Evaluator)(nil)

// evalConcurrency bounds how many questions run through the pipeline at
// once. Each question's execution is independent and side-effect-free on
// shared state except for index reads.
const evalConcurrency = 4

// Evaluator runs a fixed question set through the full retrieve,
// assemble, answer path and classifies each outcome. It is pure
// orchestration over the ask service.
type Evaluator struct {
	ask driving.AskService
	cfg domain.Config
}

// NewEvaluator creates the evaluation service.
func NewEvaluator(ask driving.AskService, cfg domain.Config) *Evaluator {
	return &Evaluator{ask: ask, cfg: cfg}
}

// Evaluate answers every question and scores the result against its
// expected topic. A failure for one question is recorded on its row and
// never aborts the batch.
func (e *Evaluator) Evaluate(ctx context.Context, questions []domain.EvalQuestion) (domain.EvalReport, error) {
	logger.Section("Evaluation")
	rows := make([]domain.EvalRow, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evalConcurrency)

	for i := range questions {
		i := i
		g.Go(func() error {
			q := questions[i]
			answer, err := e.ask.Ask(gctx, q.Question, e.cfg.TopK)
			row := domain.EvalRow{Question: q, Answer: answer}
			if err != nil {
				row.Class = domain.EvalErrored
				row.Err = err.Error()
				logger.Warn("Question %s failed: %v", q.ID, err)
			} else {
				row.Class = classify(q, answer)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.EvalReport{}, err
	}

	counts := make(map[domain.EvalClass]int)
	for _, row := range rows {
		counts[row.Class]++
	}
	logger.Info("Evaluated %d questions: %v", len(rows), counts)

	return domain.EvalReport{Rows: rows, Counts: counts}, nil
}

// classify assigns a quality class by checking the expected topic against
// the cited sources and the answer text. This is a policy hook: a richer
// attribution check can replace it without touching the pipeline.
func classify(q domain.EvalQuestion, answer domain.Answer) domain.EvalClass {
	if answer.Refused {
		return domain.EvalRefused
	}

	topic := strings.ToLower(strings.TrimSpace(q.ExpectedTopic))
	if topic == "" {
		// Nothing to score against; grounded is the best we can say.
		if answer.Grounded() {
			return domain.EvalGroundedCorrect
		}
		return domain.EvalUngrounded
	}

	citedTopic := false
	for _, c := range answer.Citations {
		if strings.Contains(strings.ToLower(c.Snippet), topic) ||
			strings.Contains(strings.ToLower(c.Product), topic) {
			citedTopic = true
			break
		}
	}

	switch {
	case !citedTopic:
		return domain.EvalUngrounded
	case strings.Contains(strings.ToLower(answer.Text), topic):
		return domain.EvalGroundedCorrect
	default:
		return domain.EvalGroundedIncomplete
	}
}
