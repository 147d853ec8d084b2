package driving

import (
	"context"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// AskService answers natural-language questions grounded in retrieved
// complaint chunks.
type AskService interface {
	// Ask runs the full retrieve, assemble, generate path and returns
	// the answer with its citations. When no chunk clears the similarity
	// threshold the answer is the refusal indicator with zero citations;
	// that outcome is not an error.
	Ask(ctx context.Context, question string, k int) (domain.Answer, error)

	// AskStream is Ask with incremental delivery. Cancelling ctx stops
	// consumption and discards partial state.
	AskStream(ctx context.Context, question string, k int) (*domain.AnswerStream, error)
}

// Retriever embeds a query and returns the context-bounded, deduplicated
// top-k chunks. An empty result is the explicit "don't know" signal.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k, maxContextSize int) (domain.RetrievalResult, error)
}
