package services

import (
	"fmt"
	"strings"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// promptHeader encodes the grounding discipline: the model may only use
// the provided excerpts and must say so when they are insufficient.
const promptHeader = `You are a financial analyst assistant for CrediTrust.
Your task is to answer questions about customer complaints.
Use ONLY the complaint excerpts below to formulate your answer.
Do not use any information that is not in the excerpts.
If the excerpts do not contain the answer, reply exactly:
"` + domain.RefusalText + `"`

// AssemblePrompt deterministically renders the retrieved context and
// question into the generation instruction. It is a pure function: the
// same inputs always produce the same prompt. Callers must not invoke
// generation with an empty result; the pipeline short-circuits to the
// refusal answer instead (see Answerer).
func AssemblePrompt(question string, result domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nContext:\n")

	for i, sc := range result {
		c := sc.Chunk
		fmt.Fprintf(&b, "[source %d: complaint %s", i+1, c.DocumentID)
		if c.Product != "" {
			fmt.Fprintf(&b, ", product %q", c.Product)
		}
		fmt.Fprintf(&b, ", chars %d-%d]\n", c.Span.Start, c.Span.End)
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}
