package domain

// RefusalText is the designated "no grounded answer" response. It is
// returned whenever retrieval comes back empty, without calling the
// generation capability at all.
const RefusalText = "I don't have enough information from the complaint records to answer this question."

// Citation points at a chunk that was part of the context an answer was
// generated from.
type Citation struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Span       Span    `json:"span"`
	Product    string  `json:"product,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// Answer is generated text plus the ordered chunks that grounded it.
// Zero citations always means the refusal path was taken.
type Answer struct {
	// Text is the generated answer, or RefusalText when Refused.
	Text string `json:"text"`

	// Citations lists the chunks included in the prompt, best first.
	Citations []Citation `json:"citations"`

	// Refused indicates no chunk cleared the similarity threshold and
	// the generation capability was never invoked.
	Refused bool `json:"refused"`
}

// Grounded reports whether the answer is backed by at least one citation.
func (a Answer) Grounded() bool {
	return len(a.Citations) > 0
}

// AnswerStream delivers a generated answer incrementally. Increments is
// closed when generation completes or the context is cancelled; Wait
// blocks until then and returns the materialised Answer.
type AnswerStream struct {
	// Increments yields partial answer text in arrival order.
	Increments <-chan string

	done   chan struct{}
	answer Answer
	err    error
}

// NewAnswerStream wires an increment channel to a stream handle. The
// returned finish function must be called exactly once, after increments
// has been closed, to publish the final Answer (or error) to waiters.
func NewAnswerStream(increments <-chan string) (*AnswerStream, func(Answer, error)) {
	s := &AnswerStream{
		Increments: increments,
		done:       make(chan struct{}),
	}
	finish := func(a Answer, err error) {
		s.answer = a
		s.err = err
		close(s.done)
	}
	return s, finish
}

// Wait blocks until the stream completes and returns the final Answer.
func (s *AnswerStream) Wait() (Answer, error) {
	<-s.done
	return s.answer, s.err
}
