package domain

// EvalQuestion is one row of an evaluation question set.
type EvalQuestion struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	ExpectedTopic string `json:"expected_topic"`
}

// EvalClass is the quality classification assigned to one evaluated answer.
type EvalClass string

const (
	// EvalGroundedCorrect: answer cites sources matching the expected
	// topic and references the topic itself.
	EvalGroundedCorrect EvalClass = "grounded-correct"

	// EvalGroundedIncomplete: cited sources match the expected topic but
	// the answer text does not address it.
	EvalGroundedIncomplete EvalClass = "grounded-incomplete"

	// EvalUngrounded: the answer cites sources unrelated to the expected
	// topic.
	EvalUngrounded EvalClass = "ungrounded"

	// EvalRefused: the pipeline returned the insufficient-information
	// answer.
	EvalRefused EvalClass = "refused"

	// EvalErrored: the pipeline failed for this question; the error is
	// recorded on the row and the batch continues.
	EvalErrored EvalClass = "errored"
)

// EvalRow records the outcome for a single question.
type EvalRow struct {
	Question EvalQuestion `json:"question"`
	Answer   Answer       `json:"answer"`
	Class    EvalClass    `json:"class"`
	Err      string       `json:"error,omitempty"`
}

// EvalReport is the outcome of running a question set through the full
// retrieve, assemble, answer path.
type EvalReport struct {
	Rows   []EvalRow         `json:"rows"`
	Counts map[EvalClass]int `json:"counts"`
}
