package domain

import "time"

// Document represents one cleaned complaint narrative.
// Documents are immutable once ingested; chunks and embeddings are
// derived artifacts that can always be recomputed from them.
type Document struct {
	// ID is the unique identifier for the document (complaint ID).
	ID string

	// Product is the financial product category the complaint concerns.
	Product string

	// Company is the company the complaint was filed against.
	Company string

	// SubmittedAt is when the complaint was submitted.
	SubmittedAt time.Time

	// Narrative is the cleaned free-text complaint narrative.
	Narrative string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Span is a half-open byte range [Start, End) into a document narrative.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlap returns the number of bytes shared by two spans.
func (s Span) Overlap(other Span) int {
	start := max(s.Start, other.Start)
	end := min(s.End, other.End)
	if end <= start {
		return 0
	}
	return end - start
}

// Chunk is the atomic retrievable unit: a bounded, possibly overlapping
// slice of a document narrative.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the materialised substring Narrative[Span.Start:Span.End].
	Text string

	// Span locates the chunk within the parent narrative.
	Span Span

	// Position is the ordinal position within the document.
	Position int

	// Product and Company are carried from the parent document so
	// citations can be rendered without another lookup.
	Product string
	Company string

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// CorpusVersion fingerprints the chunking and embedding parameters
	// that produced this chunk. An index build only mixes chunks that
	// share one version.
	CorpusVersion string
}
