// Package chunker splits complaint narratives into bounded, overlapping
// chunks suitable for retrieval indexing.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// DefaultMaxSize is the default number of bytes per chunk.
const DefaultMaxSize = 1500

// DefaultOverlap is the default number of overlapping bytes.
const DefaultOverlap = 150

// separators are tried in priority order when looking for a cut point:
// paragraph break, line break, then sentence terminators.
var separators = []string{"\n\n", "\n", ". ", "! ", "? "}

// Chunker splits document narratives on semantic boundaries, greedily
// packing up to maxSize bytes and falling back to hard cuts when no
// boundary exists within the window.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a chunker. maxSize must be positive and strictly greater
// than overlap; anything else is a configuration error, not something to
// silently clamp.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrInvalidConfig, overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// Chunk splits a document into chunks in stable document order. Spans are
// monotonically non-decreasing in start offset, cover every byte of the
// narrative, and overlap by at most the configured width. An empty or
// whitespace-only narrative yields zero chunks.
func (c *Chunker) Chunk(doc domain.Document) []domain.Chunk {
	text := doc.Narrative
	if strings.TrimSpace(text) == "" {
		return nil
	}

	n := len(text)
	var chunks []domain.Chunk
	start := 0
	position := 0

	for start < n {
		end := start + c.maxSize
		if end >= n {
			end = n
		} else if cut := lastBoundary(text, start, end); cut > start {
			end = cut
		} else {
			// No boundary in the window; hard cut, but never mid-rune.
			end = alignBack(text, end)
			if end <= start {
				end = alignForward(text, start+1)
			}
		}

		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.ID, start, end),
			DocumentID: doc.ID,
			Text:       text[start:end],
			Span:       domain.Span{Start: start, End: end},
			Position:   position,
			Product:    doc.Product,
			Company:    doc.Company,
		})
		position++

		if end == n {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = alignForward(text, next)
	}

	return chunks
}

// chunkID derives a stable identifier from the document and span, so an
// unchanged corpus re-chunks to identical IDs.
func chunkID(docID string, start, end int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s#%d-%d", docID, start, end)).String()
}

// lastBoundary returns the cut point just after the last separator inside
// text[start:end], or -1 when the window holds none.
func lastBoundary(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			if cut := start + i + len(sep); cut > start {
				return cut
			}
		}
	}
	return -1
}

// alignBack moves an offset left to the nearest rune start.
func alignBack(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// alignForward moves an offset right to the nearest rune start.
func alignForward(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}
