package flat

import (
	"sync/atomic"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
)

// Ensure Handle implements the provider port.
var _ driven.IndexProvider = (*Handle)(nil)

// Handle is the process-wide reference to the currently published index
// snapshot. Readers acquire the snapshot atomically; a rebuild publishes
// a replacement while in-flight searches keep their consistent view.
type Handle struct {
	current atomic.Pointer[Index]
}

// NewHandle creates an empty handle with nothing published.
func NewHandle() *Handle {
	return &Handle{}
}

// Publish atomically replaces the current snapshot.
func (h *Handle) Publish(ix *Index) {
	h.current.Store(ix)
}

// Acquire returns the current snapshot, or ErrIndexUnavailable when no
// index has been published yet.
func (h *Handle) Acquire() (driven.VectorSearcher, error) {
	ix := h.current.Load()
	if ix == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return ix, nil
}
