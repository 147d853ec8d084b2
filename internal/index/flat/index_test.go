package flat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// corruptFile overwrites one byte of a file at the given offset.
func corruptFile(t *testing.T, path string, offset int, b byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if offset >= len(data) {
		t.Fatalf("offset %d beyond file size %d", offset, len(data))
	}
	data[offset] = b
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func removeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing %s: %v", path, err)
	}
}

func testPairs() []Pair {
	return []Pair{
		{Meta: Meta{ChunkID: "c1", DocumentID: "d1", Span: domain.Span{Start: 0, End: 10}}, Vector: []float32{1, 0, 0}},
		{Meta: Meta{ChunkID: "c2", DocumentID: "d1", Span: domain.Span{Start: 8, End: 20}}, Vector: []float32{0, 1, 0}},
		{Meta: Meta{ChunkID: "c3", DocumentID: "d2", Span: domain.Span{Start: 0, End: 12}}, Vector: []float32{0.9, 0.1, 0}},
	}
}

func TestBuild(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if _, err := Build(nil, domain.MetricCosine); !errors.Is(err, domain.ErrEmptyIndex) {
			t.Errorf("expected ErrEmptyIndex, got %v", err)
		}
	})

	t.Run("invalid metric", func(t *testing.T) {
		if _, err := Build(testPairs(), "manhattan"); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("mixed dimensions", func(t *testing.T) {
		pairs := testPairs()
		pairs[1].Vector = []float32{1, 0}
		if _, err := Build(pairs, domain.MetricCosine); !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("valid build", func(t *testing.T) {
		ix, err := Build(testPairs(), domain.MetricCosine)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ix.Len() != 3 || ix.Dimensions() != 3 || ix.Metric() != domain.MetricCosine {
			t.Errorf("unexpected index shape: len=%d dim=%d metric=%s",
				ix.Len(), ix.Dimensions(), ix.Metric())
		}
	})

	t.Run("input vectors are not aliased", func(t *testing.T) {
		pairs := testPairs()
		ix, err := Build(pairs, domain.MetricCosine)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pairs[0].Vector[0] = 999
		hits, err := ix.Search(context.Background(), []float32{1, 0, 0}, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hits[0].ChunkID != "c1" {
			t.Errorf("mutating input changed the index; top hit %s", hits[0].ChunkID)
		}
	})
}

func TestSearch_Cosine(t *testing.T) {
	ix, err := Build(testPairs(), domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "c1" {
		t.Errorf("expected c1 first, got %s", hits[0].ChunkID)
	}
	if hits[1].ChunkID != "c3" {
		t.Errorf("expected c3 second, got %s", hits[1].ChunkID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not in non-increasing order: %g then %g", hits[0].Score, hits[1].Score)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("identical direction should score ~1, got %g", hits[0].Score)
	}
	if hits[0].DocumentID != "d1" || hits[0].Span.End != 10 {
		t.Errorf("hit metadata not carried: %+v", hits[0])
	}
}

func TestSearch_Euclidean(t *testing.T) {
	ix, err := Build(testPairs(), domain.MetricEuclidean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].ChunkID != "c1" {
		t.Errorf("expected exact match first, got %s", hits[0].ChunkID)
	}
	if hits[0].Score != 1.0 {
		t.Errorf("zero distance should score 1, got %g", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not in non-increasing order at %d", i)
		}
	}
}

func TestSearch_Bounds(t *testing.T) {
	ix, err := Build(testPairs(), domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	t.Run("k larger than index", func(t *testing.T) {
		hits, err := ix.Search(ctx, []float32{1, 0, 0}, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hits) != 3 {
			t.Errorf("expected 3 hits, got %d", len(hits))
		}
	})

	t.Run("non-positive k", func(t *testing.T) {
		hits, err := ix.Search(ctx, []float32{1, 0, 0}, 0)
		if err != nil || hits != nil {
			t.Errorf("expected nil result, got %v, %v", hits, err)
		}
	})

	t.Run("wrong query dimension", func(t *testing.T) {
		if _, err := ix.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := ix.Search(cancelled, []float32{1, 0, 0}, 1); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSearch_DeterministicTies(t *testing.T) {
	pairs := []Pair{
		{Meta: Meta{ChunkID: "c1", DocumentID: "d1"}, Vector: []float32{1, 0}},
		{Meta: Meta{ChunkID: "c2", DocumentID: "d2"}, Vector: []float32{1, 0}},
		{Meta: Meta{ChunkID: "c3", DocumentID: "d3"}, Vector: []float32{1, 0}},
	}
	ix, err := Build(pairs, domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for run := 0; run < 5; run++ {
		hits, err := ix.Search(context.Background(), []float32{1, 0}, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []string{"c1", "c2", "c3"} {
			if hits[i].ChunkID != want {
				t.Fatalf("run %d: tie order changed, hit %d is %s", run, i, hits[i].ChunkID)
			}
		}
	}
}

func TestSearch_ZeroVectorScoresZero(t *testing.T) {
	pairs := []Pair{
		{Meta: Meta{ChunkID: "zero", DocumentID: "d1"}, Vector: []float32{0, 0, 0}},
		{Meta: Meta{ChunkID: "unit", DocumentID: "d2"}, Vector: []float32{1, 0, 0}},
	}
	ix, err := Build(pairs, domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].ChunkID != "unit" {
		t.Errorf("expected unit vector first, got %s", hits[0].ChunkID)
	}
	if hits[1].Score != 0 {
		t.Errorf("zero vector should score 0, got %g", hits[1].Score)
	}
}

func TestHandle(t *testing.T) {
	h := NewHandle()

	if _, err := h.Acquire(); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable before publish, got %v", err)
	}

	ix, err := Build(testPairs(), domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Publish(ix)

	got, err := h.Acquire()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("expected published index, got len %d", got.Len())
	}

	// Replacement swaps the snapshot; the old acquired view stays valid.
	replacement, err := Build(testPairs()[:1], domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.Publish(replacement)

	if got.Len() != 3 {
		t.Errorf("acquired snapshot mutated by publish")
	}
	now, err := h.Acquire()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if now.Len() != 1 {
		t.Errorf("expected new snapshot after publish, got len %d", now.Len())
	}
}

func TestPersistLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/index.tlvx"

	ix, err := Build(testPairs(), domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ix.Persist(path); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	loaded, err := Load(path, domain.MetricCosine, 3)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != ix.Len() || loaded.Dimensions() != ix.Dimensions() || loaded.Metric() != ix.Metric() {
		t.Fatalf("loaded index shape differs")
	}

	// Identical searches against both indexes.
	queries := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0}}
	for _, q := range queries {
		a, err := ix.Search(context.Background(), q, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := loaded.Search(context.Background(), q, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(a) != len(b) {
			t.Fatalf("result counts differ")
		}
		for i := range a {
			if a[i].ChunkID != b[i].ChunkID {
				t.Errorf("query %v: hit %d differs: %s vs %s", q, i, a[i].ChunkID, b[i].ChunkID)
			}
			if diff := a[i].Score - b[i].Score; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("query %v: score %d differs: %g vs %g", q, i, a[i].Score, b[i].Score)
			}
		}
	}
}

func TestLoad_Incompatible(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/index.tlvx"

	ix, err := Build(testPairs(), domain.MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ix.Persist(path); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	t.Run("wrong dimension", func(t *testing.T) {
		if _, err := Load(path, domain.MetricCosine, 384); !errors.Is(err, domain.ErrIncompatibleIndex) {
			t.Errorf("expected ErrIncompatibleIndex, got %v", err)
		}
	})

	t.Run("wrong metric", func(t *testing.T) {
		if _, err := Load(path, domain.MetricEuclidean, 3); !errors.Is(err, domain.ErrIncompatibleIndex) {
			t.Errorf("expected ErrIncompatibleIndex, got %v", err)
		}
	})
}

func TestLoad_Corrupted(t *testing.T) {
	dir := t.TempDir()

	writeIndex := func(t *testing.T, name string) string {
		t.Helper()
		path := fmt.Sprintf("%s/%s.tlvx", dir, name)
		ix, err := Build(testPairs(), domain.MetricCosine)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ix.Persist(path); err != nil {
			t.Fatalf("persist failed: %v", err)
		}
		return path
	}

	t.Run("bad magic", func(t *testing.T) {
		path := writeIndex(t, "magic")
		corruptFile(t, path, 0, 'X')
		if _, err := Load(path, domain.MetricCosine, 3); !errors.Is(err, domain.ErrIndexCorrupted) {
			t.Errorf("expected ErrIndexCorrupted, got %v", err)
		}
	})

	t.Run("payload bit flip", func(t *testing.T) {
		path := writeIndex(t, "payload")
		corruptFile(t, path, 30, 0xFF)
		if _, err := Load(path, domain.MetricCosine, 3); !errors.Is(err, domain.ErrIndexCorrupted) {
			t.Errorf("expected ErrIndexCorrupted, got %v", err)
		}
	})

	t.Run("missing sidecar", func(t *testing.T) {
		path := writeIndex(t, "sidecar")
		removeFile(t, SidecarPath(path))
		if _, err := Load(path, domain.MetricCosine, 3); !errors.Is(err, domain.ErrIndexCorrupted) {
			t.Errorf("expected ErrIndexCorrupted, got %v", err)
		}
	})
}
