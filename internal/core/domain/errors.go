package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value is out of range or
	// inconsistent. Configuration errors are fatal at startup and never
	// silently coerced.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates an embedding's length disagrees with
	// the index dimension. This is a configuration fault, not a
	// recoverable condition.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyIndex indicates an index build was attempted over zero
	// vectors.
	ErrEmptyIndex = errors.New("empty index input")

	// ErrIncompatibleIndex indicates a persisted index was written with a
	// different dimension, metric, or schema version than expected.
	ErrIncompatibleIndex = errors.New("incompatible index file")

	// ErrIndexCorrupted indicates a persisted index failed its integrity
	// checks on load. The system refuses to serve queries against it.
	ErrIndexCorrupted = errors.New("index file corrupted")

	// ErrIndexUnavailable indicates no index snapshot has been published.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding capability failed
	// after retries were exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation capability failed
	// after retries were exhausted. It is never conflated with "no
	// relevant results".
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
