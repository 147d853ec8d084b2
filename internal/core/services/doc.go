// Package services implements the core business logic orchestrating
// the driven ports: corpus ingestion and index builds, retrieval,
// prompt assembly, answer generation, and evaluation.
package services
