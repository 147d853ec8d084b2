// Package domain contains the core business types for trustline.
// It has no dependencies on adapters or infrastructure.
package domain
