package storage

import (
	"context"
	"time"
)

// ProofStorage is the interface the settlement domain uses for
// proof-of-payment receipts.
type ProofStorage interface {
	// PresignPut returns a pre-signed upload URL for the given key.
	PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error)

	// Exists reports whether an object was actually uploaded under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for a stored object.
	GetURL(key string) string
}
