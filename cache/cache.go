// Package cache stores generated responses, keyed by the parameters of the
// request that produced them.
//
// Backends are plain key/value stores: concurrent writes to the same key are
// not coordinated and the last writer wins.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// Cache is implemented by response cache backends.
type Cache interface {
	// Get retrieves a value. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value, replacing any previous one.
	Set(ctx context.Context, key string, value []byte) error
}

// Key computes a stable key from request parameters.
//
// Parameters are encoded to JSON, with map keys sorted, and hashed with
// SHA-256, so two sets of parameters with the same content always produce the
// same key.
func Key(params any) (string, error) {
	buf, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "could not encode cache key parameters")
	}

	hash := sha256.Sum256(buf)

	return hex.EncodeToString(hash[:]), nil
}
