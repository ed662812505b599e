package store

import "github.com/sadopc/focuskit/internal/logger"

// Value reads key into a T, substituting fallback when the key is absent or
// the read fails. Read failures are logged, never returned.
func Value[T any](kv KV, key string, fallback T) T {
	var v T
	ok, err := kv.Get(key, &v)
	if err != nil {
		logger.Warn("storage read failed, using default", "key", key, "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	return v
}
