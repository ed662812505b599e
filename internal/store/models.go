package store

import (
	"encoding/json"
	"time"
)

// Entry is one raw row of the kv table.
type Entry struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// KV is the subset of Store the feature packages depend on.
type KV interface {
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	SetMany(items map[string]any) error
	Remove(keys ...string) error
}

var _ KV = (*Store)(nil)
