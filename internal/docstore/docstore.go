// Package docstore persists the tracker's state as JSON documents
// addressed by (kind, key). Snapshots, analyses, quota counters and app
// config all go through the same small interface so the engine can run
// against Postgres in production and an in-memory store in tests.
package docstore

import (
	"context"
	"encoding/json"
	"time"
)

// Document kinds.
const (
	KindMatchDay     = "matchDay"
	KindAnalysis     = "analysis"
	KindQuotaCounter = "quotaCounter"
	KindAppConfig    = "appConfig"
)

// Document is one stored JSON document.
type Document struct {
	Kind      string          `json:"kind" db:"kind"`
	Key       string          `json:"key" db:"key"`
	Data      json.RawMessage `json:"data" db:"data"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// Store is the document persistence contract.
//
// Put is a full-document replace (create-or-replace, last writer wins).
// Get decodes the document into out and reports whether it existed.
// Query returns documents of one kind whose data contains every
// top-level field of filter; a nil filter matches the whole kind.
// IncrementCounter atomically adds one to the document's "used" field,
// seeding the document from seed when it does not exist yet, and
// returns the post-increment value. Concurrent callers must never
// observe a lost update.
type Store interface {
	Get(ctx context.Context, kind, key string, out any) (bool, error)
	Put(ctx context.Context, kind, key string, doc any) error
	Query(ctx context.Context, kind string, filter map[string]any) ([]Document, error)
	IncrementCounter(ctx context.Context, kind, key string, seed any) (int, error)
}
