// Package statscache implements the Stats Cache: a content-addressed
// memo of ToolpathStats keyed by drawing hash. Entries are immutable,
// so a racing double-compute on a miss wastes work but never corrupts
// state — callers never need to lock around Get/Put themselves.
package statscache

import (
	"context"

	"github.com/metalforge/sheetcost/internal/toolpath"
)

// Cache is the get/put contract every backend implements. Lookups may
// suspend if the backing store is remote; that is the only suspension
// point anywhere in the costing engine.
type Cache interface {
	Get(ctx context.Context, key toolpath.ContentHash) (toolpath.Stats, bool, error)
	Put(ctx context.Context, key toolpath.ContentHash, stats toolpath.Stats) error
}
