// Package dedupe rejects historical matches that have already been ingested,
// so duplicates never reach the estimator.
package dedupe

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/matchodds/internal/domain/model"
)

const defaultMaxSize = 100_000

// Deduper records seen match keys.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key, for example when storing the match failed.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper keeps keys in a map with FIFO eviction once maxSize is
// reached. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at the front
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// FilterMatches returns the matches whose keys were not seen before, in
// input order, and the number of duplicates dropped. Duplicates inside
// matches itself are dropped as well.
func FilterMatches(ctx context.Context, d Deduper, matches []model.HistoricalMatch) ([]model.HistoricalMatch, int) {
	fresh := make([]model.HistoricalMatch, 0, len(matches))
	dups := 0
	for _, m := range matches {
		if d.SeenAndRecord(ctx, m.Key()) {
			dups++
			continue
		}
		fresh = append(fresh, m)
	}
	return fresh, dups
}
