package ledger

import (
	"context"
	"sort"
)

// InMemoryLedger keeps entries in process memory. It backs engine
// tests and throwaway runs that do not need persistence.
type InMemoryLedger struct {
	entries []Entry
}

var _ Ledger = (*InMemoryLedger)(nil)

func NewInMemoryLedger(entries ...Entry) *InMemoryLedger {
	l := &InMemoryLedger{}
	l.entries = append(l.entries, entries...)
	return l
}

func (l *InMemoryLedger) Find(ctx context.Context, id string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("find", err)
	}

	var found []Entry
	for _, e := range l.entries {
		if e.Migration == id {
			found = append(found, e)
		}
	}

	return found, nil
}

func (l *InMemoryLedger) Insert(ctx context.Context, id string, batch int) error {
	if err := ctx.Err(); err != nil {
		return storeErr("insert", err)
	}

	l.entries = append(l.entries, Entry{Migration: id, Batch: batch})

	return nil
}

func (l *InMemoryLedger) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return storeErr("delete", err)
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := l.entries[:0]
	for _, e := range l.entries {
		if _, ok := drop[e.Migration]; !ok {
			kept = append(kept, e)
		}
	}

	l.entries = kept

	return nil
}

func (l *InMemoryLedger) Ran(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("ran", err)
	}

	sorted := make([]Entry, len(l.entries))
	copy(sorted, l.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Batch != sorted[j].Batch {
			return sorted[i].Batch < sorted[j].Batch
		}

		return sorted[i].Migration < sorted[j].Migration
	})

	var ids []string
	for _, e := range sorted {
		ids = append(ids, e.Migration)
	}

	return ids, nil
}

func (l *InMemoryLedger) LastBatch(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErr("last batch", err)
	}

	var max int
	for _, e := range l.entries {
		if e.Batch > max {
			max = e.Batch
		}
	}

	return max, nil
}

func (l *InMemoryLedger) NextBatch(ctx context.Context) (int, error) {
	last, err := l.LastBatch(ctx)
	if err != nil {
		return 0, err
	}

	return last + 1, nil
}

func (l *InMemoryLedger) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErr("count", err)
	}

	return len(l.entries), nil
}

func (l *InMemoryLedger) CreateTable(ctx context.Context) error {
	return nil
}

func (l *InMemoryLedger) DropTable(ctx context.Context) error {
	l.entries = nil
	return nil
}
