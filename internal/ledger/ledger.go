// Package ledger persists the record of applied migration units and
// the batch number each one was applied in.
package ledger

import (
	"context"
	"fmt"
)

const DefaultTable = "migrations"

// Entry is a single ledger row. A unit identifier is either absent
// from the ledger or present in exactly one entry.
type Entry struct {
	Migration string
	Batch     int
}

// Ledger is the persisted record of applied units. LastBatch returns 0
// on an empty ledger; NextBatch is LastBatch+1 computed fresh on every
// call, so repeated calls within one run observe inserts made between
// them.
type Ledger interface {
	Find(ctx context.Context, id string) ([]Entry, error)
	Insert(ctx context.Context, id string, batch int) error
	Delete(ctx context.Context, ids ...string) error
	Ran(ctx context.Context) ([]string, error)
	LastBatch(ctx context.Context) (int, error)
	NextBatch(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	CreateTable(ctx context.Context) error
	DropTable(ctx context.Context) error
}

// StoreError wraps a persisted store failure with the operation that
// triggered it. Store failures are never handled locally and propagate
// to the caller of the engine.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	return &StoreError{Op: op, Err: err}
}
