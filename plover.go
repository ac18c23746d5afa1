// Package plover applies and reverses versioned, ordered migration
// units, recording progress in a persisted ledger of (migration, batch)
// rows so that re-running the engine is idempotent and reversible.
package plover

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/plover-db/plover/internal/discovery"
	"github.com/plover-db/plover/internal/ledger"
	"github.com/plover-db/plover/internal/logger"
	"github.com/plover-db/plover/unit"
)

var ErrLedgerNotInitialized = errors.New("migration ledger has not been initialized")

// Entry is a single ledger row.
type Entry = ledger.Entry

// UnitStatus reports whether a discovered unit has been applied and in
// which batch.
type UnitStatus struct {
	ID    string
	Ran   bool
	Batch int
}

// BatchPolicy decides how batch numbers are assigned within one
// Migrate call.
type BatchPolicy int

const (
	// BatchPerUnit re-queries the ledger's next batch before every
	// insert, so each unit applied within one Migrate call receives its
	// own, strictly increasing batch number. This makes Rollback affect
	// only the single most recently applied unit.
	BatchPerUnit BatchPolicy = iota

	// BatchPerRun computes one batch number at the start of the call
	// and stamps every unit applied in it with that number, so Rollback
	// reverts the whole run.
	BatchPerRun
)

type CloserFunc func() error

// Migrator orchestrates migrate, rollback and reset over the injected
// discovery, registry and ledger capabilities.
type Migrator struct {
	lg        logger.Logger
	discovery discovery.Discovery
	registry  *unit.Registry
	ledger    ledger.Ledger
	ex        unit.Executor
	policy    BatchPolicy
	closerFns []CloserFunc
}

// NewMigrator builds a migrator from option callbacks. A ledger is
// required; discovery defaults to the local ./migrations folder and the
// registry to the package level one populated by unit.Register.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = logger.NullLogger{}
	m.policy = BatchPerUnit

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.ledger == nil {
		return nil, nil, ErrLedgerNotInitialized
	}

	if m.discovery == nil {
		m.discovery = discovery.NewLocalDiscovery(discovery.DefaultUnitsFolder)
	}

	if m.registry == nil {
		m.registry = unit.Default()
	}

	if sl, ok := m.ledger.(*ledger.SQLLedger); ok {
		sl.SetLogger(m.lg)
	}

	return m, m.close, nil
}

// ListUnits returns the discovered unit identifiers sorted ascending.
func (m *Migrator) ListUnits(ctx context.Context) ([]string, error) {
	return m.discovery.ListUnits(ctx)
}

// Migrate applies every discovered unit that has no ledger entry, in
// descending identifier order, and returns the identifiers applied in
// execution order. A second consecutive call with no new units returns
// an empty list. On a mid-sequence failure the units applied before it
// stay applied and recorded; the call returns them along with the
// error.
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	ids, err := m.discovery.ListUnits(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	descending(ids)

	// resolve everything up front so a missing implementation aborts
	// before any side effects
	units := make(map[string]unit.Unit, len(ids))
	for _, id := range ids {
		u, err := m.registry.Resolve(id)
		if err != nil {
			m.lg.Error(err)
			return nil, err
		}

		units[id] = u
	}

	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	ran, err := m.ledger.Ran(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	pending := pendingOf(ids, ran)
	if len(pending) == 0 {
		m.lg.Debugf("nothing to migrate")
		return []string{}, nil
	}

	var batch int
	if m.policy == BatchPerRun {
		b, err := m.ledger.NextBatch(ctx)
		if err != nil {
			m.lg.Error(err)
			return nil, err
		}

		batch = b
	}

	applied := make([]string, 0, len(pending))
	for _, id := range pending {
		if err := units[id].Up(ctx, m.ex); err != nil {
			err = errors.Wrapf(err, "could not apply unit [%s]", id)
			m.lg.Error(err)
			return applied, err
		}

		b := batch
		if m.policy == BatchPerUnit {
			nb, err := m.ledger.NextBatch(ctx)
			if err != nil {
				m.lg.Error(err)
				return applied, err
			}

			b = nb
		}

		if err := m.ledger.Insert(ctx, id, b); err != nil {
			m.lg.Error(err)
			return applied, err
		}

		m.lg.Successf("migrated: %s batch: %d", id, b)
		applied = append(applied, id)
	}

	return applied, nil
}

// Rollback reverts the units whose ledger entry carries the current
// maximum batch number, in descending identifier order, and returns
// their identifiers. Under the default BatchPerUnit policy this is the
// single most recently applied unit.
func (m *Migrator) Rollback(ctx context.Context) ([]string, error) {
	ids, err := m.discovery.ListUnits(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	last, err := m.ledger.LastBatch(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	if last == 0 {
		m.lg.Debugf("nothing to roll back")
		return []string{}, nil
	}

	descending(ids)

	rolledBack := make([]string, 0)
	for _, id := range ids {
		entries, err := m.ledger.Find(ctx, id)
		if err != nil {
			m.lg.Error(err)
			return rolledBack, err
		}

		if len(entries) == 0 || entries[0].Batch != last {
			continue
		}

		if err := m.revert(ctx, id); err != nil {
			return rolledBack, err
		}

		m.lg.Successf("rolled back: %s batch: %d", id, last)
		rolledBack = append(rolledBack, id)
	}

	return rolledBack, nil
}

// Reset reverts every discovered unit that has a ledger entry, in
// ascending identifier order, and returns the reverted identifiers.
func (m *Migrator) Reset(ctx context.Context) ([]string, error) {
	ids, err := m.discovery.ListUnits(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	reverted := make([]string, 0)
	for _, id := range ids {
		entries, err := m.ledger.Find(ctx, id)
		if err != nil {
			m.lg.Error(err)
			return reverted, err
		}

		if len(entries) == 0 {
			continue
		}

		if err := m.revert(ctx, id); err != nil {
			return reverted, err
		}

		m.lg.Successf("reset: %s", id)
		reverted = append(reverted, id)
	}

	return reverted, nil
}

// Refresh resets every applied unit and migrates everything again.
func (m *Migrator) Refresh(ctx context.Context) ([]string, []string, error) {
	reverted, err := m.Reset(ctx)
	if err != nil {
		return reverted, nil, err
	}

	applied, err := m.Migrate(ctx)
	if err != nil {
		return reverted, applied, err
	}

	return reverted, applied, nil
}

// Up applies a single unit and records it with the next batch number.
// A unit that already has a ledger entry is left alone.
func (m *Migrator) Up(ctx context.Context, id string) error {
	u, err := m.registry.Resolve(id)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return err
	}

	entries, err := m.ledger.Find(ctx, id)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if len(entries) > 0 {
		m.lg.Debugf("unit [%s] is already applied", id)
		return nil
	}

	if err := u.Up(ctx, m.ex); err != nil {
		err = errors.Wrapf(err, "could not apply unit [%s]", id)
		m.lg.Error(err)
		return err
	}

	batch, err := m.ledger.NextBatch(ctx)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if err := m.ledger.Insert(ctx, id, batch); err != nil {
		m.lg.Error(err)
		return err
	}

	m.lg.Successf("migrated: %s batch: %d", id, batch)

	return nil
}

// Down reverts a single unit and deletes its ledger entry. A unit with
// no ledger entry is left alone.
func (m *Migrator) Down(ctx context.Context, id string) error {
	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return err
	}

	entries, err := m.ledger.Find(ctx, id)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if len(entries) == 0 {
		m.lg.Debugf("unit [%s] is not applied", id)
		return nil
	}

	if err := m.revert(ctx, id); err != nil {
		return err
	}

	m.lg.Successf("rolled back: %s", id)

	return nil
}

// Status reports, per discovered unit in ascending order, whether it
// has been applied and in which batch.
func (m *Migrator) Status(ctx context.Context) ([]UnitStatus, error) {
	ids, err := m.discovery.ListUnits(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	if err := m.ledger.CreateTable(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	statuses := make([]UnitStatus, 0, len(ids))
	for _, id := range ids {
		entries, err := m.ledger.Find(ctx, id)
		if err != nil {
			m.lg.Error(err)
			return statuses, err
		}

		s := UnitStatus{ID: id}
		if len(entries) > 0 {
			s.Ran = true
			s.Batch = entries[0].Batch
		}

		statuses = append(statuses, s)
	}

	return statuses, nil
}

// Ran returns the identifiers currently recorded in the ledger.
func (m *Migrator) Ran(ctx context.Context) ([]string, error) {
	if err := m.ledger.CreateTable(ctx); err != nil {
		return nil, err
	}

	return m.ledger.Ran(ctx)
}

// LastBatch returns the ledger's maximum batch number, 0 when empty.
func (m *Migrator) LastBatch(ctx context.Context) (int, error) {
	if err := m.ledger.CreateTable(ctx); err != nil {
		return 0, err
	}

	return m.ledger.LastBatch(ctx)
}

// NextBatch returns LastBatch+1, computed fresh on every call.
func (m *Migrator) NextBatch(ctx context.Context) (int, error) {
	if err := m.ledger.CreateTable(ctx); err != nil {
		return 0, err
	}

	return m.ledger.NextBatch(ctx)
}

// Find returns the ledger entries recorded for an identifier, zero or
// one in practice.
func (m *Migrator) Find(ctx context.Context, id string) ([]Entry, error) {
	if err := m.ledger.CreateTable(ctx); err != nil {
		return nil, err
	}

	return m.ledger.Find(ctx, id)
}

// Resolve maps an identifier to its registered unit implementation.
func (m *Migrator) Resolve(id string) (unit.Unit, error) {
	return m.registry.Resolve(id)
}

func (m *Migrator) revert(ctx context.Context, id string) error {
	u, err := m.registry.Resolve(id)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if err := u.Down(ctx, m.ex); err != nil {
		err = errors.Wrapf(err, "could not revert unit [%s]", id)
		m.lg.Error(err)
		return err
	}

	if err := m.ledger.Delete(ctx, id); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}

func (m *Migrator) close() error {
	for _, fn := range m.closerFns {
		if err := fn(); err != nil {
			m.lg.Error(err)
			return err
		}
	}

	return nil
}

func descending(ids []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
}

func pendingOf(ids []string, ran []string) []string {
	applied := make(map[string]struct{}, len(ran))
	for _, id := range ran {
		applied[id] = struct{}{}
	}

	var pending []string
	for _, id := range ids {
		if _, ok := applied[id]; !ok {
			pending = append(pending, id)
		}
	}

	return pending
}
