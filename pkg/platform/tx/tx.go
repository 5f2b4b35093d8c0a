// Package tx carries transaction state through context so stores can join the
// caller's unit of work without changing their method signatures.
//
// SQL stores look for a *sql.Tx (WithTx/From). In-memory stores register undo
// steps on a Journal (WithJournal/JournalFrom) that InMemory.RunInTx replays in
// reverse order when the unit of work fails.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type (
	sqlTxKey   struct{}
	journalKey struct{}
)

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlTxKey{}, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return tx, ok
}

// Journal records compensating steps for in-memory writes.
type Journal struct {
	mu   sync.Mutex
	undo []func()
}

// OnRollback registers fn to run if the surrounding unit of work fails.
func (j *Journal) OnRollback(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, fn)
}

// rollback runs the registered steps newest first.
func (j *Journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// WithJournal attaches j to ctx.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom extracts the in-memory journal from context if present.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// Runner executes fn as one unit of work. fn must use the context it is given.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// InMemory is a Runner for in-memory stores: a coarse lock serializes units of
// work, and a Journal undoes their writes when fn returns an error.
type InMemory struct {
	mu sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (t *InMemory) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j := &Journal{}
	if err := fn(WithJournal(ctx, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}
