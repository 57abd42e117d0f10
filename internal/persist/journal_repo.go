package persist

import (
	"context"
	"fmt"
)

// Journal entry kinds.
const (
	JournalDestroyed  = "destroyed"
	JournalPlayerDown = "player_down"
	JournalFault      = "fault"
)

// JournalEntry is one notable combat event of a simulation run.
type JournalEntry struct {
	Tick   uint64
	Kind   string
	Ship   uint64
	Detail string
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// WriteBatch stores entries for run in one transaction; either all of them
// land or none do.
func (r *JournalRepo) WriteBatch(ctx context.Context, run int64, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO combat_journal (run_id, tick, kind, ship, detail)
			 VALUES ($1, $2, $3, $4, $5)`,
			run, int64(e.Tick), e.Kind, int64(e.Ship), e.Detail,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Count returns how many entries of kind were recorded for run.
func (r *JournalRepo) Count(ctx context.Context, run int64, kind string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM combat_journal WHERE run_id = $1 AND kind = $2`, run, kind,
	).Scan(&n)
	return n, err
}
