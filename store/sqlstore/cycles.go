package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/transactsync/transactsync/ledger"
)

const cycleColumns = `cycle_id, cycle_start, cycle_end, cycle_description, comments, load_time, load_by`

// InsertCycle adds a cycle and returns the stored row.
func (ts *txStore) InsertCycle(ctx context.Context, c ledger.Cycle) (ledger.Cycle, error) {
	query := `
		INSERT INTO cycles (cycle_start, cycle_end, cycle_description, comments, load_time, load_by)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING cycle_id
	`

	id, err := ts.insertReturningID(ctx, query,
		utc(c.Start),
		utc(c.End),
		nullable(c.Description),
		nullable(c.Comments),
		ts.timestamp(),
		nullable(c.LoadBy),
	)
	if err != nil {
		return ledger.Cycle{}, fmt.Errorf("failed to insert cycle: %w", err)
	}
	return ts.GetCycle(ctx, id)
}

// ListCycles returns all cycles ordered by id.
func (ts *txStore) ListCycles(ctx context.Context) ([]ledger.Cycle, error) {
	rows, err := ts.query(ctx, "SELECT "+cycleColumns+" FROM cycles ORDER BY cycle_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []ledger.Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// GetCycle retrieves a cycle by id.
func (ts *txStore) GetCycle(ctx context.Context, id int64) (ledger.Cycle, error) {
	row := ts.queryRow(ctx, "SELECT "+cycleColumns+" FROM cycles WHERE cycle_id = ?", id)
	return scanCycle(row)
}

// UpdateCycle overwrites every mutable column. load_time and load_by are kept.
func (ts *txStore) UpdateCycle(ctx context.Context, c ledger.Cycle) error {
	query := `
		UPDATE cycles SET
			cycle_start = ?,
			cycle_end = ?,
			cycle_description = ?,
			comments = ?
		WHERE cycle_id = ?
	`

	res, err := ts.exec(ctx, query,
		utc(c.Start),
		utc(c.End),
		nullable(c.Description),
		nullable(c.Comments),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cycle: %w", err)
	}
	return requireOne(res)
}

// DeleteCycle removes a cycle. Fails with ledger.ErrConstraint while
// transactions still reference it.
func (ts *txStore) DeleteCycle(ctx context.Context, id int64) error {
	res, err := ts.exec(ctx, "DELETE FROM cycles WHERE cycle_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cycle: %w", err)
	}
	return requireOne(res)
}

// FindCycleContaining returns the lowest-id cycle whose inclusive window
// contains at.
func (ts *txStore) FindCycleContaining(ctx context.Context, at time.Time) (ledger.Cycle, error) {
	query := `
		SELECT ` + cycleColumns + `
		FROM cycles
		WHERE cycle_start <= ? AND cycle_end >= ?
		ORDER BY cycle_id ASC
		LIMIT 1
	`

	at = utc(at)
	return scanCycle(ts.queryRow(ctx, query, at, at))
}

func scanCycle(row scanner) (ledger.Cycle, error) {
	var (
		c           ledger.Cycle
		description sql.NullString
		comments    sql.NullString
		loadBy      sql.NullString
	)

	err := row.Scan(&c.ID, &c.Start, &c.End, &description, &comments, &c.LoadTime, &loadBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Cycle{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Cycle{}, fmt.Errorf("failed to scan cycle: %w", err)
	}

	c.Start = utc(c.Start)
	c.End = utc(c.End)
	c.LoadTime = utc(c.LoadTime)
	c.Description = stringPtr(description)
	c.Comments = stringPtr(comments)
	c.LoadBy = stringPtr(loadBy)
	return c, nil
}
