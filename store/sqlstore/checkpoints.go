package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/transactsync/transactsync/ledger"
)

const checkpointColumns = `id, folder, last_seen_uid, load_time, load_by`

// GetCheckpoint retrieves the checkpoint for folder.
func (ts *txStore) GetCheckpoint(ctx context.Context, folder string) (ledger.EmailCheckpoint, error) {
	row := ts.queryRow(ctx, "SELECT "+checkpointColumns+" FROM email_checkpoints WHERE folder = ?", folder)
	return scanCheckpoint(row)
}

// UpsertCheckpoint inserts the checkpoint or overwrites last_seen_uid of the
// existing row. The UNIQUE(folder) constraint is the conflict target, so a
// concurrent first write resolves to an update instead of a second row.
func (ts *txStore) UpsertCheckpoint(ctx context.Context, cp ledger.EmailCheckpoint) (ledger.EmailCheckpoint, error) {
	query := `
		INSERT INTO email_checkpoints (folder, last_seen_uid, load_time, load_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(folder) DO UPDATE SET
			last_seen_uid = excluded.last_seen_uid
		RETURNING id
	`

	if _, err := ts.insertReturningID(ctx, query,
		cp.Folder,
		cp.LastSeenUID,
		ts.timestamp(),
		nullable(cp.LoadBy),
	); err != nil {
		return ledger.EmailCheckpoint{}, fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return ts.GetCheckpoint(ctx, cp.Folder)
}

// ListCheckpoints returns all checkpoints ordered by folder.
func (ts *txStore) ListCheckpoints(ctx context.Context) ([]ledger.EmailCheckpoint, error) {
	rows, err := ts.query(ctx, "SELECT "+checkpointColumns+" FROM email_checkpoints ORDER BY folder")
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	defer rows.Close()

	checkpoints := []ledger.EmailCheckpoint{}
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

// DeleteCheckpoint removes the checkpoint for folder.
func (ts *txStore) DeleteCheckpoint(ctx context.Context, folder string) error {
	res, err := ts.exec(ctx, "DELETE FROM email_checkpoints WHERE folder = ?", folder)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return requireOne(res)
}

func scanCheckpoint(row scanner) (ledger.EmailCheckpoint, error) {
	var (
		cp     ledger.EmailCheckpoint
		loadBy sql.NullString
	)

	err := row.Scan(&cp.ID, &cp.Folder, &cp.LastSeenUID, &cp.LoadTime, &loadBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.EmailCheckpoint{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.EmailCheckpoint{}, fmt.Errorf("failed to scan checkpoint: %w", err)
	}

	cp.LoadTime = utc(cp.LoadTime)
	cp.LoadBy = stringPtr(loadBy)
	return cp, nil
}
