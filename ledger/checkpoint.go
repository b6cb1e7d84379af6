/*
checkpoint.go - Incremental ingestion bookmarks

PURPOSE:
  The external ingester scans mailbox folders and records one
  transaction per alert email. After each message it stores the UID it
  just handled; on restart it asks for that UID and resumes after it.

PROTOCOL:
  GetCheckpoint:    nil when the folder was never checkpointed (start from
                    the beginning). Never a NotFound.
  UpsertCheckpoint: insert-or-overwrite in one unit-of-work. The UID is
                    stored as given; ordering is the ingester's concern.
  DeleteCheckpoint: NotFound when absent; afterwards the folder reads as
                    never checkpointed.

UNIQUENESS:
  folder carries a UNIQUE constraint. The upsert is a single
  INSERT ... ON CONFLICT (folder) DO UPDATE statement, so two concurrent
  first writes for a folder still leave one row.
*/
package ledger

import (
	"context"
	"errors"
)

// GetCheckpoint returns the bookmark for folder, or nil if there is none.
func (l *Ledger) GetCheckpoint(ctx context.Context, folder string) (*EmailCheckpoint, error) {
	if err := validateFolder(folder); err != nil {
		return nil, err
	}
	var out *EmailCheckpoint
	err := l.unitOfWork(ctx, "get checkpoint", func(tx Tx) error {
		cp, err := tx.GetCheckpoint(ctx, folder)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &cp
		return nil
	})
	return out, err
}

// UpsertCheckpoint sets last_seen_uid for folder, creating the row on first use.
// loadBy is recorded only when the row is created.
func (l *Ledger) UpsertCheckpoint(ctx context.Context, folder string, lastSeenUID int64, loadBy *string) (EmailCheckpoint, error) {
	if err := validateFolder(folder); err != nil {
		return EmailCheckpoint{}, err
	}
	var out EmailCheckpoint
	err := l.unitOfWork(ctx, "upsert checkpoint", func(tx Tx) error {
		var err error
		out, err = tx.UpsertCheckpoint(ctx, EmailCheckpoint{
			Folder:      folder,
			LastSeenUID: lastSeenUID,
			LoadBy:      loadBy,
		})
		return err
	})
	return out, err
}

// ListCheckpoints returns every bookmark ordered by folder.
func (l *Ledger) ListCheckpoints(ctx context.Context) ([]EmailCheckpoint, error) {
	var out []EmailCheckpoint
	err := l.unitOfWork(ctx, "list checkpoints", func(tx Tx) error {
		var err error
		out, err = tx.ListCheckpoints(ctx)
		return err
	})
	return out, err
}

// DeleteCheckpoint removes the bookmark for folder, resetting it to unseen.
func (l *Ledger) DeleteCheckpoint(ctx context.Context, folder string) error {
	if err := validateFolder(folder); err != nil {
		return err
	}
	return l.unitOfWork(ctx, "delete checkpoint", func(tx Tx) error {
		err := tx.DeleteCheckpoint(ctx, folder)
		if errors.Is(err, ErrNotFound) {
			return notFound("Email checkpoint", folder)
		}
		return err
	})
}
