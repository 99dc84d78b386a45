package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tineghir-cms/internal/model"
)

// ErrLastAdmin is returned when a delete would remove the last remaining
// Administrator account, which would lock out all authenticated operations.
var ErrLastAdmin = errors.New("cannot delete the last administrator account")

// BulkUpsertContent applies every (key, value) pair in updates as an
// insert-or-overwrite inside one transaction. Either all entries are
// durably applied or none are; readers never observe a partial update.
// An empty mapping is a no-op success.
func BulkUpsertContent(ctx context.Context, db *sql.DB, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := New(db).WithTx(tx)
	for key, value := range updates {
		if err := qtx.UpsertContent(ctx, key, value); err != nil {
			return fmt.Errorf("upserting content key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing content update: %w", err)
	}
	return nil
}

// DeleteUserGuarded deletes a user by id inside a transaction, refusing to
// remove the last remaining Administrator. Deleting a nonexistent id is a
// successful no-op.
func DeleteUserGuarded(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := New(db).WithTx(tx)

	user, err := qtx.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Idempotent delete: missing id is success.
			return nil
		}
		return fmt.Errorf("looking up user %d: %w", id, err)
	}

	if user.Role == model.RoleAdministrator {
		admins, err := qtx.CountUsersByRole(ctx, model.RoleAdministrator)
		if err != nil {
			return fmt.Errorf("counting administrators: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := qtx.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user delete: %w", err)
	}
	return nil
}
