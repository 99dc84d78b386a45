package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tineghir-cms/internal/model"
)

func TestBulkUpsertContent(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	if err := BulkUpsertContent(ctx, db, map[string]string{
		"a": "1",
		"b": "1",
		"c": "1",
	}); err != nil {
		t.Fatalf("BulkUpsertContent() error = %v", err)
	}

	// A partial-overlap update overwrites named keys and leaves the rest.
	if err := BulkUpsertContent(ctx, db, map[string]string{
		"b": "2",
		"d": "2",
	}); err != nil {
		t.Fatalf("second BulkUpsertContent() error = %v", err)
	}

	content, err := q.AllContent(ctx)
	if err != nil {
		t.Fatalf("AllContent() error = %v", err)
	}
	want := map[string]string{"a": "1", "b": "2", "c": "1", "d": "2"}
	if len(content) != len(want) {
		t.Fatalf("len(content) = %d, want %d", len(content), len(want))
	}
	for k, v := range want {
		if content[k] != v {
			t.Errorf("content[%q] = %q, want %q", k, content[k], v)
		}
	}
}

func TestBulkUpsertContentConcurrentDisjoint(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	// Two writers on disjoint key sets must both apply fully; the
	// busy-timeout pragma serializes the transactions.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, updates := range []map[string]string{
		{"left_1": "L", "left_2": "L"},
		{"right_1": "R", "right_2": "R"},
	} {
		wg.Add(1)
		go func(m map[string]string) {
			defer wg.Done()
			errs <- BulkUpsertContent(ctx, db, m)
		}(updates)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent BulkUpsertContent() error = %v", err)
		}
	}

	content, err := q.AllContent(ctx)
	if err != nil {
		t.Fatalf("AllContent() error = %v", err)
	}
	if len(content) != 4 {
		t.Errorf("len(content) = %d, want 4: %v", len(content), content)
	}
}

func TestBulkUpsertContentConcurrentSameKey(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	// Two writers race on a shared key. Whichever commits last wins, but
	// each writer's full mapping must land: the shared key holds one
	// writer's value and both side keys are present.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, updates := range []map[string]string{
		{"shared": "A", "a_only": "A"},
		{"shared": "B", "b_only": "B"},
	} {
		wg.Add(1)
		go func(m map[string]string) {
			defer wg.Done()
			errs <- BulkUpsertContent(ctx, db, m)
		}(updates)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent BulkUpsertContent() error = %v", err)
		}
	}

	content, err := q.AllContent(ctx)
	if err != nil {
		t.Fatalf("AllContent() error = %v", err)
	}
	if v := content["shared"]; v != "A" && v != "B" {
		t.Errorf("shared = %q, want A or B", v)
	}
	if content["a_only"] != "A" || content["b_only"] != "B" {
		t.Errorf("side keys = %q/%q, want both writes fully applied",
			content["a_only"], content["b_only"])
	}
}

func TestBulkUpsertContentEmpty(t *testing.T) {
	db := newTestDB(t)

	if err := BulkUpsertContent(context.Background(), db, nil); err != nil {
		t.Fatalf("BulkUpsertContent(nil) error = %v", err)
	}
	if err := BulkUpsertContent(context.Background(), db, map[string]string{}); err != nil {
		t.Fatalf("BulkUpsertContent(empty) error = %v", err)
	}
}

func createTestUser(t *testing.T, q *Queries, email, role string) int64 {
	t.Helper()
	id, err := q.CreateUser(context.Background(), CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Status:       model.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return id
}

func TestDeleteUserGuardedLastAdmin(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	adminID := createTestUser(t, q, "admin@example.com", model.RoleAdministrator)

	err := DeleteUserGuarded(ctx, db, adminID)
	if !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("DeleteUserGuarded(last admin) error = %v, want ErrLastAdmin", err)
	}

	// The admin must still be present.
	if _, err := q.GetUserByID(ctx, adminID); err != nil {
		t.Errorf("admin was deleted despite guard: %v", err)
	}
}

func TestDeleteUserGuardedSecondAdmin(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	first := createTestUser(t, q, "admin1@example.com", model.RoleAdministrator)
	second := createTestUser(t, q, "admin2@example.com", model.RoleAdministrator)

	if err := DeleteUserGuarded(ctx, db, second); err != nil {
		t.Fatalf("DeleteUserGuarded(second admin) error = %v", err)
	}

	// Now first is the last admin and protected again.
	if err := DeleteUserGuarded(ctx, db, first); !errors.Is(err, ErrLastAdmin) {
		t.Errorf("DeleteUserGuarded(remaining admin) error = %v, want ErrLastAdmin", err)
	}
}

func TestDeleteUserGuardedEditor(t *testing.T) {
	db := newTestDB(t)
	q := New(db)
	ctx := context.Background()

	createTestUser(t, q, "admin@example.com", model.RoleAdministrator)
	editorID := createTestUser(t, q, "editor@example.com", model.RoleEditor)

	if err := DeleteUserGuarded(ctx, db, editorID); err != nil {
		t.Fatalf("DeleteUserGuarded(editor) error = %v", err)
	}

	// Deleting an id that no longer exists is a successful no-op.
	if err := DeleteUserGuarded(ctx, db, editorID); err != nil {
		t.Fatalf("repeat DeleteUserGuarded() error = %v", err)
	}
	if err := DeleteUserGuarded(ctx, db, 99999); err != nil {
		t.Fatalf("DeleteUserGuarded(unknown id) error = %v", err)
	}
}
