package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := seedTestAccount(t, db, "alice", "role-admin", "corp-top")

	got, err := repo.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}
	if got.RolePerm != "admin" {
		t.Errorf("RolePerm = %q, want admin", got.RolePerm)
	}
	if !got.IsTopCorp {
		t.Error("corp-top has no parent, expected IsTopCorp")
	}
	if got.Status != StatusNormal {
		t.Errorf("Status = %q, want normal", got.Status)
	}
}

func TestAccountRepository_UsernameStoredLowercase(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	seedTestAccount(t, db, "MixedCase", "role-admin", "corp-top")

	got, err := repo.GetByUsername(ctx, "mixedcase")
	if err != nil {
		t.Fatalf("GetByUsername(lower): %v", err)
	}
	if got.Username != "mixedcase" {
		t.Errorf("Username = %q, want mixedcase", got.Username)
	}

	if _, err := repo.GetByUsername(ctx, "MIXEDCASE"); err != nil {
		t.Errorf("GetByUsername(upper): %v, want success", err)
	}
}

func TestAccountRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)

	seedTestAccount(t, db, "alice", "role-admin", "corp-top")

	dup := &Account{
		CorpID:       "corp-top",
		Username:     "Alice", // lowercases to the existing name
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create duplicate = %v, want ErrUsernameExists", err)
	}
}

func TestAccountRepository_NotFound(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetByUsername = %v, want ErrAccountNotFound", err)
	}
	if _, err := repo.GetByID(ctx, "acc-none"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetByID = %v, want ErrAccountNotFound", err)
	}
	if err := repo.UpdatePassword(ctx, "acc-none", "hash"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("UpdatePassword = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountRepository_NoRoleSubCorp(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)

	account := &Account{
		CorpID:       "corp-sub",
		Username:     "bob",
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.RoleID != "" {
		t.Errorf("RoleID = %q, want empty", got.RoleID)
	}
	if got.RolePerm != "" {
		t.Errorf("RolePerm = %q, want empty", got.RolePerm)
	}
	if got.IsTopCorp {
		t.Error("corp-sub has a parent, IsTopCorp should be false")
	}
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := seedTestAccount(t, db, "alice", "role-admin", "corp-top")

	newHash, err := HashPassword("rotated")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := repo.UpdatePassword(ctx, account.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	got, err := repo.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	ok, err := VerifyPassword("rotated", got.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("new password should verify against stored hash")
	}
}

func TestAccountRepository_Count(t *testing.T) {
	db := testDB(t)
	seedTestCorps(t, db)
	repo := NewAccountRepository(db)

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}

	seedTestAccount(t, db, "alice", "role-admin", "corp-top")
	n, err = repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
