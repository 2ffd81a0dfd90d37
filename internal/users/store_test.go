package users_test

import (
	"context"
	"errors"
	"testing"

	"echocheck/internal/testsupport"
	"echocheck/internal/users"
)

func openStore(t *testing.T) *users.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := users.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created, err := store.Register(ctx, "alice", "alice@example.com", "S3cure-Passw0rd!")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned user id")
	}
	if created.PasswordHash == "S3cure-Passw0rd!" {
		t.Fatal("password stored in clear text")
	}

	user, err := store.Authenticate(ctx, "alice", "S3cure-Passw0rd!")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}

	if _, err := store.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := store.Authenticate(ctx, "nobody", "S3cure-Passw0rd!"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Register(ctx, "alice", "alice@example.com", "S3cure-Passw0rd!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := store.Register(ctx, "Alice", "other@example.com", "S3cure-Passw0rd!"); !errors.Is(err, users.ErrUsernameTaken) {
		t.Fatalf("expected username conflict, got %v", err)
	}
	if _, err := store.Register(ctx, "bob", "ALICE@example.com", "S3cure-Passw0rd!"); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestByIDAndDisplayName(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created, err := store.Register(ctx, "carol", "carol@example.com", "S3cure-Passw0rd!")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	fetched, err := store.ByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if fetched.Email != "carol@example.com" {
		t.Fatalf("unexpected email %q", fetched.Email)
	}

	name, err := store.DisplayName(ctx, created.ID)
	if err != nil {
		t.Fatalf("DisplayName failed: %v", err)
	}
	if name != "carol" {
		t.Fatalf("expected carol, got %q", name)
	}

	if _, err := store.ByID(ctx, created.ID+100); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
