package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection would get its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(sqlDB); err != nil {
		sqlDB.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return &DB{sqlDB}
}

func TestGetAuthEmpty(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Errorf("GetAuth() error = %v, want ErrNoAuth", err)
	}
}

func TestSaveAndGetAuth(t *testing.T) {
	db := setupTestDB(t)
	expires := time.Unix(1710000000, 0)

	in := &Auth{
		Username:     "runner@example.com",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    expires,
	}
	if err := db.SaveAuth(in); err != nil {
		t.Fatalf("SaveAuth() error = %v", err)
	}

	got, err := db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	want := &Auth{
		Username:     "runner@example.com",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresAt:    expires,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetAuth() mismatch (-want +got):\n%s", diff)
	}

	// saving again replaces the singleton row
	in.AccessToken = "access-2"
	in.Username = "other@example.com"
	if err := db.SaveAuth(in); err != nil {
		t.Fatalf("SaveAuth() error = %v", err)
	}
	got, err = db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	if got.AccessToken != "access-2" || got.Username != "other@example.com" {
		t.Errorf("GetAuth() = %+v after second save", got)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM auth`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("auth has %d rows, want 1", rows)
	}
}

func TestUpdateTokens(t *testing.T) {
	db := setupTestDB(t)
	expires := time.Unix(1720000000, 0)

	if err := db.UpdateTokens("a", "r", expires); !errors.Is(err, ErrNoAuth) {
		t.Errorf("UpdateTokens() without auth error = %v, want ErrNoAuth", err)
	}

	if err := db.SaveAuth(&Auth{Username: "u", AccessToken: "a0", RefreshToken: "r0", ExpiresAt: time.Unix(0, 0)}); err != nil {
		t.Fatalf("SaveAuth() error = %v", err)
	}
	if err := db.UpdateTokens("a1", "r1", expires); err != nil {
		t.Fatalf("UpdateTokens() error = %v", err)
	}

	got, err := db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth() error = %v", err)
	}
	if got.AccessToken != "a1" || got.RefreshToken != "r1" || !got.ExpiresAt.Equal(expires) {
		t.Errorf("GetAuth() = %+v after UpdateTokens", got)
	}
	if got.Username != "u" {
		t.Errorf("Username = %q, want it untouched", got.Username)
	}
}

func TestState(t *testing.T) {
	db := setupTestDB(t)

	v, err := db.GetState(StateLastLogin)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if v != "" {
		t.Errorf("GetState() = %q, want empty", v)
	}

	for _, value := range []string{"2024-03-10T08:00:00Z", "2024-03-11T08:00:00Z"} {
		if err := db.SetState(StateLastLogin, value); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		got, err := db.GetState(StateLastLogin)
		if err != nil {
			t.Fatalf("GetState() error = %v", err)
		}
		if got != value {
			t.Errorf("GetState() = %q, want %q", got, value)
		}
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "data.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.SetState("k", "v"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	db.Close()

	// migrations are idempotent and data persists
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer db.Close()
	got, err := db.GetState("k")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if got != "v" {
		t.Errorf("GetState() = %q, want v", got)
	}
}
