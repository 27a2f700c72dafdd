package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"

	if err := SetConnectionString(testConnStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestDeleteConnectionStringNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()

	if err := DeleteConnectionString(); err != ErrNotFound {
		t.Errorf("DeleteConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestTokenStore(t *testing.T) {
	gokeyring.MockInit()
	store := NewTokenStore()

	if store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true before any token was stored")
	}
	token, err := store.Get()
	if err != nil || token != "" {
		t.Fatalf("Get() = %q, %v; want empty token and no error", token, err)
	}

	if err := store.Set("abc.def.ghi"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after Set")
	}
	if token, _ := store.Get(); token != "abc.def.ghi" {
		t.Errorf("Get() = %q, want %q", token, "abc.def.ghi")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after Clear")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear() should be a no-op, got %v", err)
	}
}

func TestTokenStoreRejectsEmptyToken(t *testing.T) {
	gokeyring.MockInit()

	if err := NewTokenStore().Set(""); err == nil {
		t.Error("Set(\"\") should return an error")
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}
