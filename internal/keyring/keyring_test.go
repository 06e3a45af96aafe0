package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/bloomup?sslmode=disable"

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

func TestTokenRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	if err := SetToken("abc.def.ghi"); err != nil {
		t.Fatalf("SetToken() failed: %v", err)
	}
	got, err := GetToken()
	if err != nil {
		t.Fatalf("GetToken() failed: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("GetToken() = %q", got)
	}

	// token and connection string live under separate entries
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() error = %v, want ErrNotFound", err)
	}

	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken() failed: %v", err)
	}
	if _, err := GetToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete, GetToken() error = %v, want ErrNotFound", err)
	}
}

func TestSetEmptyRejected(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
	if err := SetToken(""); err == nil {
		t.Error("SetToken(\"\") should return an error")
	}
}

func TestDeleteNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()
	if err := DeleteConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteConnectionString() error = %v, want %v", err, ErrNotFound)
	}
	if err := DeleteToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteToken() error = %v, want %v", err, ErrNotFound)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}
