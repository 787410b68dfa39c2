package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestProfilePasswords(t *testing.T) {
	keyring.MockInit()

	if HasPassword("default") {
		t.Fatal("Fresh keyring should be empty")
	}
	if _, err := GetPassword("default"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := SavePassword("default", "secret123"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}
	if err := SavePassword("work", "other"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	got, err := GetPassword("default")
	if err != nil || got != "secret123" {
		t.Errorf("GetPassword() = %q, %v", got, err)
	}

	if err := DeletePassword("default"); err != nil {
		t.Fatalf("DeletePassword failed: %v", err)
	}
	if HasPassword("default") {
		t.Error("Password still present after delete")
	}
	if !HasPassword("work") {
		t.Error("Deleting one profile removed another")
	}
	if err := DeletePassword("default"); err != nil {
		t.Errorf("Deleting a missing entry should succeed: %v", err)
	}
}
