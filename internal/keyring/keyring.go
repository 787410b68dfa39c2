// Package keyring keeps the password of a varicrypt profile in the OS
// keyring.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "varicrypt"

// ErrNotFound is returned when the profile has no stored password.
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password for profile in the OS keyring
func SavePassword(profile string, password string) error {
	return keyring.Set(serviceName, profile, password)
}

// GetPassword retrieves the password for profile from the OS keyring
func GetPassword(profile string) (string, error) {
	return keyring.Get(serviceName, profile)
}

// DeletePassword removes the password for profile. Deleting a missing
// entry is not an error.
func DeletePassword(profile string) error {
	err := keyring.Delete(serviceName, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasPassword checks if a password is stored for profile
func HasPassword(profile string) bool {
	_, err := keyring.Get(serviceName, profile)
	return err == nil
}
