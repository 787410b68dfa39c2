package core

import (
	"fmt"
	"os"
	"syscall"

	"github.com/illarion/varicrypt/internal/crypto"
	"golang.org/x/term"
)

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Encryption key: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm key: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// IsTerminal reports whether stdin is interactive.
func IsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}
