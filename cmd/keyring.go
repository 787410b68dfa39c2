package cmd

import (
	"fmt"

	"github.com/illarion/varicrypt/internal/core"
	"github.com/illarion/varicrypt/internal/crypto"
	"github.com/illarion/varicrypt/internal/keyring"
)

// KeyringSave saves a password for the profile to the OS keyring
func KeyringSave(env *Env) error {
	if env.Prompt == nil {
		return core.ErrPasswordRequired
	}

	// Prompt for password
	password, err := env.Prompt(true)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := keyring.SavePassword(env.Config.Profile, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	fmt.Fprintf(env.Stdout, "Password saved to keyring (profile %q)\n", env.Config.Profile)
	return nil
}

// KeyringDelete removes the profile's password from the OS keyring
func KeyringDelete(env *Env) error {
	if !keyring.HasPassword(env.Config.Profile) {
		fmt.Fprintln(env.Stdout, "No password stored in keyring")
		return nil
	}

	if err := keyring.DeletePassword(env.Config.Profile); err != nil {
		return fmt.Errorf("failed to remove from keyring: %w", err)
	}

	fmt.Fprintln(env.Stdout, "Password removed from keyring")
	return nil
}

// KeyringStatus reports whether a password is stored for the profile
func KeyringStatus(env *Env) error {
	if keyring.HasPassword(env.Config.Profile) {
		fmt.Fprintf(env.Stdout, "Password: stored in keyring (profile %q)\n", env.Config.Profile)
	} else {
		fmt.Fprintln(env.Stdout, "Password: not stored")
	}
	return nil
}
