package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/varicrypt/internal/core"
)

// Send encodes message to text, stores it and prints the id.
func Send(ctx context.Context, env *Env, message string, format core.Format) error {
	message, err := env.ReadMessage(message)
	if err != nil {
		return err
	}
	password, err := env.GetPassword(true)
	if err != nil {
		return err
	}

	store, closeStore, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := env.Engine().Send(ctx, store, message, password, format)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, id)
	return nil
}

// Receive fetches the message stored under id, prints it, and leaves
// nothing behind. A missing message is reported, not failed.
func Receive(ctx context.Context, env *Env, id string, format core.Format) error {
	password, err := env.GetPassword(false)
	if err != nil {
		return err
	}

	store, closeStore, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	msg, err := env.Engine().Receive(ctx, store, id, password, format)
	if errors.Is(err, core.ErrNotFound) {
		fmt.Fprintln(env.Stdout, "Message not found (already received or expired)")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, msg)
	return nil
}
