package core

import (
	"context"

	"github.com/illarion/varicrypt/internal/storage"
)

// MessageStore keeps transport text until it is received once.
// relay.Client implements it for a remote store, LocalStore for a local one.
type MessageStore interface {
	Send(ctx context.Context, data string) (string, error)
	Receive(ctx context.Context, id string) (string, error)
}

// LocalStore adapts a bbolt store to MessageStore.
type LocalStore struct {
	*storage.Storage
}

// Send stores data and returns its id.
func (s LocalStore) Send(ctx context.Context, data string) (string, error) {
	return s.Put(ctx, []byte(data))
}

// Receive returns the data stored under id and forgets it.
func (s LocalStore) Receive(ctx context.Context, id string) (string, error) {
	data, err := s.Take(ctx, id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Send encodes plaintext in format and stores it. Hex is used for
// FormatAuto, matching what remote stores have always been sent.
func (e *Engine) Send(ctx context.Context, store MessageStore, plaintext, password string, format Format) (string, error) {
	if format == FormatAuto {
		format = FormatHex
	}
	text, err := e.EncodeText(plaintext, password, format)
	if err != nil {
		return "", err
	}

	id, err := store.Send(ctx, text)
	if err != nil {
		return "", err
	}
	e.logger.Debug("message sent", "id", id, "format", format.String())
	return id, nil
}

// Receive fetches the message stored under id and decodes it. ErrNotFound
// means it was already received or has expired.
func (e *Engine) Receive(ctx context.Context, store MessageStore, id, password string, format Format) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	text, err := store.Receive(ctx, id)
	if err != nil {
		return "", err
	}
	return e.DecodeText(text, password, format)
}
