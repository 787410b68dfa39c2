package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/illarion/varicrypt/internal/core"
)

// Media kinds accepted by decode and verify
const (
	MediumText  = "text"
	MediumImage = "image"
	MediumAudio = "audio"
)

// DecodeText decrypts transport text and prints the message. Empty text
// is read from stdin.
func DecodeText(env *Env, text string, format core.Format) error {
	if text == "" {
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		text = string(data)
	}
	password, err := env.GetPassword(false)
	if err != nil {
		return err
	}

	msg, err := env.Engine().DecodeText(text, password, format)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, msg)
	return nil
}

// DecodeFile extracts the message hidden in the image or audio file path
// and prints it.
func DecodeFile(ctx context.Context, env *Env, medium, path string) error {
	password, err := env.GetPassword(false)
	if err != nil {
		return err
	}

	msg, err := decodeFile(ctx, env.Engine(), medium, path, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, msg)
	return nil
}

func decodeFile(ctx context.Context, engine *core.Engine, medium, path, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch medium {
	case MediumText:
		return engine.DecodeText(string(data), password, core.FormatAuto)
	case MediumImage:
		return engine.DecodeImage(bytes.NewReader(data), password)
	case MediumAudio:
		return engine.DecodeAudio(ctx, data, password)
	default:
		return "", fmt.Errorf("unknown medium %q: want text, image or audio", medium)
	}
}
