package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/illarion/varicrypt/internal/core"
)

// EncodeText prints message as transport text in format.
func EncodeText(env *Env, message string, format core.Format) error {
	message, err := env.ReadMessage(message)
	if err != nil {
		return err
	}
	password, err := env.GetPassword(true)
	if err != nil {
		return err
	}

	text, err := env.Engine().EncodeText(message, password, format)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, text)
	return nil
}

// ImageOptions holds the flags of EncodeImage.
type ImageOptions struct {
	Carrier string // empty means acquire one
	Output  string
	Fixed   bool
	Force   bool
}

// EncodeImage hides message in an image and writes the PNG to opts.Output.
func EncodeImage(ctx context.Context, env *Env, message string, opts ImageOptions) error {
	message, err := env.ReadMessage(message)
	if err != nil {
		return err
	}
	password, err := env.GetPassword(true)
	if err != nil {
		return err
	}

	var imgOpts core.ImageOptions
	if opts.Carrier != "" {
		f, err := os.Open(opts.Carrier)
		if err != nil {
			return fmt.Errorf("failed to open carrier: %w", err)
		}
		defer f.Close()
		imgOpts.Carrier = f
		imgOpts.Fixed = opts.Fixed
	}

	var buf bytes.Buffer
	if err := env.Engine().EncodeImage(ctx, message, password, imgOpts, &buf); err != nil {
		return err
	}

	path, err := env.WriteOutput(opts.Output, buf.Bytes(), opts.Force)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Message hidden in %s (%s)\n", path, formatSize(int64(buf.Len())))
	return nil
}

// EncodeAudio hides message in the audio file carrierPath and writes the
// WAV to output.
func EncodeAudio(ctx context.Context, env *Env, message, carrierPath, output string, force bool) error {
	audio, err := os.ReadFile(carrierPath)
	if err != nil {
		return fmt.Errorf("failed to read carrier: %w", err)
	}
	message, err = env.ReadMessage(message)
	if err != nil {
		return err
	}
	password, err := env.GetPassword(true)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := env.Engine().EncodeAudio(ctx, message, password, audio, &buf); err != nil {
		return err
	}

	path, err := env.WriteOutput(output, buf.Bytes(), force)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Message hidden in %s (%s)\n", path, formatSize(int64(buf.Len())))
	return nil
}
