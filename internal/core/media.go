package core

import (
	"context"
	"fmt"
	"io"

	"github.com/illarion/varicrypt/internal/carrier"
)

// ImageOptions controls EncodeImage.
type ImageOptions struct {
	// Carrier is the cover image. nil means acquire one.
	Carrier io.Reader
	// Fixed forbids resizing a supplied carrier.
	Fixed bool
}

// EncodeImage hides plaintext in an image and writes it to w as PNG.
func (e *Engine) EncodeImage(ctx context.Context, plaintext, password string, opts ImageOptions, w io.Writer) error {
	if err := e.CheckMessage(plaintext); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}

	var (
		c   *carrier.ImageCarrier
		err error
	)
	if opts.Carrier == nil {
		if c, err = e.acquirer.Acquire(ctx); err != nil {
			return err
		}
	} else {
		if c, err = carrier.DecodeImage(opts.Carrier); err != nil {
			return err
		}
		c.Fixed = opts.Fixed
	}

	out, err := e.hide(plaintext, password, c, func(bc carrier.BitCarrier, needed int) (carrier.BitCarrier, error) {
		return e.planner.Fit(bc.(*carrier.ImageCarrier), needed)
	})
	if err != nil {
		return err
	}
	return out.Encode(w)
}

// DecodeImage extracts and opens a message hidden by EncodeImage.
func (e *Engine) DecodeImage(r io.Reader, password string) (string, error) {
	c, err := carrier.DecodeImage(r)
	if err != nil {
		return "", err
	}
	return e.reveal(c, password)
}

// EncodeAudio hides plaintext in audio and writes it to w as PCM WAV.
// Input that is not canonical PCM goes through the transcoder first.
func (e *Engine) EncodeAudio(ctx context.Context, plaintext, password string, audio []byte, w io.Writer) error {
	if err := e.CheckMessage(plaintext); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}

	c, err := carrier.LoadForEmbed(ctx, audio, e.transcoder)
	if err != nil {
		return err
	}

	out, err := e.hide(plaintext, password, c, func(bc carrier.BitCarrier, needed int) (carrier.BitCarrier, error) {
		if err := carrier.CheckCapacity(bc, needed); err != nil {
			return nil, fmt.Errorf("audio too short: %w", err)
		}
		return bc, nil
	})
	if err != nil {
		return err
	}
	return out.Encode(w)
}

// DecodeAudio extracts and opens a message hidden by EncodeAudio. PCM
// input is read as is; anything else is transcoded first.
func (e *Engine) DecodeAudio(ctx context.Context, audio []byte, password string) (string, error) {
	c, err := carrier.LoadForExtract(ctx, audio, e.transcoder)
	if err != nil {
		return "", err
	}
	return e.reveal(c, password)
}
