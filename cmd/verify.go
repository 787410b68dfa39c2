package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/varicrypt/internal/core"
)

// ErrMismatch is returned by Verify when the recovered message differs.
var ErrMismatch = errors.New("recovered message differs from expected")

// Verify decodes the medium in path and compares the result with the
// contents of expectPath.
func Verify(ctx context.Context, env *Env, medium, path, expectPath string) error {
	data, err := os.ReadFile(expectPath)
	if err != nil {
		return fmt.Errorf("failed to read expected message: %w", err)
	}
	expected := strings.TrimRight(string(data), "\r\n")

	password, err := env.GetPassword(false)
	if err != nil {
		return err
	}

	recovered, err := decodeFile(ctx, env.Engine(), medium, path, password)
	if err != nil {
		return err
	}

	if core.Matches(expected, recovered) {
		fmt.Fprintln(env.Stdout, "OK: recovered message matches")
		return nil
	}

	fmt.Fprintf(env.Stdout, "Mismatch: %s\n", core.Summary(expected, recovered))
	fmt.Fprint(env.Stdout, core.Diff(expected, recovered))
	return ErrMismatch
}
