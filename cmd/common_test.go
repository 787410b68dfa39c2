package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/illarion/varicrypt/internal/config"
	"github.com/illarion/varicrypt/internal/core"
	"github.com/illarion/varicrypt/internal/relay"
	"github.com/illarion/varicrypt/internal/workspace"
	gokeyring "github.com/zalando/go-keyring"
)

const testPassword = "secret123"

// testEnv returns an Env working in a fresh directory with a local store
// and a fixed password.
func testEnv(t *testing.T, vars map[string]string) (*Env, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	defaults := map[string]string{
		config.EnvPassword: testPassword,
		config.EnvStore:    filepath.Join(dir, "messages.db"),
	}
	cfg, err := config.FromEnv(func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return defaults[key]
	})
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	var out bytes.Buffer
	return &Env{
		Config: cfg,
		Logger: slog.New(slog.DiscardHandler),
		Stdin:  strings.NewReader(""),
		Stdout: &out,
	}, &out
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestGetPasswordOrder(t *testing.T) {
	gokeyring.MockInit()

	env, _ := testEnv(t, nil)
	got, err := env.GetPassword(false)
	if err != nil || got != testPassword {
		t.Fatalf("GetPassword() = %q, %v; want the configured password", got, err)
	}

	// Keyring comes next
	env, _ = testEnv(t, map[string]string{config.EnvPassword: "", config.EnvProfile: "work"})
	if err := gokeyring.Set("varicrypt", "work", "from-keyring"); err != nil {
		t.Fatal(err)
	}
	got, err = env.GetPassword(false)
	if err != nil || got != "from-keyring" {
		t.Fatalf("GetPassword() = %q, %v; want the keyring password", got, err)
	}

	// Then the prompt
	env, _ = testEnv(t, map[string]string{config.EnvPassword: "", config.EnvProfile: "empty"})
	var confirmed bool
	env.Prompt = func(confirm bool) ([]byte, error) {
		confirmed = confirm
		return []byte("typed"), nil
	}
	got, err = env.GetPassword(true)
	if err != nil || got != "typed" || !confirmed {
		t.Fatalf("GetPassword() = %q, %v (confirm %v); want the prompted password", got, err, confirmed)
	}

	// Nothing left
	env.Prompt = nil
	if _, err := env.GetPassword(false); !errors.Is(err, core.ErrPasswordRequired) {
		t.Errorf("Expected ErrPasswordRequired, got %v", err)
	}
}

func TestReadMessage(t *testing.T) {
	env, _ := testEnv(t, nil)

	got, err := env.ReadMessage("given")
	if err != nil || got != "given" {
		t.Errorf("ReadMessage() = %q, %v", got, err)
	}

	env.Stdin = strings.NewReader("first line\nsecond line\n")
	got, err = env.ReadMessage("")
	if err != nil || got != "first line\nsecond line" {
		t.Errorf("Piped stdin: ReadMessage() = %q, %v", got, err)
	}

	env.Stdin = strings.NewReader("typed line\nignored\n")
	env.Prompt = func(bool) ([]byte, error) { return nil, nil }
	got, err = env.ReadMessage("")
	if err != nil || got != "typed line" {
		t.Errorf("Terminal: ReadMessage() = %q, %v", got, err)
	}

	env.Prompt = nil
	env.Stdin = strings.NewReader(" \n")
	if _, err := env.ReadMessage(""); err == nil {
		t.Error("Expected error for empty message")
	}
}

func TestWriteOutputStaysInWorkingDirectory(t *testing.T) {
	env, _ := testEnv(t, nil)

	path, err := env.WriteOutput("out/a.png", []byte("data"), false)
	if err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "data" {
		t.Errorf("Output = %q, %v", data, err)
	}

	if _, err := env.WriteOutput("../escape.png", []byte("x"), false); !errors.Is(err, workspace.ErrPathEscapes) {
		t.Errorf("Expected ErrPathEscapes, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err      error
		wantMsg  string
		wantHint bool
	}{
		{fmt.Errorf("decrypt: %w", core.ErrIntegrity), "wrong key or tampered message", false},
		{core.ErrUnknownSymbol, "message contains symbols outside the key's alphabet", true},
		{core.ErrMalformedEnvelope, "message is truncated or corrupted", false},
		{fmt.Errorf("fit: %w", core.ErrCapacityExceeded), "carrier is too small for this message", true},
		{core.ErrTerminatorNotFound, "no hidden message found", false},
		{core.ErrNotFound, "message not found (already received or expired)", false},
		{core.ErrPasswordRequired, "password required", true},
		{fmt.Errorf("%w: out.png", workspace.ErrExists), "file already exists: out.png", true},
		{errors.New("boom"), "boom", false},
	}

	for _, tt := range tests {
		msg, hint := Describe(tt.err)
		if msg != tt.wantMsg {
			t.Errorf("Describe(%v) message = %q, want %q", tt.err, msg, tt.wantMsg)
		}
		if (hint != "") != tt.wantHint {
			t.Errorf("Describe(%v) hint = %q", tt.err, hint)
		}
	}

	msg, hint := Describe(&relay.NetworkError{Err: errors.New("connection refused"), URL: "http://127.0.0.1:1/send"})
	if !strings.HasPrefix(msg, "message server unavailable") || !strings.Contains(hint, config.EnvServerURL) {
		t.Errorf("Describe(NetworkError) = %q, %q", msg, hint)
	}

	_, hint = Describe(fmt.Errorf("%w: 30 words, limit is 20", core.ErrMessageTooLong))
	if !strings.Contains(hint, config.EnvMaxWords) {
		t.Errorf("Message too long hint = %q", hint)
	}
}

func TestFormatSize(t *testing.T) {
	got := []string{formatSize(512), formatSize(2048), formatSize(3 << 20), formatSize(5 << 30)}
	want := []string{"512 bytes", "2.0 KB", "3.0 MB", "5.0 GB"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("formatSize mismatch (-want +got):\n%s", diff)
	}
}
