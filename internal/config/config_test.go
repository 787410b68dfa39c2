package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	want := &Config{
		StorePath:    DefaultStore,
		TTL:          DefaultTTL,
		FetchTimeout: DefaultFetchTimeout,
		MaxWords:     DefaultMaxWords,
		Profile:      DefaultProfile,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		EnvPassword:     "secret123",
		EnvServerURL:    " https://relay.example/ ",
		EnvStore:        "/tmp/store.db",
		EnvTTL:          "90m",
		EnvFFmpeg:       "/usr/bin/ffmpeg",
		EnvImageSources: "https://a.example/img, ,https://b.example/img",
		EnvFetchTimeout: "750ms",
		EnvMaxWords:     "0",
		EnvProfile:      "work",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	want := &Config{
		Password:     "secret123",
		ServerURL:    "https://relay.example",
		StorePath:    "/tmp/store.db",
		TTL:          90 * time.Minute,
		FFmpeg:       "/usr/bin/ffmpeg",
		ImageSources: []string{"https://a.example/img", "https://b.example/img"},
		FetchTimeout: 750 * time.Millisecond,
		MaxWords:     0,
		Profile:      "work",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvTTL, "tomorrow"},
		{EnvFetchTimeout, "fast"},
		{EnvFetchTimeout, "0s"},
		{EnvMaxWords, "-1"},
		{EnvMaxWords, "twenty"},
	}
	for _, tt := range tests {
		_, err := FromEnv(envMap(map[string]string{tt.key: tt.value}))
		if err == nil {
			t.Errorf("%s=%q: expected error", tt.key, tt.value)
			continue
		}
		if !strings.Contains(err.Error(), tt.key) {
			t.Errorf("%s=%q: error should name the variable: %v", tt.key, tt.value, err)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := EnvProfile + "=from-file\n" + EnvMaxWords + "=7\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	// Variables already in the environment win over the file
	t.Setenv(EnvProfile, "from-env")
	t.Setenv(EnvMaxWords, "")
	os.Unsetenv(EnvMaxWords)

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Profile != "from-env" {
		t.Errorf("Profile: got %q, want from-env", cfg.Profile)
	}
	if cfg.MaxWords != 7 {
		t.Errorf("MaxWords: got %d, want 7", cfg.MaxWords)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvProfile, "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Missing .env should be ignored: %v", err)
	}
}
