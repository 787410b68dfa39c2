package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/illarion/varicrypt/internal/carrier"
	"github.com/illarion/varicrypt/internal/config"
	"github.com/illarion/varicrypt/internal/core"
	"github.com/illarion/varicrypt/internal/crypto"
	"github.com/illarion/varicrypt/internal/keyring"
	"github.com/illarion/varicrypt/internal/relay"
	"github.com/illarion/varicrypt/internal/storage"
	"github.com/illarion/varicrypt/internal/workspace"
)

// Env carries what every command needs.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer

	// Prompt reads a password from the terminal. nil means the terminal
	// is not available.
	Prompt func(confirm bool) ([]byte, error)
}

// NewEnv creates an Env bound to the process streams.
func NewEnv(cfg *config.Config, logger *slog.Logger) *Env {
	env := &Env{
		Config: cfg,
		Logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	if core.IsTerminal() {
		env.Prompt = promptTerminal
	}
	return env
}

func promptTerminal(confirm bool) ([]byte, error) {
	if confirm {
		return core.ReadPasswordConfirm()
	}
	return core.ReadPassword("Decryption key: ")
}

// Engine creates an engine configured from env.
func (env *Env) Engine() *core.Engine {
	acquirer := carrier.NewAcquirer(env.Logger)
	if len(env.Config.ImageSources) > 0 {
		acquirer.Sources = env.Config.ImageSources
	}
	acquirer.Timeout = env.Config.FetchTimeout

	return core.New(
		core.WithLogger(env.Logger),
		core.WithAcquirer(acquirer),
		core.WithTranscoder(carrier.NewFFmpeg(env.Config.FFmpeg, env.Logger)),
		core.WithMaxWords(env.Config.MaxWords),
	)
}

// GetPassword resolves the password from the environment, then the keyring
// profile, then the terminal. confirm asks twice when prompting.
func (env *Env) GetPassword(confirm bool) (string, error) {
	if env.Config.Password != "" {
		return env.Config.Password, nil
	}

	password, err := keyring.GetPassword(env.Config.Profile)
	if err == nil && password != "" {
		env.Logger.Debug("using keyring password", "profile", env.Config.Profile)
		return password, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		env.Logger.Debug("keyring unavailable", "error", err)
	}

	if env.Prompt == nil {
		return "", core.ErrPasswordRequired
	}
	raw, err := env.Prompt(confirm)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(raw)
	return string(raw), nil
}

// ReadMessage returns msg, or reads the message from stdin when msg is
// empty: one line from a terminal, everything otherwise.
func (env *Env) ReadMessage(msg string) (string, error) {
	if msg != "" {
		return msg, nil
	}

	var text string
	if env.Prompt != nil {
		fmt.Fprint(os.Stderr, "Message: ")
		line, err := bufio.NewReader(env.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read message: %w", err)
		}
		text = line
	} else {
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty message")
	}
	return text, nil
}

// OpenStore returns the remote store when a server URL is configured and
// the local bbolt store otherwise. The returned func releases it.
func (env *Env) OpenStore() (core.MessageStore, func() error, error) {
	if url := env.Config.ServerURL; url != "" {
		client, err := relay.New(url,
			relay.WithLogger(env.Logger),
			relay.WithRetry(relay.DefaultRetryConfig()),
		)
		if err != nil {
			return nil, nil, err
		}
		env.Logger.Debug("using remote store", "url", client.BaseURL())
		return client, func() error { return nil }, nil
	}

	store, err := storage.Open(env.Config.StorePath, env.Config.TTL)
	if err != nil {
		return nil, nil, err
	}
	return core.LocalStore{Storage: store}, store.Close, nil
}

// WriteOutput writes data to path inside the working directory.
func (env *Env) WriteOutput(path string, data []byte, force bool) (string, error) {
	ws, err := workspace.Open(".")
	if err != nil {
		return "", err
	}
	defer ws.Close()

	return ws.WriteFile(path, data, force)
}

// Describe turns err into a message and an optional hint for the user.
func Describe(err error) (string, string) {
	switch {
	case errors.Is(err, core.ErrPasswordRequired):
		return "password required",
			fmt.Sprintf("Set %s or run 'varicrypt keyring save'", config.EnvPassword)
	case errors.Is(err, workspace.ErrExists):
		return err.Error(), "Use --force to overwrite"
	case relay.IsUnavailable(err):
		return fmt.Sprintf("message server unavailable: %s", err),
			fmt.Sprintf("Check %s or try again later", config.EnvServerURL)
	}

	switch core.Kind(err) {
	case core.KindIntegrityFailure:
		return "wrong key or tampered message", ""
	case core.KindUnknownSymbol:
		return "message contains symbols outside the key's alphabet",
			"Check the key and that the whole message was copied"
	case core.KindMalformedEnvelope:
		return "message is truncated or corrupted", ""
	case core.KindCapacityExceeded:
		return "carrier is too small for this message",
			"Use a larger carrier, a longer recording, or drop --fixed-size"
	case core.KindTerminatorNotFound:
		return "no hidden message found", ""
	case core.KindCarrierAcquisitionFailed:
		return fmt.Sprintf("could not obtain a carrier image: %s", err),
			"Pass --carrier to use a local image"
	case core.KindMessageTooLong:
		return err.Error(),
			fmt.Sprintf("Shorten the message or raise %s", config.EnvMaxWords)
	case core.KindNotFound:
		return "message not found (already received or expired)", ""
	case core.KindUnsupportedAudio:
		return fmt.Sprintf("unsupported audio: %s", err),
			fmt.Sprintf("Install ffmpeg or set %s", config.EnvFFmpeg)
	}
	return err.Error(), ""
}

// HandleError prints err for the user and exits
func HandleError(err error) {
	msg, hint := Describe(err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
