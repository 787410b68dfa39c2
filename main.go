package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/illarion/varicrypt/cmd"
	"github.com/illarion/varicrypt/internal/config"
	"github.com/illarion/varicrypt/internal/core"
)

type cli struct {
	Verbose bool   `short:"v" help:"Log pipeline details to stderr."`
	EnvFile string `name:"env-file" default:".env" help:"Read settings from this file if it exists."`

	Encode     encodeCmd     `cmd:"" help:"Encrypt a message into text, an image or audio."`
	Decode     decodeCmd     `cmd:"" help:"Recover a message from text, an image or audio."`
	Verify     verifyCmd     `cmd:"" help:"Decode a file and compare it with the expected message."`
	Send       sendCmd       `cmd:"" help:"Encrypt a message and store it for one-time pickup."`
	Receive    receiveCmd    `cmd:"" help:"Fetch and decrypt a stored message."`
	Serve      serveCmd      `cmd:"" help:"Serve the local message store over HTTP."`
	Compact    compactCmd    `cmd:"" help:"Purge expired messages and compact the local store."`
	Keyring    keyringCmd    `cmd:"" help:"Manage the password in the OS keyring."`
	Completion completionCmd `cmd:"" help:"Generate shell completions."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli cli
	kctx := kong.Parse(&cli,
		kong.Name("varicrypt"),
		kong.Description("Encrypt short messages into symbol text, images and audio."),
		kong.UsageOnError(),
		kong.Vars{"default_addr": cmd.DefaultAddr},
	)

	cfg, err := config.Load(cli.EnvFile)
	if err != nil {
		cmd.HandleError(err)
	}

	env := cmd.NewEnv(cfg, newLogger(cli.Verbose))
	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(env); err != nil {
		cmd.HandleError(err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type formatFlag struct {
	Format string `enum:"auto,symbols,hex" default:"auto" help:"Text format: auto, symbols or hex."`
}

func (f formatFlag) format() core.Format {
	format, _ := core.ParseFormat(f.Format)
	return format
}

type encodeCmd struct {
	Text  encodeTextCmd  `cmd:"" help:"Print the message as symbol or hex text."`
	Image encodeImageCmd `cmd:"" help:"Hide the message in a PNG image."`
	Audio encodeAudioCmd `cmd:"" help:"Hide the message in a WAV recording."`
}

type encodeTextCmd struct {
	Message string     `short:"m" help:"The message. Read from stdin if empty."`
	Fmt     formatFlag `embed:""`
}

func (c *encodeTextCmd) Run(env *cmd.Env) error {
	return cmd.EncodeText(env, c.Message, c.Fmt.format())
}

type encodeImageCmd struct {
	Message   string `short:"m" help:"The message. Read from stdin if empty."`
	Carrier   string `type:"existingfile" help:"Cover image. A fresh one is fetched if empty."`
	FixedSize bool   `name:"fixed-size" help:"Fail instead of enlarging a small carrier."`
	Output    string `short:"o" required:"" help:"The PNG file to write."`
	Force     bool   `help:"Overwrite the output file."`
}

func (c *encodeImageCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.EncodeImage(ctx, env, c.Message, cmd.ImageOptions{
		Carrier: c.Carrier,
		Output:  c.Output,
		Fixed:   c.FixedSize,
		Force:   c.Force,
	})
}

type encodeAudioCmd struct {
	Message string `short:"m" help:"The message. Read from stdin if empty."`
	Carrier string `type:"existingfile" required:"" help:"Cover recording in any format ffmpeg reads."`
	Output  string `short:"o" required:"" help:"The WAV file to write."`
	Force   bool   `help:"Overwrite the output file."`
}

func (c *encodeAudioCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.EncodeAudio(ctx, env, c.Message, c.Carrier, c.Output, c.Force)
}

type decodeCmd struct {
	Text  decodeTextCmd  `cmd:"" help:"Decrypt symbol or hex text."`
	Image decodeImageCmd `cmd:"" help:"Recover a message hidden in an image."`
	Audio decodeAudioCmd `cmd:"" help:"Recover a message hidden in a recording."`
}

type decodeTextCmd struct {
	Text string     `arg:"" optional:"" help:"The message text. Read from stdin if empty."`
	Fmt  formatFlag `embed:""`
}

func (c *decodeTextCmd) Run(env *cmd.Env) error {
	return cmd.DecodeText(env, c.Text, c.Fmt.format())
}

type decodeImageCmd struct {
	File string `arg:"" type:"existingfile" help:"The image holding the message."`
}

func (c *decodeImageCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.DecodeFile(ctx, env, cmd.MediumImage, c.File)
}

type decodeAudioCmd struct {
	File string `arg:"" type:"existingfile" help:"The recording holding the message."`
}

func (c *decodeAudioCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.DecodeFile(ctx, env, cmd.MediumAudio, c.File)
}

type verifyCmd struct {
	Medium string `arg:"" enum:"text,image,audio" help:"What the file holds: text, image or audio."`
	File   string `arg:"" type:"existingfile" help:"The file holding the message."`
	Expect string `type:"existingfile" required:"" help:"File with the expected message."`
}

func (c *verifyCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.Verify(ctx, env, c.Medium, c.File, c.Expect)
}

type sendCmd struct {
	Message string     `short:"m" help:"The message. Read from stdin if empty."`
	Fmt     formatFlag `embed:""`
}

func (c *sendCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.Send(ctx, env, c.Message, c.Fmt.format())
}

type receiveCmd struct {
	ID  string     `arg:"" help:"The message id printed by send."`
	Fmt formatFlag `embed:""`
}

func (c *receiveCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.Receive(ctx, env, c.ID, c.Fmt.format())
}

type serveCmd struct {
	Addr string `default:"${default_addr}" help:"Listen address."`
}

func (c *serveCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.Serve(ctx, env, c.Addr)
}

type compactCmd struct{}

func (c *compactCmd) Run(ctx context.Context, env *cmd.Env) error {
	return cmd.Compact(ctx, env)
}

type keyringCmd struct {
	Save   keyringSaveCmd   `cmd:"" help:"Save a password for the profile."`
	Delete keyringDeleteCmd `cmd:"" help:"Remove the profile's password."`
	Status keyringStatusCmd `cmd:"" help:"Show whether a password is stored."`
}

type keyringSaveCmd struct{}

func (c *keyringSaveCmd) Run(env *cmd.Env) error {
	return cmd.KeyringSave(env)
}

type keyringDeleteCmd struct{}

func (c *keyringDeleteCmd) Run(env *cmd.Env) error {
	return cmd.KeyringDelete(env)
}

type keyringStatusCmd struct{}

func (c *keyringStatusCmd) Run(env *cmd.Env) error {
	return cmd.KeyringStatus(env)
}

type completionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"bash, zsh or fish."`
}

func (c *completionCmd) Run(env *cmd.Env) error {
	return cmd.Completion(env.Stdout, c.Shell)
}
