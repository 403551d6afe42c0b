package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/simonhull/mediameta"
	"github.com/simonhull/mediameta/internal/config"
	"github.com/simonhull/mediameta/internal/walker"
)

// app carries the state shared by every command once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "mediameta",
		Short: "Read metadata from media container files",
		Long: `mediameta walks the record structure of media files and prints the
metadata it finds, grouped into directories.

Supported containers include QuickTime, MP4 and its relatives, HEIF and
AVIF, Canon CR3, RIFF (WAV, AVI, WebP), AIFF, JPEG and TIFF.

Settings are read from mediameta.yaml in the current directory,
$HOME/.mediameta or /etc/mediameta, then from MEDIAMETA_* environment
variables, then from flags.`,
		Version:       mediameta.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./mediameta.yaml)")
	flags.BoolP("verbose", "v", false, "log every record visited to stderr")
	flags.Int("workers", 0, "files processed concurrently (default is the number of CPUs)")
	a.bind("verbose", flags.Lookup("verbose"))
	a.bind("workers", flags.Lookup("workers"))

	cmd.AddCommand(
		newExtractCmd(a),
		newSniffCmd(a),
		newTreeCmd(a),
	)
	return cmd
}

func (a *app) bind(key string, flag *pflag.Flag) {
	// Only fails for a nil flag.
	_ = a.v.BindPFlag(key, flag)
}

// load merges config file, environment and flags and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded",
		"file", a.v.ConfigFileUsed(),
		"max_depth", cfg.MaxDepth,
		"max_payload", cfg.MaxPayload,
		"workers", cfg.Workers,
		"strict", cfg.Strict)
	return nil
}

// options translates the loaded settings into extraction options.
func (a *app) options() []mediameta.Option {
	opts := []mediameta.Option{
		mediameta.WithMaxDepth(a.cfg.MaxDepth),
		mediameta.WithMaxPayload(a.cfg.MaxPayload),
		mediameta.WithWorkers(a.cfg.Workers),
		mediameta.WithLogger(a.logger),
	}
	if a.cfg.Strict {
		opts = append(opts, mediameta.WithStrictParsing())
	}
	return opts
}

func (a *app) walkerConfig() walker.Config {
	return walker.Config{
		MaxDepth:   a.cfg.MaxDepth,
		MaxPayload: a.cfg.MaxPayload,
		Logger:     a.logger,
	}
}
