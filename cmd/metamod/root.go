package main

import (
	"context"
	"io"
	"time"

	"metamod/internal/config"
	"metamod/internal/errors"
	"metamod/internal/exiftool"
	"metamod/internal/gui"
	"metamod/internal/log"
	"metamod/internal/session"
	"metamod/internal/tui"

	"github.com/spf13/cobra"
)

// frontEnd starts an interactive interface on path
type frontEnd func(cfg *config.Config, tool session.Tool, path string) error

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfgFile string
	debug   bool
	timeout time.Duration

	cfg   *config.Config
	tool  *exiftool.Tool
	limit time.Duration

	newTool      func(cfg *config.Config) *exiftool.Tool
	guiAvailable func() bool
	runGUI       frontEnd
	runTUI       frontEnd
}

func newApp() *app {
	return &app{
		newTool: func(cfg *config.Config) *exiftool.Tool {
			return exiftool.New(
				exiftool.FindExecutable(cfg.ExifTool.Path),
				exiftool.WithKeepBackup(cfg.ExifTool.KeepBackup),
			)
		},
		guiAvailable: gui.IsGUIAvailable,
		runGUI:       gui.Run,
		runTUI:       tui.Run,
	}
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "metamod [file]",
		Short: "View and edit the metadata embedded in a file",
		Long: `metamod lists, adds, changes, renames and removes the metadata tags of
a file using exiftool. Started with no subcommand it opens the desktop window,
or the terminal interface in builds without one.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.guiAvailable() {
				log.Debug("Built without the desktop window, starting the terminal interface")
				return a.runTUI(a.cfg, a.tool, firstArg(args))
			}
			return a.runGUI(a.cfg, a.tool, firstArg(args))
		},
	}

	helpTemplate := drawLogo() + "\n\n" + rootCmd.HelpTemplate()
	rootCmd.SetHelpTemplate(helpTemplate)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/metamod/config.yaml)")
	flags.BoolVar(&a.debug, "debug", false, "print debug logs to stderr")
	flags.DurationVar(&a.timeout, "timeout", 0, "give up on exiftool after this long (0 uses the config value)")

	rootCmd.AddCommand(
		a.tuiCmd(),
		a.showCmd(),
		a.setCmd(),
		a.deleteCmd(),
		a.renameCmd(),
		a.clearCmd(),
		a.exportCmd(),
		a.versionCmd(),
	)

	return rootCmd
}

// setup loads the configuration and builds the adapter
func (a *app) setup(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return errors.Wrap(err, "locating the config file")
		}
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logging.Debug = true
	}
	a.cfg = cfg

	configureLogging(cfg, cmd.ErrOrStderr())

	a.limit = time.Duration(cfg.ExifTool.TimeoutSeconds) * time.Second
	if cmd.Flags().Changed("timeout") {
		a.limit = a.timeout
	}

	a.tool = a.newTool(cfg)
	log.LogWithFields(
		log.F("config", path),
		log.F("executable", a.tool.Executable()),
	).Debug("Configuration loaded")
	return nil
}

// configureLogging keeps the terminal clean unless debugging. A configured
// log file receives every line regardless.
func configureLogging(cfg *config.Config, stderr io.Writer) {
	opts := []log.Option{log.WithOutput(io.Discard)}
	if cfg.Logging.Debug {
		opts[0] = log.WithOutput(stderr)
	}
	if cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	if cfg.Logging.File != "" {
		opts = append(opts, log.WithFile(cfg.Logging.File))
	}
	log.Configure(opts...)
	log.SetDebug(cfg.Logging.Debug)
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.limit > 0 {
		return context.WithTimeout(ctx, a.limit)
	}
	return context.WithCancel(ctx)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
