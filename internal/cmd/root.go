// Package cmd wires hoist's cobra commands to the download and update
// packages.
package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/hoist/internal/config"
	"github.com/adamancini/hoist/internal/download"
	"github.com/adamancini/hoist/internal/history"
	"github.com/adamancini/hoist/internal/logging"
	"github.com/adamancini/hoist/internal/output"
	"github.com/adamancini/hoist/internal/transport"
	"github.com/adamancini/hoist/internal/update"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// globalFlags holds the persistent flags.
type globalFlags struct {
	outputFormat   string
	configPath     string
	dataDir        string
	verbose        bool
	quiet          bool
	selfUpdateTemp bool
}

// app is the state shared by every command, built once in PersistentPreRunE.
type app struct {
	build BuildInfo
	flags globalFlags

	// Replaced in tests.
	executable func() (string, error)

	cfg        *config.Config
	log        *log.Logger
	logCloser  io.Closer
	out        *output.Writer
	client     *transport.Client
	downloader *download.Downloader
	journal    *history.Journal
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	a := newApp(BuildInfo{Version: version, Commit: commit, Date: date})
	defer a.close()
	return newRootCmd(a).Execute()
}

func newApp(build BuildInfo) *app {
	return &app{build: build, executable: update.ResolveExecutable}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hoist",
		Short: "Download addons and keep hoist itself up to date",
		Long: `hoist downloads addon archives and release files over HTTP, checks
transfer integrity, and updates its own binary in place.

Updates are staged beside the running executable and applied on the next start.`,
		Version:      a.build.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.flags.outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	flags.StringVar(&a.flags.configPath, "config", "", "Path to config file")
	flags.StringVar(&a.flags.dataDir, "data-directory", "", "Directory for addons, logs and update history")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Quiet mode (errors only)")
	flags.BoolVar(&a.flags.selfUpdateTemp, update.FinalizeFlag, false, "Finish a staged self-update before starting")
	_ = flags.MarkHidden(update.FinalizeFlag)

	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newAddonCmd(a))
	rootCmd.AddCommand(newFetchCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

// setup loads the config, builds the logger and shared clients, and finishes
// a pending self-update. A failed finalize aborts startup.
func (a *app) setup(cmd *cobra.Command) error {
	format, err := output.ParseFormat(a.flags.outputFormat)
	if err != nil {
		return err
	}
	a.out = output.NewWriter(cmd.OutOrStdout(), format)

	cfg, err := config.Discover(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.dataDir != "" {
		cfg.SetDataDir(a.flags.dataDir)
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: a.flags.verbose,
		Quiet:   a.flags.quiet,
		Stderr:  cmd.ErrOrStderr(),
		File:    cfg.LogPath(),
	})
	if err != nil {
		return err
	}
	a.log, a.logCloser = logger, closer

	ua := cfg.UserAgent
	if ua == "" {
		ua = "hoist/" + a.build.Version
	}
	a.client = transport.NewClient(transport.WithUserAgent(ua), transport.WithLogger(logger))
	a.downloader = download.New(a.client, logger).WithRateLimit(cfg.RateLimit)
	a.journal = history.NewJournal(cfg.HistoryDir())

	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}

	return a.finalizeUpdate()
}

func (a *app) finalizeUpdate() error {
	exe, err := a.executable()
	if err != nil {
		if a.flags.selfUpdateTemp {
			return err
		}
		a.log.Debug("cannot locate executable, skipping pending update", "error", err)
		return nil
	}

	opts := update.FinalizeOptions{Journal: a.journal, Log: a.log}

	var done *update.Finalized
	if a.flags.selfUpdateTemp {
		done, err = update.Finalize(exe, opts)
	} else {
		done, err = update.FinalizePending(exe, opts)
	}
	if err != nil {
		a.log.Error("self-update failed", "error", err)
		return fmt.Errorf("self-update failed: %w", err)
	}

	if done != nil {
		if a.flags.selfUpdateTemp {
			a.log.Info("now running", "version", done.Tag)
		} else {
			a.log.Info("update applied, active from next start", "version", done.Tag)
		}
		if a.cfg.HistoryKeep > 0 {
			if _, err := a.journal.Prune(a.cfg.HistoryKeep); err != nil {
				a.log.Warn("failed to prune update history", "error", err)
			}
		}
	}
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// binaryName is the release asset this build updates from.
func (a *app) binaryName() string {
	if a.cfg.BinaryName != "" {
		return a.cfg.BinaryName
	}
	return update.Detect().BinaryName()
}

func (a *app) locator() *update.Locator {
	loc := update.NewLocator(a.client, a.cfg.ReleaseURL, a.log).WithTimeout(a.cfg.RequestTimeout)
	if token := update.TokenFromEnv(); token != "" {
		loc = loc.WithToken(token)
	}
	return loc
}
