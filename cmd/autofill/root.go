package main

import (
	"fmt"
	"os"
	"time"

	"github.com/koizuka/autofill"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	cfg        autofill.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autofill",
	Short: "Hand prompts to AI chat web apps and send them",
	Long: `Stores a prompt as a pending upload, opens the chosen AI chat web app in
Chrome, waits for its composer to appear, fills it in and presses send.

Quick Start:
  autofill ask -p gemini -f article.md       # summarize a file with Gemini
  autofill watch -p aistudio                 # keep a tab that picks up uploads
  autofill probe snapshots/claude-17.html    # replay the resolver on a saved page`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)
		var err error
		cfg, err = autofill.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %v: %w", configPath, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "autofill.yaml", "Path to the YAML config file")
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// zerologLogger backs autofill.Logger with zerolog, at debug level unless
// raised with at.
type zerologLogger struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func newLogger(component string) zerologLogger {
	return zerologLogger{
		logger: log.With().Str("component", component).Logger(),
		level:  zerolog.DebugLevel,
	}
}

func (l zerologLogger) at(level zerolog.Level) zerologLogger {
	l.level = level
	return l
}

func (l zerologLogger) Printf(format string, a ...interface{}) {
	l.logger.WithLevel(l.level).Msgf(format, a...)
}

func providerProfile(name string) (autofill.ProviderProfile, error) {
	if name == "" {
		name = cfg.DefaultProvider
	}
	p, err := autofill.ParseProvider(name)
	if err != nil {
		return autofill.ProviderProfile{}, err
	}
	return cfg.ProfileFor(p)
}

func openStore() (*autofill.SQLiteStore, error) {
	store, err := autofill.OpenSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Store.PollInterval > 0 {
		store.PollInterval = cfg.Store.PollInterval
	}
	return store, nil
}
