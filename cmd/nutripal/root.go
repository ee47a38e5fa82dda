// cmd/nutripal/root.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nutripal/internal/app"
	"nutripal/internal/config"
	"nutripal/internal/storage"
)

var version = "dev"

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.nutripal, /etc/nutripal)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, usersCmd, statsCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "nutripal",
	Short: "NutriPal is an AI nutrition coach that logs meals from chat",
	Long:  `NutriPal chats with users about food, estimates calories and macros for the meals they describe or photograph, and keeps a per-user meal log with daily progress towards their goals.`,
	Example: `nutripal serve --config config.yml
  nutripal users list
  nutripal stats --log-level debug`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nutripal version %s\n", version)
	},
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

// openApp loads the configured store for commands that work on state
// directly. replier may be nil when no chat turns will run.
func openApp(cfg *config.Config, replier app.Replier) (*app.App, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	a, err := app.New(store, replier, app.Config{
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
		SessionMaxAge: cfg.SessionMaxAgeDuration(),
		SpeechInput:   cfg.SpeechInput,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}
