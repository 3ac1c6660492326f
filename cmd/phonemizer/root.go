package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/super-leedc/phonemizer/internal/config"
	"github.com/super-leedc/phonemizer/internal/server"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := newPhonemizeCmd()
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(config.LoadOptions{
			Cmd:        cmd,
			ConfigFile: cfgFile,
			Defaults:   defaults,
		})
		if err != nil {
			return err
		}
		activeCfg = loaded
		setupLogger(loaded.LogLevel)
		return nil
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newBenchCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Festival.Binary == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
