package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memobread/memobread/cmd/config"
	"github.com/memobread/memobread/cmd/list"
	"github.com/memobread/memobread/cmd/locate"
	"github.com/memobread/memobread/cmd/serve"
	"github.com/memobread/memobread/cmd/submit"
	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled in
// by the persistent pre-run before any subcommand executes.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var (
		configFile string
		debug      bool
		central    *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "memobread",
		Short:         "MemoBread voice memo service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/memobread, /etc/memobread)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings),
		submit.Command(settings),
		list.Command(settings),
		locate.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		if debug {
			settings.Debug = true
			settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		}

		central, err = initialize(settings)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if central == nil {
			return nil
		}
		_ = central.Flush()
		return central.Close()
	}

	return rootCmd
}

// initialize sets up the process logger once configuration is known.
func initialize(settings *conf.Settings) (*logger.CentralLogger, error) {
	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if path := conf.ConfigFileUsed(); path != "" {
		central.Module("main").Debug("configuration loaded", logger.String("path", path))
	}
	return central, nil
}
