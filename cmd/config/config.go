// Package config prints the effective configuration or writes a default one.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memobread/memobread/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		initPath      string
		revealSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: "Print the effective configuration as YAML after defaults, config file and MEMOBREAD_* " +
			"environment variables are applied. Use --init to write a commented default config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if initPath != "" {
				if err := conf.WriteDefaultConfig(initPath); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "wrote default configuration to %s\n", initPath)
				return err
			}

			data, err := conf.DumpYAML(settings, revealSecrets)
			if err != nil {
				return err
			}
			if path := conf.ConfigFileUsed(); path != "" {
				fmt.Fprintf(out, "# loaded from %s\n", path)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&initPath, "init", "", "Write the default config file to this path and exit")
	cmd.Flags().BoolVar(&revealSecrets, "reveal-secrets", false, "Print passwords and DSNs instead of masking them")

	return cmd
}
