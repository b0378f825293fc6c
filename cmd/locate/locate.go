// Package locate runs the city resolver locally, without a server.
package locate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/location"
)

// Command creates the locate command.
func Command(settings *conf.Settings) *cobra.Command {
	var latitude, longitude float64

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve coordinates to a city",
		Long:  "Resolve coordinates to the nearest reference city using the configured threshold.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := location.NewTableResolver(location.WithThreshold(settings.Location.Threshold))

			name, err := resolver.ResolveCity(cmd.Context(), latitude, longitude)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			nearest, distance, ok := resolver.Nearest(latitude, longitude)
			if !ok {
				_, err = fmt.Fprintln(out, name)
				return err
			}
			_, err = fmt.Fprintf(out, "%s (nearest: %s, %.1f km)\n", name, nearest.Name, distance)
			return err
		},
	}

	cmd.Flags().Float64Var(&latitude, "latitude", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&longitude, "longitude", 0, "Longitude in decimal degrees")
	_ = cmd.MarkFlagRequired("latitude")
	_ = cmd.MarkFlagRequired("longitude")

	return cmd
}
