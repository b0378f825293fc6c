// Package submit posts an audio file to a running MemoBread server.
package submit

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memobread/memobread/internal/client"
	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/errors"
)

// Command creates the submit command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		server    string
		latitude  float64
		longitude float64
		city      string
		language  string
		timestamp string
	)

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit an audio file as a new recording",
		Long:  "Read an audio file, encode it as base64 and post it to the MemoBread API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("latitude") != flags.Changed("longitude") {
				return errors.ValidationError("--latitude and --longitude must be given together")
			}

			req, err := newRequest(args[0])
			if err != nil {
				return err
			}
			if flags.Changed("latitude") {
				req.Latitude = &latitude
				req.Longitude = &longitude
			}
			if flags.Changed("city") {
				req.City = &city
			}
			req.Language = language
			if timestamp != "" {
				ts, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					return errors.New(err).
						Component("submit").
						Category(errors.CategoryValidation).
						Context("timestamp", timestamp).
						Build()
				}
				req.Timestamp = &ts
			}

			if server == "" {
				server = client.BaseURLForListener(settings.WebServer.Host, settings.WebServer.Port)
			}
			c, err := client.New(server)
			if err != nil {
				return err
			}
			defer c.Close()

			rec, err := c.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			printRecording(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server base URL (default http://localhost:<webserver.port>)")
	cmd.Flags().Float64Var(&latitude, "latitude", 0, "Latitude where the memo was recorded")
	cmd.Flags().Float64Var(&longitude, "longitude", 0, "Longitude where the memo was recorded")
	cmd.Flags().StringVar(&city, "city", "", "City name, used only when no coordinates are given")
	cmd.Flags().StringVar(&language, "language", "", "BCP 47 language hint, e.g. zh-CN")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Capture time in RFC 3339 (default now)")

	return cmd
}

// newRequest reads path and encodes its content for the API.
func newRequest(path string) (*client.CreateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("submit").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if len(data) == 0 {
		return nil, errors.Newf("audio file %s is empty", path).
			Component("submit").
			Category(errors.CategoryValidation).
			Build()
	}
	return &client.CreateRequest{AudioData: base64.StdEncoding.EncodeToString(data)}, nil
}

func printRecording(w io.Writer, rec *client.Recording) {
	city := "-"
	if rec.City != nil {
		city = *rec.City
	}
	fmt.Fprintf(w, "id:        %s\n", rec.ID)
	fmt.Fprintf(w, "timestamp: %s\n", rec.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "city:      %s\n", city)
	fmt.Fprintf(w, "text:      %s\n", rec.Text)
}
