// Package list prints the recordings stored on a MemoBread server.
package list

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/memobread/memobread/internal/client"
	"github.com/memobread/memobread/internal/conf"
)

// maxTextWidth truncates transcripts in table output, in runes
const maxTextWidth = 30

// Command creates the list command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		server string
		asJSON bool
		byCity bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = client.BaseURLForListener(settings.WebServer.Host, settings.WebServer.Port)
			}
			c, err := client.New(server)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			if byCity {
				groups, err := c.Locations(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, groups)
				}
				return printLocations(out, groups)
			}

			recs, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, recs)
			}
			return printRecordings(out, recs)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server base URL (default http://localhost:<webserver.port>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw API response")
	cmd.Flags().BoolVar(&byCity, "by-city", false, "Group recordings by city")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printRecordings(w io.Writer, recs []client.Recording) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no recordings")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tCITY\tTEXT")
	for i := range recs {
		rec := &recs[i]
		city := "-"
		if rec.City != nil {
			city = *rec.City
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			rec.ID, rec.Timestamp.Format(time.DateTime), city, truncate(rec.Text, maxTextWidth))
	}
	return tw.Flush()
}

func printLocations(w io.Writer, groups []client.LocationGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "no recordings")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tCOUNT\tRECORDINGS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.City, strconv.Itoa(g.Count), strings.Join(g.RecordingIDs, ","))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
