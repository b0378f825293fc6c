package main

import (
	"context"
	"fmt"
	"os"

	"github.com/memobread/memobread/cmd"
	"github.com/memobread/memobread/internal/buildinfo"
	"github.com/memobread/memobread/internal/conf"
)

// buildDate and version are set at build time with -ldflags
var (
	buildDate string
	version   string
)

func main() {
	info := buildinfo.NewContext(version, buildDate)

	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings)
	rootCmd.Version = info.String()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
