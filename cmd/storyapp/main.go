package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storyapp/storyapp/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storyapp",
		Short: "Server for the stories web application",
		Long: `storyapp serves a stories application to browsers.

Each browser tab connects over a WebSocket and is driven by the
server: hash routing, page transitions, authentication and the
offline story store all run here. Stories come from the Dicoding
story API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		initCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
