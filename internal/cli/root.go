// Package cli implements the salt command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt"
	"github.com/liminalsalt/salt/logging"
)

var (
	dataDir string
	verbose bool
	version string = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salt",
	Short: "Personal AI chat with personas and long-term memory",
	Long: `salt is a personal chat front-end for OpenRouter (and Anthropic).

It keeps multiple conversation sessions on disk, lets you define personas
with their own system prompts and model overrides, and maintains an
LLM-curated long-term memory document that gives every conversation
background knowledge about you.

Quick Start:
  salt setup --api-key sk-or-...   # Configure once
  salt chat                        # Start talking
  salt sessions list               # Browse past conversations
  salt memory update               # Refresh long-term memory`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.liminal-salt)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// newApp builds the façade shared by every subcommand.
func newApp() (*salt.App, error) {
	var logger logging.Logger = logging.NoOpLogger{}
	if verbose {
		logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.LogLevelDebug,
			Format:    "text",
			Output:    os.Stderr,
			Component: "cli",
		})
	}
	return salt.New(dataDir, func(o *salt.Options) {
		o.Logger = logger
	})
}
