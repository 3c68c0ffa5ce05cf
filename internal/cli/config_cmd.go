package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the configuration a chat session would use, after applying
environment variables, the config file, and flags. The API key is masked.

Examples:
  termchat config
  termchat config --model gpt-4o`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	fileState := "not found"
	if cfg.ConfigFile == "" {
		fileState = "none"
	} else if _, err := os.Stat(cfg.ConfigFile); err == nil {
		fileState = "loaded"
	} else if !errors.Is(err, os.ErrNotExist) {
		fileState = "unreadable"
	}

	timeout := "transport default"
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.String()
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "(stderr only)"
	}

	fmt.Fprintf(w, "Config file:   %s (%s)\n", cfg.ConfigFile, fileState)
	fmt.Fprintf(w, "API key:       %s\n", cfg.MaskedAPIKey())
	fmt.Fprintf(w, "Endpoint:      %s\n", cfg.Endpoint)
	fmt.Fprintf(w, "Model:         %s\n", cfg.Model)
	fmt.Fprintf(w, "System prompt: %s\n", cfg.SystemPrompt)
	fmt.Fprintf(w, "Timeout:       %s\n", timeout)
	fmt.Fprintf(w, "Log file:      %s\n", logFile)
	fmt.Fprintf(w, "Log level:     %s\n", cfg.LogLevel)
	return nil
}
