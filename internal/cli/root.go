// Package cli provides the command-line interface for termchat.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/termchat/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	flagModel    string
	flagSystem   string
	flagEndpoint string
	flagTimeout  time.Duration

	// Global config, resolved before any command runs
	cfg config.Config
)

// rootCmd starts an interactive chat session when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "termchat",
	Short: "Chat with a language model from your terminal",
	Long: `Termchat sends what you type to an OpenAI-compatible chat completion
endpoint and prints the reply. The whole conversation is resent on every
turn, so the model sees the full context. Type "exit" to quit.

The API key is read from TERMCHAT_API_KEY. Other settings come from
TERMCHAT_* variables, the YAML file at TERMCHAT_CONFIG
(default: <user config dir>/termchat/config.yaml), or flags.

Examples:
  termchat
  termchat --model gpt-4o-mini --system "Answer in one sentence."
  termchat --endpoint http://localhost:11434/v1/chat/completions --model llama3`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd)
		return nil
	},
	RunE: runChat,
}

// applyFlags overrides loaded config with flags the user set explicitly.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = flagModel
	}
	if flags.Changed("system") {
		cfg.SystemPrompt = flagSystem
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = flagEndpoint
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "model identifier sent with each request")
	rootCmd.PersistentFlags().StringVarP(&flagSystem, "system", "s", "", "system prompt that opens the conversation")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "chat completion URL")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (0 uses the transport default)")

	// Add subcommands
	rootCmd.AddCommand(configCmd)
}
