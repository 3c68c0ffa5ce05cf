package cli

import (
	"fmt"

	"github.com/raphaelgruber/termchat/internal/chat"
	"github.com/raphaelgruber/termchat/internal/config"
	"github.com/raphaelgruber/termchat/internal/conversation"
	"github.com/raphaelgruber/termchat/internal/metrics"
	"github.com/spf13/cobra"
)

func runChat(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	logger.Debug("termchat starting",
		"version", Version,
		"model", cfg.Model,
		"config_file", cfg.ConfigFile,
		"timeout", cfg.Timeout,
	)

	client, err := chat.NewClient(cfg.Endpoint, cfg.APIKey, chat.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	logger.Debug("client ready", "endpoint", client.Endpoint())

	out := cmd.OutOrStdout()
	paint := newPainter(out)
	collector := metrics.NewCollector()

	executor := chat.NewExecutor(client,
		chat.WithOutput(out),
		chat.WithReplyRenderer(paint.renderReply),
		chat.WithLogger(logger),
		chat.WithCollector(collector),
	)

	s := newSession(executor, conversation.New(cfg.Model, cfg.SystemPrompt), cmd.InOrStdin(), out, cmd.ErrOrStderr())
	s.paint = paint
	s.collector = collector
	s.logger = logger

	s.run(cmd.Context())

	logger.Debug("session ended", "messages", s.conv.Len())
	return nil
}
