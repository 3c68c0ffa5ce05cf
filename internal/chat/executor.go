package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/termchat/internal/conversation"
	"github.com/raphaelgruber/termchat/internal/metrics"
)

// completionResponse mirrors the only part of the response body that is read.
// Keys are matched exactly; encoding/json alone would also accept "Choices".
type completionResponse struct {
	Choices []completionChoice
	Usage   json.RawMessage
}

type completionChoice struct {
	Message completionMessage
}

type completionMessage struct {
	Content json.RawMessage
}

func (r *completionResponse) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	if raw, ok := fields["choices"]; ok {
		if err := json.Unmarshal(raw, &r.Choices); err != nil {
			return err
		}
	}
	r.Usage = fields["usage"]
	return nil
}

func (c *completionChoice) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	if raw, ok := fields["message"]; ok {
		return json.Unmarshal(raw, &c.Message)
	}
	return nil
}

func (m *completionMessage) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	m.Content = fields["content"]
	return nil
}

// objectFields splits a JSON object into its raw members, keyed case-sensitively.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// usage is the optional token accounting some endpoints return.
type usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Executor runs one turn of a conversation against a Client.
type Executor struct {
	client    *Client
	out       io.Writer
	render    func(reply string) string
	logger    *slog.Logger
	collector *metrics.Collector
}

// Option configures an Executor.
type Option func(*Executor)

// WithOutput sets where replies are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		if w != nil {
			e.out = w
		}
	}
}

// WithReplyRenderer sets how a reply is formatted before printing.
func WithReplyRenderer(fn func(reply string) string) Option {
	return func(e *Executor) {
		if fn != nil {
			e.render = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(e *Executor) {
		if c != nil {
			e.collector = c
		}
	}
}

// DefaultRenderReply prints a reply on its own labelled line.
func DefaultRenderReply(reply string) string {
	return "\n-->GPT: " + reply + "\n"
}

// NewExecutor creates an Executor for client.
func NewExecutor(client *Client, opts ...Option) *Executor {
	e := &Executor{
		client:    client,
		out:       os.Stdout,
		render:    DefaultRenderReply,
		logger:    slog.Default(),
		collector: metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collector returns the collector the executor records into.
func (e *Executor) Collector() *metrics.Collector {
	return e.collector
}

// ExecuteTurn appends userText to conv, sends the whole history and, on
// success, prints the reply and appends it as an assistant message.
//
// The user message stays in conv even when the exchange fails. Every
// failure is returned as an *ExchangeError.
func (e *Executor) ExecuteTurn(ctx context.Context, conv *conversation.Conversation, userText string) error {
	conv.Append(conversation.RoleUser, userText)

	logger := e.logger.With("turn", uuid.New().String()[:8], "model", conv.Model())
	logger.Debug("exchange started", "messages", conv.Len(), "input_len", len(userText))

	start := time.Now()
	reply, tokens, err := e.exchange(ctx, conv, logger)
	duration := time.Since(start)

	if err != nil {
		var exErr *ExchangeError
		kind := "unknown"
		if errors.As(err, &exErr) {
			kind = exErr.Kind.String()
		}
		e.collector.RecordFailure(metrics.OpChatCompletion, kind, duration)
		logger.Warn("exchange failed", "kind", kind, "duration_ms", duration.Milliseconds(), "error", err)
		return err
	}

	if tokens != nil {
		e.collector.RecordLLMUsage(metrics.OpChatCompletion, duration, tokens.PromptTokens, tokens.CompletionTokens)
	} else {
		e.collector.RecordTiming(metrics.OpChatCompletion, duration)
	}
	logger.Debug("exchange complete", "duration_ms", duration.Milliseconds(), "reply_len", len(reply))

	fmt.Fprint(e.out, e.render(reply))
	conv.Append(conversation.RoleAssistant, reply)
	return nil
}

// exchange performs the HTTP round trip and extracts the reply text.
func (e *Executor) exchange(ctx context.Context, conv *conversation.Conversation, logger *slog.Logger) (string, *usage, error) {
	body, err := conv.Serialize()
	if err != nil {
		return "", nil, serializationError(err)
	}

	resp, err := e.client.Post(ctx, body)
	if err != nil {
		return "", nil, requestError(err)
	}
	defer resp.Body.Close()

	logger.Debug("response received", "status", resp.StatusCode, "request_bytes", len(body))

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", nil, responseError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, readResponseError(err)
	}

	return parseCompletion(data)
}

// parseCompletion extracts choices[0].message.content from a response body.
// Syntax errors are ParseJSON failures; valid JSON of the wrong shape is
// NoMessageFound.
func parseCompletion(data []byte) (string, *usage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, parseJSONError(err)
	}

	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", nil, noMessageFoundError()
	}
	if len(resp.Choices) == 0 {
		return "", nil, noMessageFoundError()
	}

	content := resp.Choices[0].Message.Content
	if len(content) == 0 || content[0] != '"' {
		return "", nil, noMessageFoundError()
	}
	var reply string
	if err := json.Unmarshal(content, &reply); err != nil {
		return "", nil, noMessageFoundError()
	}

	return reply, parseUsage(resp.Usage), nil
}

// parseUsage decodes token counts, ignoring absent or malformed usage.
func parseUsage(raw json.RawMessage) *usage {
	if len(raw) == 0 {
		return nil
	}
	var u usage
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	if u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil
	}
	return &u
}
