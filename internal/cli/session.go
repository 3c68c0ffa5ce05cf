package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/termchat/internal/conversation"
	"github.com/raphaelgruber/termchat/internal/metrics"
)

const (
	banner      = "Let's go. (Quit by typing exit.)"
	promptLabel = "-->You:"
	exitCommand = "exit"
)

// Turner runs one exchange for a line of user input.
type Turner interface {
	ExecuteTurn(ctx context.Context, conv *conversation.Conversation, userText string) error
}

// session is the interactive read/dispatch loop. It ends on "exit" or when
// input can no longer be read; exchange failures are reported and skipped.
type session struct {
	turner    Turner
	conv      *conversation.Conversation
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	paint     painter
	errPaint  painter
	collector *metrics.Collector
	logger    *slog.Logger
}

func newSession(turner Turner, conv *conversation.Conversation, in io.Reader, out, errOut io.Writer) *session {
	return &session{
		turner:   turner,
		conv:     conv,
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
		paint:    newPainter(out),
		errPaint: newPainter(errOut),
		logger:   slog.Default(),
	}
}

// run blocks until the session terminates.
func (s *session) run(ctx context.Context) {
	fmt.Fprintln(s.out, s.paint.hint(banner))

	for {
		line, ok := s.readLine()
		if !ok {
			break
		}
		if strings.EqualFold(line, exitCommand) {
			s.logger.Debug("exit requested")
			break
		}

		if err := s.turner.ExecuteTurn(ctx, s.conv, line); err != nil {
			fmt.Fprintln(s.errOut, s.errPaint.failure(err.Error()))
		}
	}

	s.printSummary()
}

// readLine prompts and returns the next trimmed line. ok is false once the
// input is exhausted or broken.
func (s *session) readLine() (line string, ok bool) {
	fmt.Fprint(s.out, "\n"+s.paint.prompt(promptLabel)+" ")

	raw, err := s.in.ReadString('\n')
	if err != nil {
		// A final line without a trailing newline still counts.
		if errors.Is(err, io.EOF) && raw != "" {
			return strings.TrimSpace(raw), true
		}
		if !errors.Is(err, io.EOF) {
			fmt.Fprintln(s.errOut, s.errPaint.failure(fmt.Sprintf("Error reading user input: %v", err)))
		}
		s.logger.Debug("input closed", "error", err)
		return "", false
	}
	return strings.TrimSpace(raw), true
}

// printSummary writes a one-line recap if any exchange was attempted.
func (s *session) printSummary() {
	if s.collector == nil {
		return
	}
	stats := s.collector.Snapshot()
	snap := stats.ChatCompletion
	if snap == nil {
		return
	}

	uptime := time.Duration(stats.UptimeSeconds * float64(time.Second)).Round(time.Second)
	failed := fmt.Sprintf("%d failed", snap.Failures)
	if len(snap.FailuresByKind) > 0 {
		kinds := make([]string, 0, len(snap.FailuresByKind))
		for _, kc := range snap.FailuresByKind {
			kinds = append(kinds, fmt.Sprintf("%s %d", kc.Kind, kc.Count))
		}
		failed += " (" + strings.Join(kinds, ", ") + ")"
	}

	summary := fmt.Sprintf("Session: %d turns, %s in %s; latency avg %.0fms, min %dms, max %dms",
		snap.Count, failed, uptime, snap.AvgTimeMs, snap.MinTimeMs, snap.MaxTimeMs)
	if snap.TotalInputTokens != nil && snap.TotalOutputTokens != nil {
		summary += fmt.Sprintf("; tokens in %d / out %d, avg %.0f / %.0f per reply",
			*snap.TotalInputTokens, *snap.TotalOutputTokens, *snap.AvgInputTokens, *snap.AvgOutputTokens)
	}
	fmt.Fprintln(s.out, "\n"+s.paint.hint(summary))
}
