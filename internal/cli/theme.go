package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme holds the color scheme for the chat session.
type Theme struct {
	Prompt lipgloss.Color
	Reply  lipgloss.Color
	Error  lipgloss.Color
	Hint   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Prompt: lipgloss.Color("#5FAFD7"), // light blue
	Reply:  lipgloss.Color("#00D787"), // green
	Error:  lipgloss.Color("#FF005F"), // red
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) promptStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Prompt).Bold(true)
}

func (t Theme) replyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Reply).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// painter applies the theme only when writing to a terminal, so piped
// output stays plain text.
type painter struct {
	theme   Theme
	enabled bool
}

func newPainter(w io.Writer) painter {
	return painter{theme: defaultTheme, enabled: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p painter) render(style lipgloss.Style, s string) string {
	if !p.enabled {
		return s
	}
	return style.Render(s)
}

func (p painter) prompt(s string) string { return p.render(p.theme.promptStyle(), s) }
func (p painter) failure(s string) string { return p.render(p.theme.errorStyle(), s) }
func (p painter) hint(s string) string { return p.render(p.theme.hintStyle(), s) }

// renderReply formats an assistant reply for the chat executor.
func (p painter) renderReply(reply string) string {
	return "\n" + p.render(p.theme.replyStyle(), "-->GPT:") + " " + reply + "\n"
}
