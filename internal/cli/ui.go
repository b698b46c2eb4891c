package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// out receives all human-oriented CLI output. Machine output (dispatch
// responses, completion scripts) goes to the command's own writer instead.
var out io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")
	colorMuted  = lipgloss.Color("240")
	colorSubtle = lipgloss.Color("245")
	colorBright = lipgloss.Color("255")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorBad    = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
)

// Styles shared by the table, tree and browse views.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue     = lipgloss.NewStyle().Foreground(colorBright)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)

	styleLabel   = lipgloss.NewStyle().Foreground(colorSubtle).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
)

// marker is the glyph that leads a status line.
type marker struct {
	glyph string
	style lipgloss.Style
}

var (
	markSuccess = marker{"✓", lipgloss.NewStyle().Foreground(colorOK)}
	markError   = marker{"✗", lipgloss.NewStyle().Foreground(colorBad)}
	markWarning = marker{"!", lipgloss.NewStyle().Foreground(colorWarn)}
	markInfo    = marker{"›", lipgloss.NewStyle().Foreground(colorSubtle)}
	markSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

func statusLine(m marker, text string) {
	fmt.Fprintln(out, m.style.Render(m.glyph), text)
}

func printSuccess(format string, args ...any) {
	statusLine(markSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	statusLine(markError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusLine(markWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusLine(markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line under the last status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path the command wrote.
func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// stat is one count shown by printStats.
type stat struct {
	n     int
	label string
	warn  bool
}

// printStats prints non-zero counts on one line. Counts marked warn, such
// as failed or skipped nodes, stand out from the rest.
func printStats(counts ...stat) {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.n == 0 {
			continue
		}
		style := StyleDim
		if c.warn {
			style = StyleWarning
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", c.n, c.label)))
	}
	if len(parts) > 0 {
		fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
	}
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(out) }
