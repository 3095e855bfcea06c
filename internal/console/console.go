package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Line tags.
const (
	tagInfo    = "TPI·Info => "
	tagCommand = "  ·Command => "
	tagFail    = "TPI·Fail => "
	tagSuccess = "TPI·Success: "
	tagTip     = "·Tip: "
)

// HelpEntry is one row of the help screen.
type HelpEntry struct {
	// Usage is the command with its arguments, e.g. "install <package>".
	Usage string
	// Description explains what the command does.
	Description string
}

// Printer writes tagged status lines to an output stream.
// It is safe for concurrent use.
type Printer struct {
	out io.Writer
	mu  sync.Mutex

	purple lipgloss.Style
	green  lipgloss.Style
	red    lipgloss.Style
}

// New creates a printer writing to out. A nil out means stdout.
func New(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}

	renderer := lipgloss.NewRenderer(out)

	return &Printer{
		out:    out,
		purple: renderer.NewStyle().Foreground(lipgloss.Color("5")),
		green:  renderer.NewStyle().Foreground(lipgloss.Color("2")),
		red:    renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Writer returns the destination of the printer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Info prints an informational line.
func (p *Printer) Info(message string) {
	p.line(p.purple.Render(tagInfo) + message)
}

// Infof prints a formatted informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.Info(fmt.Sprintf(format, args...))
}

// Command prints a command that is about to run, or its output.
func (p *Printer) Command(message string) {
	p.line(p.purple.Render(tagCommand) + strings.TrimRight(message, "\r\n"))
}

// Fail prints an error line.
func (p *Printer) Fail(message string) {
	p.line(p.red.Render(tagFail) + message)
}

// Success prints a success line.
func (p *Printer) Success(message string) {
	p.line(p.green.Render(tagSuccess) + message)
}

// Successf prints a formatted success line.
func (p *Printer) Successf(format string, args ...any) {
	p.Success(fmt.Sprintf(format, args...))
}

// Tip prints a hint for the user.
func (p *Printer) Tip(message string) {
	p.line(p.purple.Render(tagTip) + message)
}

// Usage prints the one-line usage synopsis.
func (p *Printer) Usage() {
	p.line(p.green.Render("Usage: ") + p.purple.Render("[command] [...args]"))
}

// Help prints the command table.
func (p *Printer) Help(entries []HelpEntry) {
	var b strings.Builder

	b.WriteString(p.green.Render("Commands:"))
	b.WriteString("\n")

	for _, e := range entries {
		b.WriteString("  ")
		b.WriteString(p.purple.Render(fmt.Sprintf("%-20s", e.Usage)))
		b.WriteString("  ")
		b.WriteString(p.green.Render(e.Description))
		b.WriteString("\n")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = io.WriteString(p.out, b.String())
}

// Table prints rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.purple).
		Headers(headers...).
		Rows(rows...)

	p.line(t.Render())
}

// HighlightTo prints message to w in the accent color, matching the signature
// expected by version.AttachCobraVersionCommand.
func (p *Printer) HighlightTo(w io.Writer, message string) {
	_, _ = fmt.Fprintln(w, p.purple.Render(message))
}

func (p *Printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintln(p.out, s)
}
