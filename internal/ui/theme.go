// Package ui styles terminal output for the umlcalc CLI.
//
// Three themes are available: default, dark and light. Each maps the same
// style keys to lipgloss styles. Output falls back to plain text when the
// destination is not a terminal or plain output is requested.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Style keys.
const (
	KeyInfo      = "info"
	KeyWarning   = "warning"
	KeyDanger    = "danger"
	KeySuccess   = "success"
	KeyTitle     = "title"
	KeyHeading   = "heading"
	KeyKey       = "key"
	KeyValue     = "value"
	KeyRISOp     = "ris_op"
	KeyRISResult = "ris_result"
)

// ANSI 16-colour palette entries.
var (
	colorRed           = lipgloss.Color("1")
	colorGreen         = lipgloss.Color("2")
	colorYellow        = lipgloss.Color("3")
	colorBlue          = lipgloss.Color("4")
	colorMagenta       = lipgloss.Color("5")
	colorCyan          = lipgloss.Color("6")
	colorBrightGreen   = lipgloss.Color("10")
	colorBrightMagenta = lipgloss.Color("13")
	colorBrightCyan    = lipgloss.Color("14")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

// Theme is a named set of styles.
type Theme struct {
	Name   string
	styles map[string]lipgloss.Style
}

var themes = map[string]Theme{
	"default": {Name: "default", styles: map[string]lipgloss.Style{
		KeyInfo:      fg(colorBlue),
		KeyWarning:   fg(colorYellow),
		KeyDanger:    fg(colorRed).Bold(true),
		KeySuccess:   fg(colorGreen),
		KeyTitle:     fg(colorBlue).Bold(true),
		KeyHeading:   fg(colorCyan).Bold(true),
		KeyKey:       fg(colorMagenta),
		KeyValue:     fg(colorGreen),
		KeyRISOp:     fg(colorBrightGreen),
		KeyRISResult: fg(colorBrightCyan),
	}},
	"dark": {Name: "dark", styles: map[string]lipgloss.Style{
		KeyInfo:      fg(colorCyan),
		KeyWarning:   fg(colorYellow),
		KeyDanger:    fg(colorRed).Bold(true),
		KeySuccess:   fg(colorBrightGreen),
		KeyTitle:     fg(colorCyan).Bold(true),
		KeyHeading:   fg(colorBlue).Bold(true),
		KeyKey:       fg(colorBrightMagenta),
		KeyValue:     fg(colorBrightGreen),
		KeyRISOp:     fg(colorGreen),
		KeyRISResult: fg(colorCyan),
	}},
	"light": {Name: "light", styles: map[string]lipgloss.Style{
		KeyInfo:      fg(colorBlue),
		KeyWarning:   fg(colorYellow),
		KeyDanger:    fg(colorRed),
		KeySuccess:   fg(colorGreen),
		KeyTitle:     fg(colorBlue).Bold(true),
		KeyHeading:   fg(colorCyan),
		KeyKey:       fg(colorMagenta),
		KeyValue:     fg(colorGreen),
		KeyRISOp:     fg(colorGreen),
		KeyRISResult: fg(colorBlue),
	}},
}

// ThemeNames returns the available theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTheme returns the named theme.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(name)]
	return t, ok
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes styled lines to w.
type Printer struct {
	w     io.Writer
	theme Theme
	plain bool
	box   lipgloss.Style
}

// NewPrinter returns a printer using the named theme, falling back to
// "default" for unknown names. Styling is disabled when plain is set or w is
// not a terminal.
func NewPrinter(w io.Writer, theme string, plain bool) *Printer {
	t, ok := LookupTheme(theme)
	if !ok {
		t = themes["default"]
	}
	return &Printer{
		w:     w,
		theme: t,
		plain: plain || !IsTerminal(w),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Theme returns the active theme.
func (p *Printer) Theme() Theme { return p.theme }

// Plain reports whether styling is disabled.
func (p *Printer) Plain() bool { return p.plain }

// Style renders text with the style stored under key.
func (p *Printer) Style(key, text string) string {
	if p.plain {
		return text
	}
	s, ok := p.theme.styles[key]
	if !ok {
		return text
	}
	return s.Render(text)
}

// Println writes text styled with key.
func (p *Printer) Println(key, text string) {
	fmt.Fprintln(p.w, p.Style(key, text))
}

// KeyValue writes "key: value" with the key and value styles.
func (p *Printer) KeyValue(key, value, valueStyle string) {
	fmt.Fprintf(p.w, "%s %s\n", p.Style(KeyKey, key+":"), p.Style(valueStyle, value))
}

// Panel writes content in a rounded box, or as indented lines when plain.
func (p *Printer) Panel(title, content string) {
	if p.plain {
		if title != "" {
			fmt.Fprintf(p.w, "== %s ==\n", title)
		}
		for _, line := range strings.Split(content, "\n") {
			fmt.Fprintf(p.w, "  %s\n", line)
		}
		return
	}
	body := content
	if title != "" {
		body = p.Style(KeyTitle, title) + "\n" + content
	}
	fmt.Fprintln(p.w, p.box.BorderForeground(p.theme.styles[KeyTitle].GetForeground()).Render(body))
}

// Error writes err in the danger style.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s %s\n", p.Style(KeyDanger, "Error:"), err)
}
