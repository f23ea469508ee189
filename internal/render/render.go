package render

import (
	"strings"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// StyleNeuroVine is the house style: glamour's dark style in the
// assistant's emerald and slate palette.
const StyleNeuroVine = "neurovine"

// Palette colors shared with the chat panel
const (
	ColorAccent  = "#10B981"
	ColorBright  = "#34D399"
	ColorSurface = "#1E293B"
	ColorMuted   = "#64748B"
	ColorText    = "#CBD5E1"
	ColorWarning = "#F59E0B"
	ColorError   = "#F43F5E"
)

func stringPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

// NeuroVineStyle returns the glamour style config for StyleNeuroVine.
func NeuroVineStyle() ansi.StyleConfig {
	s := styles.DarkStyleConfig

	s.Document.Margin = uintPtr(0)
	s.Document.Color = stringPtr(ColorText)
	s.H1.Color = stringPtr(ColorAccent)
	s.H1.BackgroundColor = nil
	s.H2.Color = stringPtr(ColorAccent)
	s.H3.Color = stringPtr(ColorBright)
	s.Link.Color = stringPtr(ColorBright)
	s.LinkText.Color = stringPtr(ColorAccent)
	s.Strong.Color = stringPtr(ColorAccent)
	s.Code.Color = stringPtr(ColorBright)
	s.BlockQuote.Color = stringPtr(ColorMuted)

	return s
}

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer; glamour renderers are not safe for concurrent use.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	out, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// MarkdownOrPlain renders content and falls back to the raw text when
// rendering fails.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return out
}
