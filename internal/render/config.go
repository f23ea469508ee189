package render

import (
	"os"

	"github.com/neurovine/assistant/internal/config"
)

// OptionsFromConfig builds render options from the user's markdown
// settings. GLAMOUR_STYLE takes precedence over the configured style.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions()

	// "dark" is the configured default and maps to the house style
	if md.Style != "" && md.Style != "dark" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	if width > 0 {
		opts.Width = width
	}
	return opts
}
