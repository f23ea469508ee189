// Package render turns assistant replies into styled terminal output.
package render

// MinWidth is the narrowest wrap column a reply bubble is rendered at.
const MinWidth = 20

// Options controls how a reply is rendered. It is comparable and used
// directly as the renderer pool key.
type Options struct {
	// Width is the wrap column; zero means 80
	Width int

	// Style is "neurovine", a glamour style name ("dark", "light", "notty")
	// or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
}

func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleNeuroVine,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth sets the wrap column. Positive widths below MinWidth are
// raised to MinWidth so a squeezed chat panel still wraps sensibly.
func (o Options) WithWidth(width int) Options {
	if width > 0 && width < MinWidth {
		width = MinWidth
	}
	o.Width = width
	return o
}

func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}
