// Package tui provides the terminal chat panel for neurovine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/neurovine/assistant/internal/errors"
	"github.com/neurovine/assistant/internal/render"
)

var (
	colorAccent  = lipgloss.Color(render.ColorAccent)
	colorBright  = lipgloss.Color(render.ColorBright)
	colorSurface = lipgloss.Color(render.ColorSurface)
	colorMuted   = lipgloss.Color(render.ColorMuted)
	colorText    = lipgloss.Color(render.ColorText)
	colorWarning = lipgloss.Color(render.ColorWarning)
	colorError   = lipgloss.Color(render.ColorError)
	colorBorder  = lipgloss.Color("#334155")
)

var (
	// Closed launcher
	launcherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#020617")).
			Background(colorAccent).
			Bold(true).
			Padding(0, 2)

	launcherHintStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	// Header panel
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	linkOKStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	linkBusyStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	// Messages area
	messagesAreaStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	userBubbleStyle = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorText).
			Padding(0, 1)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorBright).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderTop(false).
				BorderRight(false).
				BorderBottom(false).
				BorderForeground(colorAccent).
				PaddingLeft(1)

	// Loading dots
	dotStyle = lipgloss.NewStyle().
			Foreground(colorBright)

	dotDimStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Input panel
	inputPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Align(lipgloss.Center)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorBright).
			Italic(true)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorError)
)

// FormatError returns a styled error message with details from the typed
// backend errors and a hint for the common cases.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorMuted)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case errors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Set GEMINI_API_KEY (or OPENAI_API_KEY for the openai backend), or use --backend echo"))
	case errors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the usage limit. Try again later or use a different model"))
	case errors.IsModelError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check the model name with --model"))
	case errors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	case errors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Raise request_timeout in the config"))
	}

	return sb.String()
}
