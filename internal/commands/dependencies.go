package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/neurovine/assistant/internal/api"
	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/config"
	"github.com/neurovine/assistant/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewCompleter builds the completion backend.
	NewCompleter func(ctx context.Context, s api.Settings) (chat.Completer, error)

	// RunChat runs the terminal chat panel.
	RunChat func(ctx context.Context, ctrl *chat.Controller, opts tui.Options) error

	LoadConfig      func() (config.Config, error)
	LoadVariants    func() (*config.VariantConfig, error)
	LoadCredentials func() (*config.Credentials, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool
	// StdinPiped reports whether stdin carries input.
	StdinPiped    func() bool
	TerminalWidth func() int
	Copy          func(string) error
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewCompleter:    api.NewCompleter,
		RunChat:         tui.RunChat,
		LoadConfig:      config.LoadConfig,
		LoadVariants:    config.LoadVariants,
		LoadCredentials: config.LoadCredentials,
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		IsTTY:           isStdoutTTY,
		StdinPiped:      hasPipedStdin,
		TerminalWidth:   getTerminalWidth,
		Copy:            clipboard.WriteAll,
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// hasPipedStdin returns true if stdin is not a terminal
func hasPipedStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
