package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/neurovine/assistant/internal/render"
	"github.com/neurovine/assistant/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#064E3B"),
	lipgloss.Color("#065F46"),
	lipgloss.Color("#047857"),
	lipgloss.Color(render.ColorAccent),
	lipgloss.Color(render.ColorBright),
	lipgloss.Color("#6EE7B7"),
	lipgloss.Color(render.ColorBright),
	lipgloss.Color(render.ColorAccent),
}

var (
	colorText     = lipgloss.Color(render.ColorText)
	colorTextMute = lipgloss.Color("#334155")
	colorSuccess  = lipgloss.Color(render.ColorBright)
	colorWarning  = lipgloss.Color(render.ColorWarning)
	colorPrimary  = lipgloss.Color(render.ColorAccent)
)

// Styles matching the chat panel
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	barChars := []string{"█", "█", "█", "▓", "▒", "░", "░", "▒", "▓"}

	// Build animated bar
	barWidth := 12
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	// Three dots, one lit at a time
	var dots strings.Builder
	lit := (s.frame / 3) % 3
	for i := 0; i < 3; i++ {
		if i > 0 {
			dots.WriteString(" ")
		}
		if i == lit {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorSuccess).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("●"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s", bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// askOptions holds the ask command's local flags
type askOptions struct {
	file   string
	output string
	raw    bool
}

func newAskCmd(deps *Dependencies, g *globalOptions) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Send one question to the assistant and print its reply.

The question is taken from the arguments, from --file, or from stdin.
The reply is rendered as markdown when stdout is a terminal and printed
raw otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), deps, g, opts, args)
		},
	}

	addAskFlags(cmd, &opts)
	return cmd
}

func addAskFlags(cmd *cobra.Command, opts *askOptions) {
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the question from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the reply to file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the reply without decoration")
}

// readPrompt returns the question from --file, the arguments or stdin, in
// that order
func readPrompt(deps *Dependencies, file string, args []string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if deps.StdinPiped() {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", nil
}

// runAsk runs one conversation turn and outputs the reply
func runAsk(ctx context.Context, deps *Dependencies, g *globalOptions, opts askOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	prompt, err := readPrompt(deps, opts.file, args)
	if err != nil {
		return err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("prompt cannot be empty")
	}

	s, err := newSession(ctx, deps, g, sessionConfig{})
	if err != nil {
		return err
	}
	defer s.close()

	decorated := !opts.raw && deps.IsTTY()

	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, "Synchronizing")
		spin.start()
	}

	if !s.ctrl.Send(ctx, prompt) {
		if spin != nil {
			spin.stopWithError()
		}
		return errors.New("conversation rejected the question")
	}

	reply, _ := s.ctrl.Snapshot().LastAssistant()
	text := reply.Content
	failure := s.failures.Last()

	if spin != nil {
		if failure != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Reply received")
		}
	}

	if failure != nil && decorated {
		fmt.Fprintln(deps.Stderr, tui.FormatError(failure))
	}

	if failure == nil && s.cfg.CopyToClipboard {
		if err := deps.Copy(text); err != nil {
			// Log warning but don't fail
			s.logger.Warn().Err(err).Msg("failed to copy reply to clipboard")
			if decorated {
				fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorWarning).Render(
					fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
				))
			}
		} else if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if err := writeReply(deps, s, opts, text, decorated); err != nil {
		return err
	}

	if failure != nil {
		return fmt.Errorf("completion failed: %w", failure)
	}
	return nil
}

// writeReply sends the reply to --output, a rendered bubble, or raw stdout
func writeReply(deps *Dependencies, s *session, opts askOptions, text string, decorated bool) error {
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Response saved to %s", opts.output),
			))
		}
		return nil
	}

	if !decorated {
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	// Get terminal width for proper formatting
	bubbleWidth := deps.TerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("✦ "+s.variant.Name))

	rendered := render.MarkdownOrPlain(text, render.OptionsFromConfig(s.cfg.Markdown, contentWidth))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}
