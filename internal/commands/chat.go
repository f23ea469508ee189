package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurovine/assistant/internal/render"
	"github.com/neurovine/assistant/internal/tui"
)

// chatEchoDelay keeps the loading indicator visible on the offline backend
const chatEchoDelay = 800 * time.Millisecond

func newChatCmd(deps *Dependencies, g *globalOptions) *cobra.Command {
	var startClosed bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat panel",
		Long: `Open the assistant's chat panel in the terminal.

The conversation starts with the variant's greeting and lasts until the
panel is quit. Press ctrl+o to collapse the panel to its launcher, enter to
send, ctrl+y to copy the last reply and ctrl+c to quit.

Logs are written to the log file in the configuration directory while the
panel owns the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps, g, !startClosed)
		},
	}

	cmd.Flags().BoolVar(&startClosed, "closed", false, "Start collapsed to the launcher")
	return cmd
}

func runChat(ctx context.Context, deps *Dependencies, g *globalOptions, startOpen bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx, deps, g, sessionConfig{logToFile: true, echoDelay: chatEchoDelay})
	if err != nil {
		return err
	}
	defer s.close()

	opts := tui.Options{
		Variant:   s.variant.Name,
		Backend:   string(s.backend),
		Render:    render.OptionsFromConfig(s.cfg.Markdown, deps.TerminalWidth()),
		StartOpen: startOpen,
		CopyFunc:  deps.Copy,
	}

	if err := deps.RunChat(ctx, s.ctrl, opts); err != nil {
		s.logger.Error().Err(err).Msg("chat panel exited with error")
		return err
	}

	state := s.ctrl.Snapshot()
	s.logger.Debug().
		Str("conversation_id", state.ID).
		Int("turns", state.Turns()).
		Msg("conversation closed")
	return nil
}
