// Package commands provides CLI commands for neurovine.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurovine/assistant/internal/api"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd builds the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}

	g := &globalOptions{}
	var askOpts askOptions

	rootCmd := &cobra.Command{
		Use:   "neurovine [question]",
		Short: "NeuroVine neural interface assistant",
		Long: `neurovine is a terminal chat assistant. It keeps one conversation per
session, sends the whole transcript to the configured completion backend on
every turn, and answers with the variant's fallback message when the
backend fails.

Examples:
  neurovine chat                        Open the chat panel
  neurovine chat --backend echo         Try the panel offline
  neurovine "What is neural sync?"      Ask a single question
  neurovine ask -f question.md          Read the question from file
  cat question.md | neurovine           Read the question from stdin
  neurovine variants list               Show deployment variants
  neurovine config set-key gemini       Store an API key (read from stdin)
  neurovine config show                 Show the effective configuration`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for version flag
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "neurovine %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if askOpts.file != "" || len(args) > 0 || deps.StdinPiped() {
				return runAsk(cmd.Context(), deps, g, askOpts, args)
			}

			// No input - show help
			return cmd.Help()
		},
	}

	backends := make([]string, 0, len(api.AvailableBackends()))
	for _, b := range api.AvailableBackends() {
		backends = append(backends, string(b))
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&g.variant, "variant", "", "Deployment variant (see 'neurovine variants list')")
	rootCmd.PersistentFlags().StringVarP(&g.backend, "backend", "b", "",
		fmt.Sprintf("Completion backend (%s)", strings.Join(backends, ", ")))
	rootCmd.PersistentFlags().StringVarP(&g.model, "model", "m", "", "Model to use (e.g., gemini-2.5-flash)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")
	addAskFlags(rootCmd, &askOpts)

	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	// Add subcommands
	rootCmd.AddCommand(newChatCmd(deps, g))
	rootCmd.AddCommand(newAskCmd(deps, g))
	rootCmd.AddCommand(newVariantsCmd(deps))
	rootCmd.AddCommand(NewConfigCmd(deps))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd(NewDependencies()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
