package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurovine/assistant/internal/api"
	"github.com/neurovine/assistant/internal/config"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		Long: `Show the effective configuration, the file locations, or write a default
configuration file.

API keys are read from GEMINI_API_KEY (or GOOGLE_API_KEY) and
OPENAI_API_KEY, falling back to credentials.json in the configuration
directory.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(deps)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(deps, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <backend> [key]",
		Short: "Store an API key in credentials.json",
		Long: `Store the API key for a hosted backend (gemini, gemini-rest or openai) in
credentials.json. The key is read from stdin when it is not given as an
argument, which keeps it out of the shell history:

  echo "$KEY" | neurovine config set-key openai`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetKey(deps, args)
		},
	})

	return cmd
}

// configView is what `config show` prints: the config plus masked keys
type configView struct {
	config.Config
	Backends    []api.Backend     `json:"available_backends"`
	Credentials map[string]string `json:"credentials"`
}

func runConfigShow(deps *Dependencies) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := deps.LoadCredentials()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	view := configView{
		Config:   cfg,
		Backends: api.AvailableBackends(),
		Credentials: map[string]string{
			"gemini": config.MaskKey(creds.GeminiAPIKey),
			"openai": config.MaskKey(creds.OpenAIAPIKey),
		},
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if _, err := fmt.Fprintln(deps.Stdout, string(data)); err != nil {
		return err
	}

	if err := config.ValidateCredentials(creds); err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
	}
	return nil
}

func runConfigPath(deps *Dependencies) error {
	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	credsPath, err := config.GetCredentialsPath()
	if err != nil {
		return err
	}
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}
	variantPaths, err := config.GetVariantsPaths()
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Directory:   %s\n", dir)
	fmt.Fprintf(deps.Stdout, "Config:      %s\n", configPath)
	fmt.Fprintf(deps.Stdout, "Credentials: %s\n", credsPath)
	fmt.Fprintf(deps.Stdout, "Variants:    %s\n", variantPaths[0])
	fmt.Fprintf(deps.Stdout, "Log:         %s\n", logPath)
	return nil
}

func runConfigInit(deps *Dependencies, force bool) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
	return nil
}

func runConfigSetKey(deps *Dependencies, args []string) error {
	backend, err := api.ParseBackend(args[0])
	if err != nil {
		return err
	}
	if !backend.NeedsAPIKey() {
		return fmt.Errorf("backend %q does not use an API key", backend)
	}

	var key string
	switch {
	case len(args) == 2:
		key = args[1]
	case deps.StdinPiped():
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read key from stdin: %w", err)
		}
		key = string(data)
	default:
		return fmt.Errorf("no key given: pass it as an argument or pipe it to stdin")
	}

	creds, err := config.LoadCredentialsFile()
	if err != nil {
		return err
	}
	if err := creds.SetKey(string(backend), strings.TrimSpace(key)); err != nil {
		return err
	}
	if err := config.SaveCredentials(creds); err != nil {
		return err
	}

	path, err := config.GetCredentialsPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Saved %s key %s to %s\n", backend, config.MaskKey(creds.KeyFor(string(backend))), path)
	return nil
}
