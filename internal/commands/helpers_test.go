package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurovine/assistant/internal/api"
	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/config"
	"github.com/neurovine/assistant/internal/tui"
)

// testEnv wires Dependencies to in-memory fakes
type testEnv struct {
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	stdin  *strings.Reader

	cfg      config.Config
	creds    config.Credentials
	variants *config.VariantConfig

	mock        *api.MockCompleter
	settings    api.Settings
	completerOK bool
	tty         bool
	piped       bool
	copied      []string
	copyErr     error

	chatOpts tui.Options
	chatCtrl *chat.Controller
	chatFn   func(ctx context.Context, ctrl *chat.Controller) error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())
	for _, name := range []string{config.EnvGeminiAPIKey, config.EnvGoogleAPIKey, config.EnvOpenAIAPIKey, "GLAMOUR_STYLE"} {
		t.Setenv(name, "")
	}

	env := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		stdin:    strings.NewReader(""),
		cfg:      config.DefaultConfig(),
		creds:    config.Credentials{GeminiAPIKey: "gemini-test-key", OpenAIAPIKey: "openai-test-key"},
		variants: &config.VariantConfig{Variants: config.BuiltinVariants()},
		mock:     &api.MockCompleter{Reply: "Synaptic packets aligned."},
	}

	env.deps = &Dependencies{
		NewCompleter: func(ctx context.Context, s api.Settings) (chat.Completer, error) {
			env.settings = s
			env.completerOK = true
			return env.mock, nil
		},
		RunChat: func(ctx context.Context, ctrl *chat.Controller, opts tui.Options) error {
			env.chatOpts = opts
			env.chatCtrl = ctrl
			if env.chatFn != nil {
				return env.chatFn(ctx, ctrl)
			}
			return nil
		},
		LoadConfig:   func() (config.Config, error) { return env.cfg, nil },
		LoadVariants: func() (*config.VariantConfig, error) { return env.variants, nil },
		LoadCredentials: func() (*config.Credentials, error) {
			creds := env.creds
			return &creds, nil
		},
		Stdin:         env.stdin,
		Stdout:        env.stdout,
		Stderr:        env.stderr,
		IsTTY:         func() bool { return env.tty },
		StdinPiped:    func() bool { return env.piped },
		TerminalWidth: func() int { return 100 },
		Copy: func(s string) error {
			env.copied = append(env.copied, s)
			return env.copyErr
		},
	}
	return env
}

// run executes the command tree with args
func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// withStdin makes stdin piped with the given content
func (e *testEnv) withStdin(content string) {
	e.stdin = strings.NewReader(content)
	e.deps.Stdin = e.stdin
	e.piped = true
}

// withVariantsFile writes variants.yaml into the config home and loads
// variants from disk
func (e *testEnv) withVariantsFile(t *testing.T, content string) {
	t.Helper()
	dir, err := config.EnsureConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "variants.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	e.deps.LoadVariants = config.LoadVariants
}
