package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/neurovine/assistant/internal/api"
	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/config"
	"github.com/neurovine/assistant/internal/diag"
	"github.com/neurovine/assistant/internal/models"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	variant  string
	backend  string
	model    string
	logLevel string
}

// sessionConfig tunes newSession for a command
type sessionConfig struct {
	// logToFile sends logs to the log file instead of stderr, for commands
	// that own the terminal.
	logToFile bool
	// echoDelay slows the echo backend so the waiting state is visible
	echoDelay time.Duration
}

// session is one wired conversation: configuration, backend, logger and
// controller.
type session struct {
	cfg      config.Config
	variant  config.Variant
	backend  api.Backend
	ctrl     *chat.Controller
	logger   zerolog.Logger
	failures *failureRecorder
	closeLog func() error
}

// close ends the conversation and flushes the log file
func (s *session) close() {
	s.ctrl.Close()
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

// failureRecorder forwards failed calls to the reporter and remembers the
// last one so one-shot commands can surface it.
type failureRecorder struct {
	next chat.Diagnostics

	mu   sync.Mutex
	last error
}

func (f *failureRecorder) Report(ctx context.Context, rec chat.ErrorRecord) {
	f.mu.Lock()
	f.last = rec.Err
	f.mu.Unlock()

	if f.next != nil {
		f.next.Report(ctx, rec)
	}
}

// Last returns the most recent failure, or nil
func (f *failureRecorder) Last() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveModel picks the model for a backend. An explicit model always wins;
// otherwise the variant's model is used when it belongs to the backend's
// provider.
func resolveModel(backend api.Backend, explicit, variantModel string) string {
	if explicit != "" {
		return explicit
	}

	switch backend {
	case api.BackendEcho:
		return models.ModelEcho.Name
	case api.BackendOpenAI:
		if variantModel != "" && models.ModelFromName(variantModel).Provider == models.ProviderOpenAI {
			return variantModel
		}
		return models.ModelGPT4oMini.Name
	default:
		if variantModel != "" && models.ModelFromName(variantModel).Provider == models.ProviderGemini {
			return variantModel
		}
		return models.DefaultModel.Name
	}
}

func newLogger(deps *Dependencies, level string, toFile bool) (zerolog.Logger, func() error, error) {
	opts := diag.Options{Level: level, Console: deps.Stderr}
	if toFile {
		if _, err := config.EnsureConfigDir(); err != nil {
			return zerolog.Nop(), nil, err
		}
		path, err := config.GetLogPath()
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		opts.File = path
	}
	return diag.New(opts)
}

// newSession loads configuration, variants and credentials and wires a
// controller to the selected backend.
func newSession(ctx context.Context, deps *Dependencies, g *globalOptions, sc sessionConfig) (_ *session, err error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := api.ParseBackend(firstNonEmpty(g.backend, cfg.Backend))
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(deps, firstNonEmpty(g.logLevel, cfg.LogLevel), sc.logToFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = closeLog()
		}
	}()

	variants, err := deps.LoadVariants()
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	variant, err := variants.Find(firstNonEmpty(g.variant, cfg.Variant))
	if err != nil {
		return nil, err
	}

	settings := api.Settings{
		Backend:   backend,
		BaseURL:   cfg.BaseURL(string(backend)),
		Model:     resolveModel(backend, firstNonEmpty(g.model, cfg.Model), variant.Model),
		Timeout:   cfg.Timeout(),
		EchoDelay: sc.echoDelay,
	}

	if backend.NeedsAPIKey() {
		creds, err := deps.LoadCredentials()
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		settings.APIKey = creds.KeyFor(string(backend))
	}

	completer, err := deps.NewCompleter(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", backend, err)
	}

	failures := &failureRecorder{next: diag.NewReporter(logger, string(backend))}
	ctrl := chat.NewController(completer, variant.Profile(settings.Model), chat.WithDiagnostics(failures))

	logger.Debug().
		Str("conversation_id", ctrl.ID()).
		Str("backend", string(backend)).
		Str("variant", variant.Name).
		Str("model", settings.Model).
		Msg("conversation started")

	return &session{
		cfg:      cfg,
		variant:  variant,
		backend:  backend,
		ctrl:     ctrl,
		logger:   logger,
		failures: failures,
		closeLog: closeLog,
	}, nil
}
