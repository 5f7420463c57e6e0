// Package supportmesh wires the customer support team, the code expert and
// their HTTP surfaces from a config.Config.
//
// Typical use:
//
//	cfg, _ := config.Load("supportmesh.yaml")
//	sm, err := supportmesh.New(ctx, cfg)
//	...
//	defer sm.Close()
//	http.ListenAndServe(cfg.Server.Addr, sm.Handler())
//
// Models, stores and loggers can be replaced through Options, which is how
// tests run the whole stack against scripted models.
package supportmesh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hupe1980/supportmesh/codeassist"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/intent"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/model/provider"
	"github.com/hupe1980/supportmesh/server"
	"github.com/hupe1980/supportmesh/session"
	"github.com/hupe1980/supportmesh/store"
	"github.com/hupe1980/supportmesh/store/redisstore"
	"github.com/hupe1980/supportmesh/store/sqlstore"
	"github.com/hupe1980/supportmesh/support"
	"github.com/hupe1980/supportmesh/webui"
)

// Options overrides components New would otherwise build from config.
type Options struct {
	// Model backs the support team. Defaults to the configured provider.
	Model model.Model
	// CodeModel backs the code expert. Defaults to the configured provider
	// with codeassist.model as model name.
	CodeModel model.Model
	// Store replaces the configured backend. It is not closed by Close.
	Store store.Store
	// Classifier overrides the intent classifier of the intent selector.
	Classifier intent.Classifier
	// Linter replaces the configured lint command.
	Linter codeassist.Linter
	// Logger defaults to a zap logger built from the log section.
	Logger logging.Logger
}

// SupportMesh holds the wired application.
type SupportMesh struct {
	cfg      *config.Config
	logger   logging.Logger
	store    store.Store
	closers  []io.Closer
	support  *support.Service
	expert   *codeassist.Expert
	metrics  *metrics.Collector
	handler  *server.Server
	sessions *session.InMemoryStore
}

// New builds a SupportMesh from cfg. The store is seeded when
// store.seed is set and the store is empty.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*SupportMesh, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	sm := &SupportMesh{cfg: cfg, sessions: session.NewInMemoryStore()}

	logger := opts.Logger
	if logger == nil {
		zl, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return nil, fmt.Errorf("supportmesh: logger: %w", err)
		}
		logger = zl
	}
	sm.logger = logger

	if cfg.Metrics.Enabled {
		sm.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	llm := opts.Model
	if llm == nil {
		m, err := provider.New(modelSettings(cfg.Model, ""))
		if err != nil {
			return nil, fmt.Errorf("supportmesh: model: %w", err)
		}
		llm = m
	}
	llm = sm.instrument(llm)

	s := opts.Store
	if s == nil {
		opened, closer, err := openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		s = opened
		sm.closers = append(sm.closers, closer)
	}
	sm.store = s

	if cfg.Store.Seed {
		if err := store.Seed(ctx, s); err != nil {
			_ = sm.Close()
			return nil, fmt.Errorf("supportmesh: %w", err)
		}
	}

	svc, err := support.NewService(llm, s, func(o *support.Options) {
		o.Selector = cfg.Team.Selector
		o.Classifier = opts.Classifier
		o.MaxMessages = cfg.Team.MaxMessages
		o.Sentinel = cfg.Team.Sentinel
		o.AllowRepeatedSpeaker = cfg.Team.AllowRepeatedSpeaker
		o.MaxSelectorAttempts = cfg.Team.MaxSelectorAttempts
		o.MaxTurns = cfg.Team.MaxTurns
		o.Logger = logger
		if sm.metrics != nil {
			o.TeamRecorder = sm.metrics
			o.ToolsRecorder = sm.metrics
		}
	})
	if err != nil {
		_ = sm.Close()
		return nil, fmt.Errorf("supportmesh: %w", err)
	}
	sm.support = svc

	if cfg.CodeAssist.Enabled {
		codeModel := opts.CodeModel
		if codeModel == nil {
			m, err := provider.New(modelSettings(cfg.Model, cfg.CodeAssist.Model))
			if err != nil {
				_ = sm.Close()
				return nil, fmt.Errorf("supportmesh: code model: %w", err)
			}
			codeModel = m
		}

		linter := opts.Linter
		if linter == nil && cfg.CodeAssist.LintCommand != "" {
			linter = &codeassist.CommandLinter{
				Command: cfg.CodeAssist.LintCommand,
				Args:    cfg.CodeAssist.LintArgs,
				Timeout: cfg.CodeAssist.LintTimeout,
			}
		}

		sm.expert = codeassist.New(sm.instrument(codeModel), func(o *codeassist.Options) {
			o.Linter = linter
			o.Logger = logger
		})
	}

	sm.handler = server.New(svc, func(o *server.Options) {
		if sm.expert != nil {
			o.CodeAssistant = sm.expert
		}
		o.Metrics = sm.metrics
		o.MetricsPath = cfg.Metrics.Path
		o.CORSOrigins = cfg.Server.CORSOrigins
		o.Logger = logger
	})

	logger.Info("supportmesh.ready",
		"model", llm.Info().Name,
		"store", cfg.Store.Backend,
		"selector", cfg.Team.Selector,
		"codeassist", sm.expert != nil,
	)

	return sm, nil
}

// Handler returns the HTTP API.
func (sm *SupportMesh) Handler() http.Handler { return sm.handler }

// UIHandler returns the web chat, talking to the API at ui.backend_url.
// With codeassist enabled it also serves the code review page at /code.
func (sm *SupportMesh) UIHandler() http.Handler {
	client := webui.NewClient(sm.cfg.UI.BackendURL, func(o *webui.ClientOptions) {
		o.Timeout = sm.cfg.UI.Timeout
	})
	return webui.NewHandler(client, sm.sessions, func(o *webui.Options) {
		if sm.expert != nil {
			o.Reviewer = sm.expert
		}
		o.Logger = sm.logger
	})
}

// Support returns the support service.
func (sm *SupportMesh) Support() *support.Service { return sm.support }

// CodeExpert returns the code expert, nil when disabled.
func (sm *SupportMesh) CodeExpert() *codeassist.Expert { return sm.expert }

// Store returns the backing store.
func (sm *SupportMesh) Store() store.Store { return sm.store }

// Metrics returns the collector, nil when metrics are disabled.
func (sm *SupportMesh) Metrics() *metrics.Collector { return sm.metrics }

// Logger returns the application logger.
func (sm *SupportMesh) Logger() logging.Logger { return sm.logger }

// Close releases the stores opened by New.
func (sm *SupportMesh) Close() error {
	var errs []error
	for _, c := range sm.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	sm.closers = nil
	return errors.Join(errs...)
}

func (sm *SupportMesh) instrument(m model.Model) model.Model {
	if sm.metrics == nil {
		return m
	}
	return sm.metrics.InstrumentModel(m)
}

func modelSettings(c config.ModelConfig, name string) provider.Settings {
	if name == "" {
		name = c.Name
	}
	return provider.Settings{
		Provider:    c.Provider,
		Name:        name,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(c config.StoreConfig) (store.Store, io.Closer, error) {
	switch c.Backend {
	case config.StoreRedis:
		s, err := redisstore.New(redisstore.Config{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("supportmesh: %w", err)
		}
		return s, s, nil
	case config.StoreSQLite:
		s, err := sqlstore.Open(c.SQLite.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("supportmesh: %w", err)
		}
		return s, s, nil
	default:
		return store.NewInMemoryStore(), nopCloser{}, nil
	}
}
