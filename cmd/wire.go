package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/slotwatch/internal/adapters/notify/telegram"
	"github.com/bnema/slotwatch/internal/adapters/notify/zaplog"
	"github.com/bnema/slotwatch/internal/adapters/provider"
	statusadapter "github.com/bnema/slotwatch/internal/adapters/render/status"
	chainstore "github.com/bnema/slotwatch/internal/adapters/secrets/chain"
	filestore "github.com/bnema/slotwatch/internal/adapters/secrets/file"
	passstore "github.com/bnema/slotwatch/internal/adapters/secrets/pass"
	jsonstate "github.com/bnema/slotwatch/internal/adapters/state/json"
	tomlstate "github.com/bnema/slotwatch/internal/adapters/state/toml"
	"github.com/bnema/slotwatch/internal/application"
	"github.com/bnema/slotwatch/internal/config"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/logging"
	"github.com/bnema/slotwatch/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg          config.Config
	logger       *zap.Logger
	secretStore  *chainstore.Store
	resolver     *application.SecretResolver
	httpClient   *http.Client
	now          func() time.Time
	stdoutTTY    bool
	stderrTTY    bool
	renderResult func(application.Result, statusadapter.RenderOptions) (string, error)
	renderState  func(domain.State, statusadapter.RenderOptions) (string, error)
}

// wireApp builds the shared dependencies for one command. Only `check`
// sets requireRequest; the other commands work without upstream settings.
func wireApp(cmd *cobra.Command, opts *rootOptions, requireRequest bool) (*app, error) {
	load := config.Read
	if requireRequest {
		load = config.Load
	}

	cfg, err := load(opts.viper, opts.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	secretStore, err := newSecretStore(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("config_file", cfg.File),
		zap.String("state_path", cfg.State.Path),
		zap.String("state_format", cfg.State.Format),
		zap.Bool("telegram", cfg.Notify.TelegramEnabled()),
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		secretStore:  secretStore,
		resolver:     application.NewSecretResolver(secretStore),
		httpClient:   http.DefaultClient,
		now:          time.Now,
		stdoutTTY:    isTerminal(cmd.OutOrStdout()),
		stderrTTY:    isTerminal(cmd.ErrOrStderr()),
		renderResult: statusadapter.RenderResult,
		renderState:  statusadapter.RenderState,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newSecretStore(cfg config.SecretsConfig) (*chainstore.Store, error) {
	switch cfg.Backend {
	case config.SecretsBackendPass:
		return chainstore.NewStore(chainstore.Backend{Name: "pass", Store: passstore.NewStore(passstore.DefaultPrefix)})
	case config.SecretsBackendFile:
		return chainstore.NewStore(chainstore.Backend{Name: "file", Store: filestore.NewStore(cfg.Dir)})
	case config.SecretsBackendAuto, "":
		return chainstore.NewPassFirstWithFileFallback(passstore.DefaultPrefix, cfg.Dir)
	default:
		return nil, fmt.Errorf("secrets.backend: unsupported value %q", cfg.Backend)
	}
}

func (a *app) stateStore() (ports.StateStore, error) {
	switch a.cfg.State.Format {
	case config.StateFormatTOML:
		store, err := tomlstate.NewStore(a.cfg.State.Path)
		if err != nil {
			return nil, fmt.Errorf("wire state store: %w", err)
		}
		return store, nil
	case config.StateFormatJSON, "":
		store, err := jsonstate.NewStore(a.cfg.State.Path)
		if err != nil {
			return nil, fmt.Errorf("wire state store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("state.format: unsupported value %q", a.cfg.State.Format)
	}
}

// notifier returns the configured delivery channel and its name. The log
// channel is used when chosen explicitly, or when logFallback is set and
// Telegram has no credentials.
func (a *app) notifier(ctx context.Context, logFallback bool) (ports.Notifier, string, error) {
	if a.cfg.Notify.Channel == config.NotifyChannelLog {
		return zaplog.NewNotifier(a.logger), config.NotifyChannelLog, nil
	}
	if !a.cfg.Notify.TelegramEnabled() {
		if !logFallback {
			return nil, "", a.cfg.ValidateDelivery()
		}
		return zaplog.NewNotifier(a.logger), config.NotifyChannelLog, nil
	}

	token, err := a.resolver.Resolve(ctx, "notify.telegram_token", a.cfg.Notify.TelegramToken)
	if err != nil {
		return nil, "", err
	}
	chatID, err := a.resolver.Resolve(ctx, "notify.telegram_chat_id", a.cfg.Notify.TelegramChatID)
	if err != nil {
		return nil, "", err
	}

	notifier, err := telegram.NewNotifier(telegram.Config{
		APIBase: a.cfg.Notify.TelegramAPIBase,
		Token:   token,
		ChatID:  chatID,
		Timeout: a.cfg.Notify.Timeout,
	})
	if err != nil {
		return nil, "", fmt.Errorf("wire telegram notifier: %w", err)
	}

	return notifier, config.NotifyChannelTelegram, nil
}

func (a *app) source(ctx context.Context) (ports.AvailabilitySource, error) {
	request := a.cfg.Request
	headers := provider.Headers{
		AcceptLanguage: request.AcceptLanguage,
		UserAgent:      request.UserAgent,
		Authorize:      request.Authorize,
		Cookie:         request.Cookie,
		Origin:         request.Origin,
		Referer:        request.Referer,
	}

	err := a.resolver.ResolveAll(ctx, map[string]*string{
		"request.user_agent": &headers.UserAgent,
		"request.authorize":  &headers.Authorize,
		"request.cookie":     &headers.Cookie,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve request secrets: %w", err)
	}

	return provider.NewSource(a.httpClient, provider.Request{
		URL:     request.URL,
		Method:  request.Method,
		Payload: request.Payload,
		Headers: headers,
	}, request.Timeout), nil
}

// checker wires the decision engine. source may be nil for commands that
// never poll.
func (a *app) checker(source ports.AvailabilitySource, store ports.StateStore, notifier ports.Notifier) *application.Checker {
	return application.NewChecker(source, store, notifier, ports.SystemClock{}, a.logger, application.CheckerOptions{
		JitterMin:              a.cfg.Request.JitterMin,
		JitterMax:              a.cfg.Request.JitterMax,
		PersistOnNotifyFailure: a.cfg.Notify.PersistOnFailure,
	})
}
