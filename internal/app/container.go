package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	appconfig "github.com/doeshing/typecopilot/internal/application/config"
	"github.com/doeshing/typecopilot/internal/application/correction"
	"github.com/doeshing/typecopilot/internal/application/doctor"
	"github.com/doeshing/typecopilot/internal/application/registry"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/ai"
	"github.com/doeshing/typecopilot/internal/infrastructure/automation"
	"github.com/doeshing/typecopilot/internal/infrastructure/config"
	"github.com/doeshing/typecopilot/internal/infrastructure/history"
	"github.com/doeshing/typecopilot/internal/infrastructure/lock"
	"github.com/doeshing/typecopilot/internal/infrastructure/notify"
	"github.com/doeshing/typecopilot/internal/infrastructure/observe"
	"github.com/doeshing/typecopilot/internal/pkg/filesystem"
	"github.com/doeshing/typecopilot/internal/pkg/logger"
	"github.com/doeshing/typecopilot/internal/ports"
	"github.com/doeshing/typecopilot/internal/version"
)

// Options configures container construction.
type Options struct {
	Verbose bool
	// ConfigPath overrides the configuration file location.
	ConfigPath string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         *logger.Logger

	// Client is nil when ClientErr is set.
	Client    *ai.Client
	ClientErr error
	// ConfigErr holds the validation failure of Config, if any. Diagnostics still
	// run with an invalid configuration; corrections do not.
	ConfigErr error

	Session       *correction.Session
	Registry      *registry.Registry
	DoctorService *doctor.Service
	HistoryStore  *history.SQLiteStore
	Notifier      ports.Notifier
	Telemetry     *observe.Provider
	Metrics       *observe.Metrics

	corrections *correction.Service
}

// NewContainer returns an empty container; call Init before use.
func NewContainer() *Container {
	return &Container{}
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	c := NewContainer()
	if err := c.Init(ctx, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads the configuration and builds every adapter that does not touch the
// keyboard. Synthetic input is created on first use by Corrections.
func (c *Container) Init(ctx context.Context, opts Options) error {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.ConfigProvider = cfgLoader
	c.ConfigLoader = cfgLoader
	c.ConfigErr = appconfig.Validate(cfg)

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, Verbose: opts.Verbose})
	if err != nil {
		log = logger.NewStd(opts.Verbose)
		log.Warn("log file unavailable", map[string]interface{}{"file": cfg.Log.File, "error": err.Error()})
	}
	c.Logger = log

	client, err := ai.NewClient(cfg.Service.Host, cfg.Service.Timeout)
	if err != nil {
		c.ClientErr = fmt.Errorf("%w: %v", domain.ErrClientInit, err)
		log.Error("generation client init failed", err, map[string]interface{}{"host": cfg.Service.Host})
	} else {
		c.Client = client
		log.Debug("generation client ready", map[string]interface{}{"host": client.Host()})
	}

	c.Session = correction.NewSession(cfg.Service.Model, cfg.Service.KeepAlive)
	c.HistoryStore = history.NewSQLiteStore(filesystem.AppDir())
	c.Notifier = notify.New(cfg.AreNotificationsEnabled())

	c.initMetrics(ctx, log)

	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Clipboard:      automation.NewSystemClipboard(),
		KeyTable:       automation.TableFor,
	}
	if c.Client != nil {
		c.Registry = registry.New(c.Client, log)
		c.DoctorService.Probe = c.Client
		c.DoctorService.Models = c.Client
	}
	return nil
}

// initMetrics installs the Prometheus-backed provider. Metrics never block
// corrections: on failure the instruments record into a noop provider and
// Telemetry stays nil.
func (c *Container) initMetrics(ctx context.Context, log *logger.Logger) {
	var mp metric.MeterProvider = noop.NewMeterProvider()
	telemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version.Version})
	if err != nil {
		log.Warn("metrics disabled", map[string]interface{}{"error": err.Error()})
	} else {
		c.Telemetry = telemetry
		mp = telemetry.MeterProvider
	}

	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		log.Warn("metric instruments unavailable", map[string]interface{}{"error": err.Error()})
		metrics, _ = observe.NewMetrics(noop.NewMeterProvider())
	}
	c.Metrics = metrics
}

// Corrections returns the correction orchestrator, creating the virtual keyboard
// on first call. It fails when the configuration is invalid or the generation
// client could not be built.
func (c *Container) Corrections() (*correction.Service, error) {
	if c.corrections != nil {
		return c.corrections, nil
	}
	if c.ConfigErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", c.ConfigErr)
	}
	if c.ClientErr != nil {
		return nil, c.ClientErr
	}

	keys, err := automation.TableFor(c.Config.Automation.Platform)
	if err != nil {
		return nil, err
	}
	keyboard, err := automation.NewKeybdKeyboard()
	if err != nil {
		return nil, err
	}
	adapter := automation.NewAdapter(keyboard, automation.NewSystemClipboard(), keys, automation.DelaysFromConfig(c.Config.Automation))
	c.Logger.Info("automation ready", map[string]interface{}{
		"platform": keys.Platform,
		"select":   keys.SelectLine.String(),
		"copy":     keys.Copy.String(),
		"paste":    keys.Paste.String(),
	})

	svc := &correction.Service{
		Session:    c.Session,
		Automation: adapter,
		Generator:  c.Client,
		Metrics:    c.Metrics,
		Logger:     c.Logger,
		Lock:       lock.InDir(filesystem.AppDir()),
		Options: correction.Options{
			InstructStreaming:  c.Config.Instruct.Streaming,
			FirstFragmentDelay: c.Config.Automation.FirstFragmentDelay,
			RestoreClipboard:   c.Config.Automation.RestoreClipboard,
			StoreText:          c.Config.History.StoreText,
		},
	}
	if c.Config.IsHistoryEnabled() {
		svc.History = c.HistoryStore
	}
	c.corrections = svc
	return svc, nil
}

// Close flushes metrics and releases the history database and log file.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Telemetry != nil {
		errs = append(errs, c.Telemetry.Shutdown(ctx))
	}
	if c.HistoryStore != nil {
		errs = append(errs, c.HistoryStore.Close())
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}
