package app

import (
	"context"
	"regexp"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	"buswatch/internal/config"
	"buswatch/internal/feed"
	"buswatch/internal/notifier"
	"buswatch/internal/schedule"
	"buswatch/internal/statestore"
	"buswatch/internal/transport/telegram"
	"buswatch/internal/watch"
	logx "buswatch/pkg/logx"
)

// App wires config, logging, the feed client, the event engine, the
// notifier, the state store and the schedule runner together.
type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	feed  *feed.Client
	notif *notifier.Service
	store statestore.Store

	mu     sync.Mutex
	engine *watch.Engine

	runner *schedule.Runner

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{
		cfgMgr: cfgMgr,
		logSvc: logSvc,
		log:    log,
	}

	sendTimeout, err := config.ParseDurationField("telegram.send_timeout", cfg.Telegram.SendTimeout)
	if err != nil {
		return nil, err
	}
	sender, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token, SendTimeout: sendTimeout})
	if err != nil {
		return nil, err
	}

	a.notif = notifier.New(notifierConfig(cfg), sender, log.With(logx.String("comp", "notifier")))

	feedCfg, err := feedConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.feed = feed.NewClient(feedCfg, log.With(logx.String("comp", "feed")))

	busyTimeout, err := config.ParseDurationField("state.busy_timeout", cfg.State.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := statestore.Open(statestore.Config{
		Driver:      cfg.State.Driver,
		Path:        cfg.State.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "state")))
	if err != nil {
		return nil, err
	}
	a.store = store

	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}
	a.engine = engine

	a.runner = schedule.NewRunner(a.runCycle, log.With(logx.String("comp", "schedule")))
	return a, nil
}

// RunOnce executes a single polling cycle (the original invocation model:
// one stateless run per external trigger).
func (a *App) RunOnce(ctx context.Context) Summary {
	return a.cycle().Run(ctx)
}

// Start runs in daemon mode: cron-triggered cycles plus config hot reload.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgMgr.Get()
	spec, err := schedule.ParseSpec(cfg.Schedule)
	if err != nil {
		return err
	}
	if err := a.runner.Start(ctx, spec); err != nil {
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel

	sub := a.cfgMgr.Subscribe(1)
	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		_ = a.cfgMgr.Watch(wctx)
	}()
	go func() {
		defer a.watchWG.Done()
		defer a.cfgMgr.Unsubscribe(sub)
		for {
			select {
			case <-wctx.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(wctx, next)
			}
		}
	}()

	// Best-effort; no-op outside a Type=notify systemd unit.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	a.log.Info("started", logx.String("schedule", cfg.Schedule))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.runner.Stop()
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchWG.Wait()
		a.watchCancel = nil
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	_ = a.logSvc.Close()
	a.log.Info("stopped")
	return err
}

func (a *App) runCycle(ctx context.Context) {
	summary := a.cycle().Run(ctx)
	if !summary.OK {
		a.log.Warn("cycle failed", logx.String("error", summary.Error))
	}
}

func (a *App) cycle() *Cycle {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()
	return &Cycle{
		Feed:   a.feed,
		Store:  a.store,
		Sender: a.notif,
		Engine: engine,
		Log:    a.log.With(logx.String("comp", "cycle")),
	}
}

// applyConfig pushes a validated reload into the running services.
// Statestore driver/path and the telegram token are fixed at startup;
// changing those requires a restart.
func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})

	if feedCfg, err := feedConfig(cfg); err == nil {
		a.feed.Apply(feedCfg)
	}
	a.notif.Apply(notifierConfig(cfg))

	if engine, err := buildEngine(cfg); err == nil {
		a.mu.Lock()
		a.engine = engine
		a.mu.Unlock()
	}

	if spec, err := schedule.ParseSpec(cfg.Schedule); err == nil {
		if err := a.runner.Start(ctx, spec); err != nil {
			a.log.Warn("schedule restart failed", logx.Err(err))
		}
	}

	a.log.Info("config applied")
}

func buildEngine(cfg *config.Config) (*watch.Engine, error) {
	pattern, err := regexp.Compile(cfg.Watch.Route)
	if err != nil {
		return nil, err
	}
	departCD, err := config.ParseDurationField("watch.depart_cooldown", cfg.Watch.DepartCooldown)
	if err != nil {
		return nil, err
	}
	nearCD, err := config.ParseDurationField("watch.near_cooldown", cfg.Watch.NearCooldown)
	if err != nil {
		return nil, err
	}
	return watch.NewEngine(watch.Config{
		RoutePattern:   pattern,
		Line:           cfg.Watch.Line,
		RefLat:         cfg.Watch.RefLat,
		RefLon:         cfg.Watch.RefLon,
		RadiusMeters:   cfg.Watch.RadiusMeters,
		Landmark:       cfg.Watch.Landmark,
		DepartCooldown: departCD,
		NearCooldown:   nearCD,
	}), nil
}

func feedConfig(cfg *config.Config) (feed.Config, error) {
	timeout, err := config.ParseDurationField("feed.timeout", cfg.Feed.Timeout)
	if err != nil {
		return feed.Config{}, err
	}
	return feed.Config{
		Endpoint: cfg.Feed.Endpoint,
		Username: cfg.Feed.Username,
		Password: cfg.Feed.Password,
		Timeout:  timeout,
	}, nil
}

func notifierConfig(cfg *config.Config) notifier.Config {
	return notifier.Config{
		ChatID:     cfg.Telegram.ChatID,
		ThreadID:   cfg.Telegram.ThreadID,
		RatePerSec: cfg.Notifier.RatePerSec,
	}
}
