package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jackpot-alerts/internal/alerting"
	"jackpot-alerts/internal/api"
	"jackpot-alerts/internal/config"
	"jackpot-alerts/internal/fetcher"
	"jackpot-alerts/internal/scheduler"
	"jackpot-alerts/internal/service"
	"jackpot-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFeeds() []fetcher.Feed {
	pb := a.Config.Feeds.Powerball
	mm := a.Config.Feeds.MegaMillions

	return []fetcher.Feed{
		fetcher.NewPowerball(fetcher.PowerballOptions{
			URL:    pb.URL,
			Client: clientOptions(pb),
		}, a.Logger),
		fetcher.NewMegaMillions(fetcher.MegaMillionsOptions{
			URL:    mm.URL,
			Client: clientOptions(mm),
		}, a.Logger),
	}
}

func clientOptions(cfg config.FeedConfig) fetcher.ClientOptions {
	return fetcher.ClientOptions{
		Timeout:           cfg.Timeout,
		UserAgent:         cfg.UserAgent,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

func (a *App) newSender() alerting.Sender {
	cfg := a.Config.Email
	if !alerting.IsConfigured(cfg) {
		return nil
	}
	return alerting.NewMailSender(cfg.APIURL, cfg.APIKey, cfg.Timeout, a.Logger)
}

// openStore binds the configured state backend. The returned closer is never nil.
func (a *App) openStore(ctx context.Context) (storage.StateStore, func(), error) {
	switch a.Config.State.Backend {
	case config.BackendPostgres:
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendRedis:
		client, err := storage.NewRedisClient(ctx, a.Config.Redis)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedisStore(client, a.Config.Redis.KeyPrefix)
		return store, store.Close, nil

	case config.BackendMemory, "":
		a.Logger.Warn().Msg("state.backend is memory; crossing state is lost on restart")
		return storage.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", a.Config.State.Backend)
	}
}

func (a *App) newService(ctx context.Context) (*service.Service, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	sender := a.newSender()
	if sender == nil {
		a.Logger.Info().Msg("email not configured; notifications disabled")
	}
	return service.New(a.Config, a.newFeeds(), store, sender, a.Logger), closeStore, nil
}

// Run executes the long-running monitoring service: scheduled checks plus the HTTP surface.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, closeStore, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched, err := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		Cron:         a.Config.Scheduler.Cron,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx, svc.Tick)
	})
	if a.Config.HTTP.Addr != "" {
		server := api.NewServer(a.Config.HTTP, svc, a.Logger)
		g.Go(func() error {
			return server.Serve(gctx)
		})
	}

	a.Logger.Info().Msg("starting jackpot monitor")
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	a.Logger.Info().Msg("jackpot monitor stopped")
	return nil
}

// Check performs a single full run and waits for its notifications and persistence.
func (a *App) Check(ctx context.Context) error {
	svc, closeStore, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Background.Wait(); err != nil {
		a.Logger.Warn().Err(err).Str("run_id", report.RunID).Msg("background tasks finished with errors")
	}
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Feeds []string
}

// SimulateOptions configure the simulate-alert command. Amounts are in millions.
type SimulateOptions struct {
	Powerball            float64
	MegaMillions         float64
	PreviousPowerball    float64
	PreviousMegaMillions float64
}
