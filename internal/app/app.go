package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bolsawatch/internal/alerting"
	"bolsawatch/internal/config"
	"bolsawatch/internal/dashboard"
	"bolsawatch/internal/fetcher"
	"bolsawatch/internal/market"
	"bolsawatch/internal/scheduler"
	"bolsawatch/internal/service"
	"bolsawatch/internal/storage"
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

func (a *App) newFetcher() fetcher.QuoteFetcher {
	return fetcher.NewInstruments(fetcher.Options{
		BaseURL:         a.Config.API.BaseURL,
		SubscriptionKey: a.Config.API.SubscriptionKey,
		Timeout:         a.Config.API.RequestTimeout,
		UserAgent:       a.Config.API.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) marketHours() (market.Hours, error) {
	return market.ParseHours(a.Config.Market.Timezone, a.Config.Market.OpenAt, a.Config.Market.CloseAt)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(a.Config.Market.Timezone)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := storage.NewStore(pool, loc, a.Logger)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service plus the dashboard.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.Config.API.SubscriptionKey == "" {
		a.Logger.Warn().Msg("api.subscription_key not configured; every cycle will fail until it is set")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	hours, err := a.marketHours()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval: a.Config.RefreshInterval(),
	}, a.Logger)

	var historyStore storage.HistoryStore
	if store != nil {
		historyStore = store
	} else {
		historyStore = noopStore{}
	}

	state := alerting.NewState()
	svc := service.New(a.Config, sched, a.newFetcher(), historyStore, a.newNotifier(), state, hours, nil, a.Logger)

	var dash *dashboard.Server
	dashErr := make(chan error, 1)
	if a.Config.Dashboard.Enabled {
		dash = dashboard.NewServer(a.Config.Dashboard, svc, a.Logger)
		svc.SetPublisher(dash)
		go func() {
			// Logged here too: with auto-refresh on, nobody reads dashErr
			// while the refresh loop runs, and a port clash would otherwise
			// die silently.
			err := dash.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Str("listen", a.Config.Dashboard.Listen).Msg("dashboard server failed")
			}
			dashErr <- err
		}()
	}

	a.Logger.Info().
		Str("api_key", a.Config.RedactedKey()).
		Bool("auto_refresh", a.Config.Refresh.Auto).
		Int("interval_minutes", a.Config.Refresh.IntervalMinutes).
		Msg("starting monitor")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("refresh loop terminated with error")
	}

	// With auto-refresh off the loop returns after one cycle; keep the
	// dashboard alive until the operator stops the process.
	if dash != nil && ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case err := <-dashErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
	}

	a.Logger.Info().Msg("monitor stopped")
	return nil
}

// noopStore stands in when no database is configured: loads are empty and
// writes vanish, so the dashboard still renders live prices.
type noopStore struct{}

func (noopStore) LoadHistory(ctx context.Context) []storage.Observation { return nil }

func (noopStore) ReplaceHistory(ctx context.Context, _ []storage.Observation) error { return nil }

func (noopStore) ClearHistory(ctx context.Context) error { return nil }

func (noopStore) CountObservations(ctx context.Context) (int64, error) { return 0, nil }

// ExportOptions hold parameters for exporting historical observations.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	NEMO      string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
