package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bolsawatch/internal/alerting"
	"bolsawatch/internal/config"
	"bolsawatch/internal/fetcher"
	"bolsawatch/internal/market"
	"bolsawatch/internal/scheduler"
	"bolsawatch/internal/storage"
)

// SnapshotPublisher receives the dashboard state produced by each cycle.
type SnapshotPublisher interface {
	Publish(snapshot market.Snapshot)
}

// Service orchestrates the fetch, append, reload, and render cycle.
type Service struct {
	scheduler *scheduler.Scheduler
	quotes    fetcher.QuoteFetcher
	store     storage.HistoryStore
	notifier  alerting.Notifier
	state     *alerting.State
	publisher SnapshotPublisher
	hours     market.Hours
	logger    zerolog.Logger

	threshold decimal.Decimal
	sound     bool
	autoMode  bool
	locker    storage.AdvisoryLocker
	lockKey   int64
}

// New constructs the monitoring service. The alert state is owned by the
// caller and shared across cycles of one session.
func New(cfg *config.Config, sched *scheduler.Scheduler, quotes fetcher.QuoteFetcher, store storage.HistoryStore, notifier alerting.Notifier, state *alerting.State, hours market.Hours, publisher SnapshotPublisher, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	if state == nil {
		state = alerting.NewState()
	}

	return &Service{
		scheduler: sched,
		quotes:    quotes,
		store:     store,
		notifier:  notifier,
		state:     state,
		publisher: publisher,
		hours:     hours,
		logger:    logger.With().Str("component", "service").Logger(),
		threshold: decimal.NewFromFloat(cfg.Alerting.ThresholdPct),
		sound:     cfg.Alerting.Sound,
		autoMode:  cfg.Refresh.Auto,
		locker:    locker,
		lockKey:   cfg.Database.AdvisoryLockKey,
	}
}

// SetPublisher wires the snapshot sink after construction. The dashboard
// needs the service for its clear action, so the two are tied together in
// opposite order.
func (s *Service) SetPublisher(publisher SnapshotPublisher) {
	s.publisher = publisher
}

// Run executes the refresh loop. With auto-refresh disabled, exactly one
// cycle runs and the call returns, waiting for external re-invocation.
func (s *Service) Run(ctx context.Context) error {
	if !s.autoMode {
		return s.Cycle(ctx, time.Now())
	}
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Cycle)
}

// Cycle 执行一次完整的抓取-持久化-渲染流程。
func (s *Service) Cycle(ctx context.Context, now time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeCycle(ctx, now)
}

func (s *Service) executeCycle(ctx context.Context, now time.Time) error {
	now = now.In(s.hours.Location())

	records, err := s.quotes.FetchInstruments(ctx)
	if err != nil {
		// Transport and API failures are equivalent here: skip persistence
		// and card rendering, surface the message, retry next cycle.
		s.publish(market.Snapshot{
			UpdatedAt:   now,
			MarketOpen:  s.hours.IsOpen(now),
			Err:         err.Error(),
			FiredAlerts: s.state.FiredIDs(),
		})
		return fmt.Errorf("fetch instruments: %w", err)
	}

	writeErr := s.appendObservations(ctx, records, now)

	history := s.store.LoadHistory(ctx)

	snapshot := market.Snapshot{
		UpdatedAt:  now,
		MarketOpen: s.hours.IsOpen(now),
	}
	if writeErr != nil {
		snapshot.Warning = writeErr.Error()
	}

	for _, record := range records {
		if record.NEMO == "" {
			continue
		}

		delta := market.ComputeDelta(history, record.NEMO)

		pct := decimal.Zero
		if delta.Computed {
			pct = delta.Pct
		}
		if event, fired := s.state.Evaluate(record.NEMO, pct, s.threshold); fired {
			s.dispatchAlert(ctx, event, record, now)
		}

		snapshot.Cards = append(snapshot.Cards, market.Card{
			NEMO:    record.NEMO,
			Price:   decimal.NewFromFloat(record.LastPrice),
			Delta:   delta,
			History: market.HistoryPoints(history, record.NEMO),
		})
	}

	snapshot.FiredAlerts = s.state.FiredIDs()
	s.publish(snapshot)

	s.logger.Info().
		Int("cards", len(snapshot.Cards)).
		Int("history_rows", len(history)).
		Bool("market_open", snapshot.MarketOpen).
		Msg("cycle rendered")
	return nil
}

// appendObservations is the read-modify-write against the shared history
// table: load everything, concatenate the new rows after it, rewrite. An
// empty or all-invalid record set leaves the table untouched. A write
// failure is returned so the snapshot can carry it as a warning; the cycle
// still renders from whatever was previously persisted.
func (s *Service) appendObservations(ctx context.Context, records []fetcher.Instrument, now time.Time) error {
	if len(records) == 0 {
		return nil
	}
	rows := market.BuildObservations(records, now)
	if len(rows) == 0 {
		return nil
	}

	current := s.store.LoadHistory(ctx)
	if err := s.store.ReplaceHistory(ctx, append(current, rows...)); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist observations")
		return err
	}
	return nil
}

func (s *Service) dispatchAlert(ctx context.Context, event alerting.Event, record fetcher.Instrument, now time.Time) {
	if s.notifier == nil {
		return
	}
	note := alerting.Notification{
		At:           now,
		NEMO:         event.NEMO,
		Direction:    event.Direction,
		DeltaPct:     event.DeltaPct,
		ThresholdPct: s.threshold,
		Price:        decimal.NewFromFloat(record.LastPrice),
		Sound:        s.sound,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("nemo", event.NEMO).Msg("failed to dispatch alert")
	}
}

// ClearAll wipes the persisted history and re-arms every alert.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.ClearHistory(ctx); err != nil {
		return err
	}
	s.state.Reset()
	s.logger.Info().Msg("history and alert state cleared")
	return nil
}

func (s *Service) publish(snapshot market.Snapshot) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(snapshot)
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
