package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

// Column types stay textual to match the canonical sheet schema: coercion
// happens on load, and an unparsable numeric becomes missing, not an error.
const (
	ensureSchemaSQL = `CREATE TABLE IF NOT EXISTS observations (
        fecha   TEXT NOT NULL,
        nemo    TEXT NOT NULL,
        precio  TEXT,
        var_pct TEXT
    );`

	loadHistorySQL = `SELECT fecha, nemo, precio, var_pct FROM observations;`

	insertObservationSQL = `INSERT INTO observations (fecha, nemo, precio, var_pct)
    VALUES ($1, $2, $3, $4);`

	clearHistorySQL = `DELETE FROM observations;`

	countObservationsSQL = `SELECT COUNT(*) FROM observations;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// HistoryStore defines operations on the append-only observation log.
type HistoryStore interface {
	LoadHistory(ctx context.Context) []Observation
	ReplaceHistory(ctx context.Context, rows []Observation) error
	ClearHistory(ctx context.Context) error
	CountObservations(ctx context.Context) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store persists observation history in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	loc    *time.Location
	logger zerolog.Logger
}

// NewStore wires a pgx pool into a Store. Timestamps are rendered and parsed
// in loc, the exchange's wall-clock zone.
func NewStore(pool *pgxpool.Pool, loc *time.Location, logger zerolog.Logger) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		pool:   pool,
		loc:    loc,
		logger: logger.With().Str("component", "history_store").Logger(),
	}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the observations table when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, ensureSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure observations schema: %w", execErr)
	}
	return nil
}

// LoadHistory reads the full observation table, sorted ascending by
// timestamp. It fails soft: any read error, missing table, or schema mismatch
// yields an empty history. The condition is only logged, never surfaced.
func (s *Store) LoadHistory(ctx context.Context) []Observation {
	pool, err := s.getPool()
	if err != nil {
		s.logger.Warn().Err(err).Msg("history load degraded to empty")
		return nil
	}

	rows, queryErr := pool.Query(ctx, loadHistorySQL)
	if queryErr != nil {
		s.logger.Warn().Err(queryErr).Msg("history load degraded to empty")
		return nil
	}
	defer rows.Close()

	history := make([]Observation, 0)
	for rows.Next() {
		var fechaStr, nemo string
		var precioStr, varStr *string
		if scanErr := rows.Scan(&fechaStr, &nemo, &precioStr, &varStr); scanErr != nil {
			s.logger.Warn().Err(scanErr).Msg("history load degraded to empty")
			return nil
		}

		fecha, parseErr := time.ParseInLocation(FechaLayout, fechaStr, s.loc)
		if parseErr != nil {
			s.logger.Warn().Err(parseErr).Str("fecha", fechaStr).Msg("history load degraded to empty")
			return nil
		}

		history = append(history, Observation{
			Fecha:  fecha,
			NEMO:   nemo,
			Precio: coerceDecimal(precioStr),
			Var:    coerceDecimal(varStr),
		})
	}
	if rows.Err() != nil {
		s.logger.Warn().Err(rows.Err()).Msg("history load degraded to empty")
		return nil
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Fecha.Before(history[j].Fecha)
	})
	return history
}

// ReplaceHistory rewrites the table wholesale: the caller passes the fully
// concatenated history. Last writer wins; a single active writer is assumed.
func (s *Store) ReplaceHistory(ctx context.Context, observations []Observation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(clearHistorySQL)
	for _, obs := range observations {
		batch.Queue(insertObservationSQL,
			obs.Fecha.In(s.loc).Format(FechaLayout),
			obs.NEMO,
			decimalText(obs.Precio),
			decimalText(obs.Var),
		)
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write %q table (check the table exists and the role has INSERT/DELETE): %w", ObservationsTable, err)
	}
	return nil
}

// ClearHistory wipes all observation rows, keeping the schema.
func (s *Store) ClearHistory(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, clearHistorySQL); execErr != nil {
		return fmt.Errorf("clear %q table (check the role has DELETE): %w", ObservationsTable, execErr)
	}
	return nil
}

// CountObservations counts stored rows.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

func coerceDecimal(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

func decimalText(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

var _ HistoryStore = (*Store)(nil)
var _ AdvisoryLocker = (*Store)(nil)
