package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver for local archives

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	pingTimeout            = 5 * time.Second
)

// Store reads event relations from a SQL event warehouse. Driver is either
// "postgres" or "sqlite3"; queries use bindvar rebinding so both work.
type Store struct {
	db              *sqlx.DB
	conversionEvent string
	logger          Logger
}

// NewStore opens the warehouse connection and verifies it with a ping.
func NewStore(cfg config.DatabaseConfig, conversionEvent string, logger Logger) (*Store, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open event warehouse: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping event warehouse: %w", err)
	}

	return &Store{db: db, conversionEvent: conversionEvent, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// FunnelEvents reads the full event relation for the date range.
func (s *Store) FunnelEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	query := s.db.Rebind(`
		SELECT user_id, session_id, event_name, page_path, source, medium, event_ts,
		       COALESCE(device_category, '') AS device_category,
		       COALESCE(country, '') AS country,
		       COALESCE(engagement_ms, 0) AS engagement_ms
		FROM events
		WHERE event_ts >= ? AND event_ts <= ?
		ORDER BY user_id, event_ts`)

	var events []domain.Event
	if err := s.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("select funnel events: %w", err)
	}

	s.logger.Debug("funnel events loaded from warehouse", "rows", len(events))
	return events, nil
}

// PageSequences reads the page-view relation for the date range.
func (s *Store) PageSequences(ctx context.Context, from, to time.Time) ([]domain.PageView, error) {
	query := s.db.Rebind(`
		SELECT user_id, session_id, page_path, event_ts
		FROM events
		WHERE event_name = 'page_view' AND event_ts >= ? AND event_ts <= ?
		ORDER BY user_id, event_ts`)

	var views []domain.PageView
	if err := s.db.SelectContext(ctx, &views, query, from, to); err != nil {
		return nil, fmt.Errorf("select page sequences: %w", err)
	}
	return views, nil
}

// ConversionEvents reads conversion-event occurrences for the date range.
func (s *Store) ConversionEvents(ctx context.Context, from, to time.Time) ([]domain.ConversionEvent, error) {
	query := s.db.Rebind(`
		SELECT user_id, session_id, event_name, page_path, source, medium, event_ts
		FROM events
		WHERE event_name = ? AND event_ts >= ? AND event_ts <= ?
		ORDER BY user_id, event_ts`)

	var out []domain.ConversionEvent
	if err := s.db.SelectContext(ctx, &out, query, s.conversionEvent, from, to); err != nil {
		return nil, fmt.Errorf("select conversion events: %w", err)
	}
	return out, nil
}
