package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"AstroTransits/internal/domain/models"
	domrepo "AstroTransits/internal/domain/repository"
	pkgch "AstroTransits/pkg/clickhouse"
	applogger "AstroTransits/pkg/logger"
)

const DefaultEventsTable = "transit_events"

const insertColumns = "id, kind, natal, date, days, lat, lng, orb, match_count, matches, computed_at"

// CHEventStore implements EventStore backed by ClickHouse.
type CHEventStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHEventStore(ch *pkgch.Client, table string) *CHEventStore {
	return newCHEventStore(ch.DB(), table)
}

func newCHEventStore(db *sql.DB, table string) *CHEventStore {
	if table == "" {
		table = DefaultEventsTable
	}
	return &CHEventStore{db: db, table: table, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHEventStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Schema returns the DDL for the events table.
func (s *CHEventStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id          String,
            kind        LowCardinality(String),
            natal       String,
            date        String,
            days        UInt32,
            lat         Float64,
            lng         Float64,
            orb         Float64,
            match_count UInt32,
            matches     String,
            computed_at DateTime64(3, 'UTC')
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(computed_at)
        ORDER BY (natal, computed_at, id)
    `, s.table)}
}

func (s *CHEventStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.l.Error("clickhouse init schema error", applogger.String("table", s.table), applogger.Error(err))
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *CHEventStore) Store(ctx context.Context, e *models.TransitEvent) error {
	return s.StoreBatch(ctx, []*models.TransitEvent{e})
}

func (s *CHEventStore) StoreBatch(ctx context.Context, events []*models.TransitEvent) error {
	if len(events) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		args := make([]interface{}, 0, (end-start)*11)
		n := 0
		for _, e := range events[start:end] {
			if e == nil || e.ID == "" {
				continue
			}
			row, err := eventArgs(e)
			if err != nil {
				return err
			}
			args = append(args, row...)
			n++
		}
		if n == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, insertQuery(s.table, n), args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", n),
				applogger.Error(err),
			)
			return fmt.Errorf("insert events: %w", err)
		}
	}
	return nil
}

// Recent returns the latest events for natal, newest first.
func (s *CHEventStore) Recent(ctx context.Context, natal string, limit int) ([]models.TransitEvent, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE natal = ?
        ORDER BY computed_at DESC
        LIMIT ?
    `, insertColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, natal, limit)
	if err != nil {
		s.l.Error("clickhouse recent query error",
			applogger.String("table", s.table),
			applogger.String("natal", natal),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	out := make([]models.TransitEvent, 0, limit)
	for rows.Next() {
		var (
			e          models.TransitEvent
			kind       string
			days, cnt  uint32
			matches    string
			computedAt time.Time
		)
		if err := rows.Scan(&e.ID, &kind, &e.Natal, &e.Date, &days, &e.Latitude, &e.Longitude, &e.Orb, &cnt, &matches, &computedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.Days = int(days)
		e.MatchCount = int(cnt)
		e.ComputedAt = computedAt.UTC()
		if e.Matches, err = decodeMatches(matches); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHEventStore) Close() error { return nil }

func insertQuery(table string, rows int) string {
	values := make([]string, rows)
	for i := range values {
		values[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, insertColumns, strings.Join(values, ","))
}

func eventArgs(e *models.TransitEvent) ([]interface{}, error) {
	matches, err := encodeMatches(e.Matches)
	if err != nil {
		return nil, err
	}
	computedAt := e.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}
	return []interface{}{
		e.ID,
		string(e.Kind),
		e.Natal,
		e.Date,
		uint32(e.Days),
		e.Latitude,
		e.Longitude,
		e.Orb,
		uint32(e.MatchCount),
		matches,
		computedAt.UTC(),
	}, nil
}

func encodeMatches(m []models.AspectMatch) (string, error) {
	if len(m) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode matches: %w", err)
	}
	return string(b), nil
}

func decodeMatches(s string) ([]models.AspectMatch, error) {
	if s == "" {
		return nil, nil
	}
	var m []models.AspectMatch
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return m, nil
}

var _ domrepo.EventStore = (*CHEventStore)(nil)
