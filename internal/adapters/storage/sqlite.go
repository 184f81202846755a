package storage

// SQLite persistence for historical market data. Snapshots, order books,
// trades and resolutions land in their own tables; book levels, tags and
// metadata are stored as JSON blobs since nothing queries inside them.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/predsim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id       TEXT NOT NULL,
    platform        TEXT NOT NULL,
    timestamp       DATETIME NOT NULL,
    question        TEXT,
    yes_price       REAL NOT NULL,
    no_price        REAL NOT NULL,
    volume_24h      REAL NOT NULL DEFAULT 0,
    liquidity       REAL NOT NULL DEFAULT 0,
    resolution_date DATETIME,
    status          TEXT NOT NULL DEFAULT 'active',
    tags            TEXT,
    metadata        TEXT
);

CREATE TABLE IF NOT EXISTS orderbooks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id   TEXT NOT NULL,
    platform    TEXT NOT NULL,
    timestamp   DATETIME NOT NULL,
    bids        TEXT NOT NULL,
    asks        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    trade_id    TEXT PRIMARY KEY,
    market_id   TEXT NOT NULL,
    platform    TEXT NOT NULL,
    timestamp   DATETIME NOT NULL,
    side        TEXT NOT NULL,
    price       REAL NOT NULL,
    size        REAL NOT NULL,
    is_taker    INTEGER NOT NULL DEFAULT 1,
    fees        REAL NOT NULL DEFAULT 0,
    strategy    TEXT
);

CREATE TABLE IF NOT EXISTS resolutions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id   TEXT NOT NULL,
    platform    TEXT NOT NULL,
    timestamp   DATETIME NOT NULL,
    outcome     TEXT NOT NULL,
    question    TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_time     ON snapshots(timestamp);
CREATE INDEX IF NOT EXISTS idx_snapshots_market   ON snapshots(market_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_orderbooks_time    ON orderbooks(timestamp);
CREATE INDEX IF NOT EXISTS idx_trades_time        ON trades(timestamp);
CREATE INDEX IF NOT EXISTS idx_resolutions_time   ON resolutions(timestamp);
`

// SQLiteStore implements ports.DataStore using SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshots inserts a batch of market snapshots in one transaction.
func (s *SQLiteStore) SaveSnapshots(ctx context.Context, snapshots []domain.MarketSnapshot) error {
	return s.inTx(ctx, "SaveSnapshots", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO snapshots (market_id, platform, timestamp, question,
			                       yes_price, no_price, volume_24h, liquidity,
			                       resolution_date, status, tags, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range snapshots {
			var resDate *string
			if m.ResolutionDate != nil {
				t := m.ResolutionDate.UTC().Format(time.RFC3339)
				resDate = &t
			}
			tags, err := marshalOrNil(m.Tags)
			if err != nil {
				return err
			}
			meta, err := marshalOrNil(m.Metadata)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				m.MarketID, string(m.Platform), m.Timestamp.UTC().Format(time.RFC3339),
				m.Question, m.YesPrice, m.NoPrice, m.Volume24h, m.Liquidity,
				resDate, string(m.Status), tags, meta,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveOrderBooks inserts a batch of book snapshots in one transaction.
func (s *SQLiteStore) SaveOrderBooks(ctx context.Context, books []domain.OrderBookSnapshot) error {
	return s.inTx(ctx, "SaveOrderBooks", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO orderbooks (market_id, platform, timestamp, bids, asks)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range books {
			bids, err := json.Marshal(b.Bids)
			if err != nil {
				return err
			}
			asks, err := json.Marshal(b.Asks)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				b.MarketID, string(b.Platform), b.Timestamp.UTC().Format(time.RFC3339),
				string(bids), string(asks),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTrades inserts a batch of trades. Duplicate trade IDs are ignored so
// an overlapping collection window does not fail the whole batch.
func (s *SQLiteStore) SaveTrades(ctx context.Context, trades []domain.TradeEvent) error {
	return s.inTx(ctx, "SaveTrades", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO trades (trade_id, market_id, platform, timestamp,
			                              side, price, size, is_taker, fees, strategy)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range trades {
			if _, err := stmt.ExecContext(ctx,
				t.TradeID, t.MarketID, string(t.Platform),
				t.Timestamp.UTC().Format(time.RFC3339),
				string(t.Side), t.Price, t.Size, boolToInt(t.IsTaker), t.Fees, t.Strategy,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveResolutions inserts a batch of market resolutions.
func (s *SQLiteStore) SaveResolutions(ctx context.Context, resolutions []domain.MarketResolution) error {
	return s.inTx(ctx, "SaveResolutions", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO resolutions (market_id, platform, timestamp, outcome, question)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range resolutions {
			if _, err := stmt.ExecContext(ctx,
				r.MarketID, string(r.Platform), r.Timestamp.UTC().Format(time.RFC3339),
				string(r.Outcome), r.Question,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarketSnapshots returns one market's snapshots inside [from, to].
func (s *SQLiteStore) MarketSnapshots(ctx context.Context, marketID string, from, to time.Time) ([]domain.MarketSnapshot, error) {
	return s.querySnapshots(ctx, `
		SELECT market_id, platform, timestamp, question, yes_price, no_price,
		       volume_24h, liquidity, resolution_date, status, tags, metadata
		FROM snapshots
		WHERE market_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		marketID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// SnapshotsBetween returns all snapshots inside [from, to] for the given
// platforms, all platforms when the filter is empty.
func (s *SQLiteStore) SnapshotsBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.MarketSnapshot, error) {
	query := `
		SELECT market_id, platform, timestamp, question, yes_price, no_price,
		       volume_24h, liquidity, resolution_date, status, tags, metadata
		FROM snapshots
		WHERE timestamp >= ? AND timestamp <= ?` + platformFilter(platforms) + `
		ORDER BY timestamp ASC`
	return s.querySnapshots(ctx, query, timeRangeArgs(from, to, platforms)...)
}

// OrderBooksBetween mirrors SnapshotsBetween for book snapshots.
func (s *SQLiteStore) OrderBooksBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.OrderBookSnapshot, error) {
	query := `
		SELECT market_id, platform, timestamp, bids, asks
		FROM orderbooks
		WHERE timestamp >= ? AND timestamp <= ?` + platformFilter(platforms) + `
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, timeRangeArgs(from, to, platforms)...)
	if err != nil {
		return nil, fmt.Errorf("storage.OrderBooksBetween: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderBookSnapshot
	for rows.Next() {
		var b domain.OrderBookSnapshot
		var platform, ts, bids, asks string
		if err := rows.Scan(&b.MarketID, &platform, &ts, &bids, &asks); err != nil {
			return nil, fmt.Errorf("storage.OrderBooksBetween: scan: %w", err)
		}
		b.Platform = domain.Platform(platform)
		b.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if err := json.Unmarshal([]byte(bids), &b.Bids); err != nil {
			return nil, fmt.Errorf("storage.OrderBooksBetween: decode bids: %w", err)
		}
		if err := json.Unmarshal([]byte(asks), &b.Asks); err != nil {
			return nil, fmt.Errorf("storage.OrderBooksBetween: decode asks: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ResolutionsBetween mirrors SnapshotsBetween for resolutions.
func (s *SQLiteStore) ResolutionsBetween(ctx context.Context, from, to time.Time, platforms []domain.Platform) ([]domain.MarketResolution, error) {
	query := `
		SELECT market_id, platform, timestamp, outcome, question
		FROM resolutions
		WHERE timestamp >= ? AND timestamp <= ?` + platformFilter(platforms) + `
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, timeRangeArgs(from, to, platforms)...)
	if err != nil {
		return nil, fmt.Errorf("storage.ResolutionsBetween: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketResolution
	for rows.Next() {
		var r domain.MarketResolution
		var platform, ts, outcome string
		var question sql.NullString
		if err := rows.Scan(&r.MarketID, &platform, &ts, &outcome, &question); err != nil {
			return nil, fmt.Errorf("storage.ResolutionsBetween: scan: %w", err)
		}
		r.Platform = domain.Platform(platform)
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		r.Outcome = domain.ResolutionOutcome(outcome)
		if question.Valid {
			r.Question = question.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Trades returns stored trades inside [from, to], oldest first.
func (s *SQLiteStore) Trades(ctx context.Context, from, to time.Time) ([]domain.TradeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, market_id, platform, timestamp, side, price, size,
		       is_taker, fees, strategy
		FROM trades
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeEvent
	for rows.Next() {
		var t domain.TradeEvent
		var platform, ts, side string
		var isTaker int
		var strategy sql.NullString
		if err := rows.Scan(&t.TradeID, &t.MarketID, &platform, &ts, &side,
			&t.Price, &t.Size, &isTaker, &t.Fees, &strategy); err != nil {
			return nil, fmt.Errorf("storage.Trades: scan: %w", err)
		}
		t.Platform = domain.Platform(platform)
		t.Timestamp, _ = time.Parse(time.RFC3339, ts)
		t.Side = domain.OrderSide(side)
		t.IsTaker = isTaker != 0
		if strategy.Valid {
			t.Strategy = strategy.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) querySnapshots(ctx context.Context, query string, args ...any) ([]domain.MarketSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.querySnapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketSnapshot
	for rows.Next() {
		var m domain.MarketSnapshot
		var platform, ts, status string
		var question, resDate, tags, meta sql.NullString
		if err := rows.Scan(&m.MarketID, &platform, &ts, &question,
			&m.YesPrice, &m.NoPrice, &m.Volume24h, &m.Liquidity,
			&resDate, &status, &tags, &meta); err != nil {
			return nil, fmt.Errorf("storage.querySnapshots: scan: %w", err)
		}
		m.Platform = domain.Platform(platform)
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		m.Status = domain.MarketStatus(status)
		if question.Valid {
			m.Question = question.String
		}
		if resDate.Valid {
			t, err := time.Parse(time.RFC3339, resDate.String)
			if err == nil {
				m.ResolutionDate = &t
			}
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &m.Tags); err != nil {
				return nil, fmt.Errorf("storage.querySnapshots: decode tags: %w", err)
			}
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("storage.querySnapshots: decode metadata: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("storage.%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.%s: commit: %w", op, err)
	}
	return nil
}

// platformFilter builds the optional AND platform IN (...) clause.
func platformFilter(platforms []domain.Platform) string {
	if len(platforms) == 0 {
		return ""
	}
	return " AND platform IN (?" + strings.Repeat(", ?", len(platforms)-1) + ")"
}

func timeRangeArgs(from, to time.Time, platforms []domain.Platform) []any {
	args := []any{from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)}
	for _, p := range platforms {
		args = append(args, string(p))
	}
	return args
}

func marshalOrNil(v any) (*string, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(t) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
