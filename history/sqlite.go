package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/trend"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	subject     TEXT    NOT NULL,
	as_of       INTEGER NOT NULL,
	score       REAL    NOT NULL,
	category    TEXT    NOT NULL,
	confidence  REAL    NOT NULL,
	key_factors TEXT    NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_snapshots_subject ON snapshots(subject, as_of);
`

// SQLiteRepository stores snapshots in a single table. Timestamps are kept as
// Unix nanoseconds in UTC.
type SQLiteRepository struct {
	db    *sql.DB
	limit int
}

// OpenSQLiteRepository opens (or creates) the database file at path.
func OpenSQLiteRepository(ctx context.Context, path string, limit int) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening sqlite: %w", err)
	}
	// one writer at a time; also keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db, limit: retention(limit)}, nil
}

func (s *SQLiteRepository) Get(ctx context.Context, subject string, limit int) (*trend.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT as_of, score, category, confidence, key_factors FROM snapshots
		 WHERE subject = ? ORDER BY as_of DESC, id DESC LIMIT ?`,
		subject, window(limit, s.limit))
	if err != nil {
		return nil, fmt.Errorf("history: querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []trend.Snapshot
	for rows.Next() {
		var (
			asOf     int64
			snap     trend.Snapshot
			category string
			factors  string
		)
		if err := rows.Scan(&asOf, &snap.Score, &category, &snap.Confidence, &factors); err != nil {
			return nil, fmt.Errorf("history: scanning snapshot: %w", err)
		}
		snap.AsOf = time.Unix(0, asOf).UTC()
		snap.Category = plugin.Category(category)
		if err := json.Unmarshal([]byte(factors), &snap.KeyFactors); err != nil {
			return nil, fmt.Errorf("history: decoding key factors: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: reading snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}

	series := trend.NewSeries(subject, s.limit)
	for i := len(snaps) - 1; i >= 0; i-- {
		series.Snapshots = append(series.Snapshots, snaps[i])
	}
	return series, nil
}

func (s *SQLiteRepository) Append(ctx context.Context, subject string, snap trend.Snapshot) error {
	factors, err := json.Marshal(snap.KeyFactors)
	if err != nil {
		return fmt.Errorf("history: encoding key factors: %w", err)
	}
	if snap.KeyFactors == nil {
		factors = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (subject, as_of, score, category, confidence, key_factors) VALUES (?, ?, ?, ?, ?, ?)`,
		subject, snap.AsOf.UTC().UnixNano(), snap.Score, string(snap.Category), snap.Confidence, string(factors))
	if err != nil {
		return fmt.Errorf("history: inserting snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE subject = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE subject = ? ORDER BY as_of DESC, id DESC LIMIT ?)`,
		subject, subject, s.limit)
	if err != nil {
		return fmt.Errorf("history: evicting snapshots: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}
