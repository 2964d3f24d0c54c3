package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Privacy-conscious visitor record
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type GroupCount struct {
	Group string `json:"group"`
	Count int64  `json:"count"`
}

type QRCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	TotalReveals     int64           `json:"total_reveals"`
	RevealsByGroup   []GroupCount    `json:"reveals_by_group"`
	TotalQRDownloads int64           `json:"total_qr_downloads"`
	QRDownloads      []QRCount       `json:"qr_downloads"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
}

// Store persists visits, completed reveals and QR downloads in sqlite.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,  -- salted hash, never the raw IP
		user_agent TEXT,
		path TEXT,
		timestamp DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp)`,
	`CREATE TABLE IF NOT EXISTS reveal_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_name TEXT NOT NULL,
		session_id TEXT NOT NULL,
		completed_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS qr_downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		downloaded_at DATETIME NOT NULL
	)`,
}

// OpenStore opens (or creates) the database at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serialises writers anyway; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordVisit stores one page view.
func (s *Store) RecordVisit(ctx context.Context, hashedIP, userAgent, path string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, hashedIP, userAgent, path, at.UTC())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// RecordReveal stores a metric group that finished counting up.
func (s *Store) RecordReveal(ctx context.Context, group, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reveal_events (group_name, session_id, completed_at)
		VALUES (?, ?, ?)
	`, group, sessionID, at.UTC())
	if err != nil {
		return fmt.Errorf("record reveal: %w", err)
	}
	return nil
}

// RecordQRDownload stores one QR code request.
func (s *Store) RecordQRDownload(ctx context.Context, name string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO qr_downloads (name, downloaded_at) VALUES (?, ?)`, name, at.UTC())
	if err != nil {
		return fmt.Errorf("record qr download: %w", err)
	}
	return nil
}

// CleanupVisitors deletes visitor records older than cutoff.
func (s *Store) CleanupVisitors(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	return result.RowsAffected()
}

// RecentVisitors returns the newest visitor records.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// Stats builds the admin dashboard numbers relative to now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*AdminStats, error) {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := &AdminStats{}

	counts := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM visitors`, nil, &stats.TotalVisitors},
		{`SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil, &stats.UniqueVisitors},
		{`SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}, &stats.VisitorsToday},
		{`SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}, &stats.VisitorsThisWeek},
		{`SELECT COUNT(*) FROM reveal_events`, nil, &stats.TotalReveals},
		{`SELECT COUNT(*) FROM qr_downloads`, nil, &stats.TotalQRDownloads},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, COUNT(*) FROM reveal_events
		GROUP BY group_name ORDER BY COUNT(*) DESC, group_name
	`)
	if err != nil {
		return nil, fmt.Errorf("reveal stats: %w", err)
	}
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Group, &g.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan reveal stats: %w", err)
		}
		stats.RevealsByGroup = append(stats.RevealsByGroup, g)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) FROM qr_downloads
		GROUP BY name ORDER BY COUNT(*) DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("qr stats: %w", err)
	}
	for rows.Next() {
		var q QRCount
		if err := rows.Scan(&q.Name, &q.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan qr stats: %w", err)
		}
		stats.QRDownloads = append(stats.QRDownloads, q)
	}
	rows.Close()

	stats.RecentVisitors, err = s.RecentVisitors(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
