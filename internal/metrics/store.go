package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
	"foodgram/internal/shopping"
)

const (
	ChannelHTTP     = "http"
	ChannelTelegram = "telegram"
	ChannelCLI      = "cli"
)

// RenderMetric records a single shopping list rendering.
type RenderMetric struct {
	Channel   string    `db:"channel"`
	UserID    int64     `db:"user_id"`
	Items     int       `db:"items"`
	Pages     int       `db:"pages"`
	LatencyMS int64     `db:"latency_ms"`
	Timestamp time.Time `db:"created_at"`
}

// Store handles persistence of render metrics.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RenderMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	ds := s.db.Dialect.Insert("render_metrics").Rows(goqu.Record{
		"channel":    m.Channel,
		"user_id":    m.UserID,
		"items":      m.Items,
		"pages":      m.Pages,
		"latency_ms": m.LatencyMS,
		"created_at": ts.UTC(),
	})
	if _, err := s.db.Exec(ctx, s.db.SQL, ds.Prepared(true)); err != nil {
		return fmt.Errorf("failed to record render metric: %w", err)
	}
	return nil
}

// FromDocument builds the metric for a rendered shopping list.
func FromDocument(channel string, userID int64, doc *shopping.Document, latency time.Duration) RenderMetric {
	return RenderMetric{
		Channel:   channel,
		UserID:    userID,
		Items:     doc.Items,
		Pages:     doc.Pages,
		LatencyMS: latency.Milliseconds(),
	}
}

// DailyUsage represents render totals for a single day.
type DailyUsage struct {
	Date    string `json:"date"`
	Renders int    `json:"renders"`
	Items   int    `json:"items"`
	Pages   int    `json:"pages"`
}

// GetDailyUsage retrieves usage for the last N days, newest day first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := s.now().AddDate(0, 0, -days)

	var rows []RenderMetric
	ds := s.db.Dialect.From("render_metrics").
		Select("channel", "user_id", "items", "pages", "latency_ms", "created_at").
		Where(goqu.I("created_at").Gte(since))
	if err := s.db.Select(ctx, s.db.SQL, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to load render metrics: %w", err)
	}

	// Grouped here rather than in SQL: date functions differ per dialect.
	byDay := make(map[string]*DailyUsage)
	for _, r := range rows {
		day := r.Timestamp.UTC().Format("2006-01-02")
		u, ok := byDay[day]
		if !ok {
			u = &DailyUsage{Date: day}
			byDay[day] = u
		}
		u.Renders++
		u.Items += r.Items
		u.Pages += r.Pages
	}

	results := make([]DailyUsage, 0, len(byDay))
	for _, u := range byDay {
		results = append(results, *u)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date > results[j].Date })
	return results, nil
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().AddDate(0, 0, -olderThanDays)
	ds := s.db.Dialect.Delete("render_metrics").Where(goqu.I("created_at").Lt(threshold))
	res, err := s.db.Exec(ctx, s.db.SQL, ds.Prepared(true))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up render metrics: %w", err)
	}
	return res.RowsAffected()
}
