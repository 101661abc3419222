package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/metrics"
)

const maxRecentLimit = 1000

// eventRow is the events table.
type eventRow struct {
	ID           uint      `gorm:"primaryKey"`
	EventID      string    `gorm:"uniqueIndex;size:64;not null"`
	StartedAt    time.Time `gorm:"index;not null"`
	Day          string    `gorm:"index;size:10;not null"`
	Rate         int
	CaptureDelay int
	CreatedAt    time.Time
}

func (eventRow) TableName() string { return "events" }

func (r eventRow) record() model.EventRecord {
	return model.EventRecord{
		EventID:      r.EventID,
		StartedAt:    r.StartedAt,
		Rate:         r.Rate,
		CaptureDelay: r.CaptureDelay,
	}
}

// SQLiteStore implements EventLog on a sqlite file through gorm.
type SQLiteStore struct {
	db  *gorm.DB
	loc *time.Location
}

// OpenSQLite opens (and migrates) the event log at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{loc: time.Local}
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(s, cfg)
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create event db directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one connection: sqlite serializes writers and :memory: is per connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&eventRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate events table: %w", err)
	}
	s.db = db
	return s, nil
}

// Record stores rec; an existing event id is left untouched.
func (s *SQLiteStore) Record(ctx context.Context, rec model.EventRecord) error {
	row := eventRow{
		EventID:      rec.EventID,
		StartedAt:    rec.StartedAt,
		Day:          rec.StartedAt.In(s.loc).Format(dayLayout),
		Rate:         rec.Rate,
		CaptureDelay: rec.CaptureDelay,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		metrics.RecordErrorByComponent("repository", "insert")
		return fmt.Errorf("insert event %s: %w", rec.EventID, err)
	}
	return nil
}

// Get returns the event with the given id.
func (s *SQLiteStore) Get(ctx context.Context, eventID string) (model.EventRecord, error) {
	var row eventRow
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.EventRecord{}, ErrNotFound
	}
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return row.record(), nil
}

// Recent returns the newest events first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.EventRecord, error) {
	if limit <= 0 || limit > maxRecentLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	out := make([]model.EventRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

// DailyCounts aggregates events per day and zero-fills the gaps.
func (s *SQLiteStore) DailyCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error) {
	fromDay := from.In(s.loc).Format(dayLayout)
	toDay := to.In(s.loc).Format(dayLayout)
	if toDay < fromDay {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, fromDay, toDay)
	}

	var rows []struct {
		Day   string
		Count int
	}
	err := s.db.WithContext(ctx).Model(&eventRow{}).
		Select("day, COUNT(*) AS count").
		Where("day BETWEEN ? AND ?", fromDay, toDay).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.Count
	}
	return FillDays(from, to, s.loc, counts), nil
}

// Count returns the number of stored events.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&eventRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
