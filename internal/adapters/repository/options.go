package repository

import (
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore, *gorm.Config)

// WithLocation sets the time zone events are bucketed into days with.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLiteStore, _ *gorm.Config) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithGormLogger replaces the silent gorm logger, e.g. to trace SQL.
func WithGormLogger(l gormlogger.Interface) Option {
	return func(_ *SQLiteStore, cfg *gorm.Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}
