package database

import (
	"time"

	"github.com/pageza/foodgram/backend/internal/logger"
	gormlogger "gorm.io/gorm/logger"
)

type zapWriter struct {
	log *logger.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(format, args...)
}

// NewGormLogger routes gorm's slow-query and error output through zap.
func NewGormLogger(log *logger.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(zapWriter{log: log.With("component", "gorm")}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
