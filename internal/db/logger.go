package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter adapts zerolog to gorm's logging interface. gorm only calls
// it for entries at or above its own log mode, so every line is written at
// one level.
type gormWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

// Printf implements gormlogger.Writer.
func (w gormWriter) Printf(format string, args ...interface{}) {
	msg := strings.Join(strings.Fields(fmt.Sprintf(format, args...)), " ")
	w.log.WithLevel(w.level).Msg(msg)
}

func newGormLogger(environment string, log zerolog.Logger) gormlogger.Interface {
	mode, level := gormlogger.Warn, zerolog.WarnLevel
	if environment == "development" {
		mode, level = gormlogger.Info, zerolog.DebugLevel
	}
	return gormlogger.New(gormWriter{
		log:   log.With().Str("component", "gorm").Logger(),
		level: level,
	}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  mode,
		IgnoreRecordNotFoundError: true,
	})
}
