package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the GORM tracing plugin
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound values in db.statement
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns tracing off with values stripped
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "dinarbooks",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus timing callbacks that mark
// statements slower than the threshold on their span
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	return registerDBTracing(db, cfg, logger, newSlowQueryCallbacks(cfg.SlowQueryThresh))
}

func registerDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger, slow *slowQueryCallbacks) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	// The timing callbacks go in first so their after hook runs while the
	// otelgorm span is still open.
	if err := slow.register(db); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type slowQueryCallbacks struct {
	threshold time.Duration
	now       func() time.Time
}

func newSlowQueryCallbacks(threshold time.Duration) *slowQueryCallbacks {
	return &slowQueryCallbacks{threshold: threshold, now: time.Now}
}

func (c *slowQueryCallbacks) register(db *gorm.DB) error {
	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("dinar_timing:before_create", c.before) },
		func() error { return cb.Query().Before("gorm:query").Register("dinar_timing:before_query", c.before) },
		func() error { return cb.Update().Before("gorm:update").Register("dinar_timing:before_update", c.before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("dinar_timing:before_delete", c.before) },
		func() error { return cb.Row().Before("gorm:row").Register("dinar_timing:before_row", c.before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("dinar_timing:before_raw", c.before) },
		func() error { return cb.Create().After("gorm:create").Register("dinar_timing:after_create", c.after) },
		func() error { return cb.Query().After("gorm:query").Register("dinar_timing:after_query", c.after) },
		func() error { return cb.Update().After("gorm:update").Register("dinar_timing:after_update", c.after) },
		func() error { return cb.Delete().After("gorm:delete").Register("dinar_timing:after_delete", c.after) },
		func() error { return cb.Row().After("gorm:row").Register("dinar_timing:after_row", c.after) },
		func() error { return cb.Raw().After("gorm:raw").Register("dinar_timing:after_raw", c.after) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *slowQueryCallbacks) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, c.now())
	}
}

func (c *slowQueryCallbacks) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := c.now().Sub(start); elapsed > c.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", c.threshold.Milliseconds()),
		))
	}
}
