package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm plus a callback that flags spans of
// queries slower than slowThreshold. Query variables are never recorded.
func RegisterDBTracing(db *gorm.DB, dbSystem string, slowThreshold time.Duration, logger *zap.Logger) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSpan(tx, slowThreshold) }

	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("atency:timing_before_create", before),
		cb.Query().Before("gorm:query").Register("atency:timing_before_query", before),
		cb.Update().Before("gorm:update").Register("atency:timing_before_update", before),
		cb.Row().Before("gorm:row").Register("atency:timing_before_row", before),
		cb.Create().After("gorm:create").Register("atency:timing_after_create", after),
		cb.Query().After("gorm:query").Register("atency:timing_after_query", after),
		cb.Update().After("gorm:update").Register("atency:timing_after_update", after),
		cb.Row().After("gorm:row").Register("atency:timing_after_row", after),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", dbSystem),
		zap.Duration("slow_query_threshold", slowThreshold),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slowThreshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > slowThreshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
