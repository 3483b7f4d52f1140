package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactionManager implements shared.TransactionManager. The open
// transaction travels in the context so repositories join it.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager for db
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn in a transaction. A call nested inside another
// WithinTransaction joins the outer transaction.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
