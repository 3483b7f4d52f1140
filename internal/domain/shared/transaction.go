package shared

import "context"

// TransactionManager runs fn inside a single unit of work. Repositories
// called with the ctx passed to fn join that transaction. Returning an error
// from fn rolls the transaction back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
