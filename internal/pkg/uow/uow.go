package uow

import "context"

// Transactor runs fn as one all-or-nothing unit of work. A ctx that already
// carries a unit of work is joined rather than nested, so an operation called
// from inside a larger transition commits or rolls back with it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
