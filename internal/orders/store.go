package orders

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("orders: not found")

	// ErrAlreadyPaid marks a duplicate PENDING->PAID attempt. Callers treat
	// it as success without publishing a second settlement event.
	ErrAlreadyPaid = errors.New("orders: already paid")

	// ErrNotPayable: the order is in a terminal non-PAID state.
	ErrNotPayable = errors.New("orders: not payable")
)

type Store interface {
	// CreateOrder persists the order, its line items with snapshots, and the
	// optional shipping record as one atomic write.
	CreateOrder(ctx context.Context, o Order, items []LineItem, ship *Shipping) error

	GetOrder(ctx context.Context, id string) (View, error)

	// MarkPaid is a guarded compare-and-set keyed on current status:
	// it flips PENDING->PAID and records the payment reference, or reports
	// ErrAlreadyPaid / ErrNotPayable / ErrNotFound without writing anything.
	// On success it returns the updated order and its stored line items.
	MarkPaid(ctx context.Context, orderID, paymentRef string) (Order, []LineItem, error)
}
