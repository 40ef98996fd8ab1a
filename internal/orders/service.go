package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/subapavel/samofujera/internal/catalog"
	"github.com/subapavel/samofujera/internal/settlement"
)

var (
	ErrEmptyCart       = errors.New("orders: empty cart")
	ErrInvalidQty      = errors.New("orders: invalid quantity")
	ErrNotPurchasable  = errors.New("orders: item not purchasable")
	ErrMissingCurrency = errors.New("orders: missing currency")
)

type ItemInput struct {
	ItemID    string `json:"item_id"`
	VariantID string `json:"variant_id,omitempty"`
	Qty       int    `json:"qty"`
}

// Service is the order ledger: system of record for amounts owed.
type Service struct {
	Store   Store
	Catalog catalog.Reader
	Bus     *settlement.Bus
}

// Create validates purchasability for every requested item, freezes prices
// and descriptive snapshots, and writes the whole order atomically. The total
// is computed exactly once here and never again.
func (s *Service) Create(ctx context.Context, buyerID, currency string, inputs []ItemInput, ship *Shipping) (View, error) {
	if len(inputs) == 0 {
		return View{}, ErrEmptyCart
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return View{}, ErrMissingCurrency
	}

	orderID := uuid.NewString()
	items := make([]LineItem, 0, len(inputs))
	total := 0
	for _, in := range inputs {
		if in.Qty <= 0 {
			return View{}, fmt.Errorf("%w: item %s", ErrInvalidQty, in.ItemID)
		}
		ci, err := s.Catalog.GetItem(ctx, in.ItemID)
		if errors.Is(err, catalog.ErrNotFound) {
			return View{}, fmt.Errorf("%w: item %s", ErrNotPurchasable, in.ItemID)
		}
		if err != nil {
			return View{}, err
		}
		if !ci.Purchasable {
			return View{}, fmt.Errorf("%w: item %s", ErrNotPurchasable, in.ItemID)
		}
		line := ci.PriceCents * in.Qty
		total += line
		items = append(items, LineItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ItemID:     in.ItemID,
			VariantID:  in.VariantID,
			Qty:        in.Qty,
			UnitCents:  ci.PriceCents,
			TotalCents: line,
			Snapshot: ItemSnapshot{
				SchemaVersion: SnapshotSchemaVersion,
				Title:         ci.Title,
				ItemType:      ci.ItemType,
				Thumbnail:     ci.Thumbnail,
			},
		})
	}

	o := Order{
		ID:         orderID,
		BuyerID:    buyerID,
		Status:     StatusPending,
		TotalCents: total,
		Currency:   currency,
	}
	if err := s.Store.CreateOrder(ctx, o, items, ship); err != nil {
		return View{}, err
	}
	return View{Order: o, Items: items, Shipping: ship}, nil
}

// MarkPaid flips the order PENDING->PAID and publishes a settlement event
// rebuilt from the stored snapshots, not from a fresh catalog read. A
// redelivered confirmation for an already-PAID order is a success no-op:
// the CAS refuses the write and no second event is published. We do not
// rely on the payment provider deduplicating its own notifications.
func (s *Service) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	o, items, err := s.Store.MarkPaid(ctx, orderID, paymentRef)
	if errors.Is(err, ErrAlreadyPaid) {
		log.Printf("order %s already paid, skipping settlement", orderID)
		return nil
	}
	if err != nil {
		return err
	}

	ev := settlement.OrderPaid{
		EventID:    uuid.NewString(),
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		TotalCents: o.TotalCents,
		Currency:   o.Currency,
		PaymentRef: o.PaymentRef,
		OccurredAt: time.Now().UTC(),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, settlement.Item{
			ItemID:    it.ItemID,
			Title:     it.Snapshot.Title,
			ItemType:  it.Snapshot.ItemType,
			Qty:       it.Qty,
			UnitCents: it.UnitCents,
		})
	}
	// At this point the PAID transaction has committed.
	s.Bus.Publish(ev)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	return s.Store.GetOrder(ctx, id)
}
