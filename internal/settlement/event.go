// Package settlement decouples "payment confirmed" from everything that
// happens because of it. The ledger publishes an OrderPaid event strictly
// after the PAID transaction commits; subscribers (entitlement granting, the
// Kafka mirror) run asynchronously and never participate in that transaction.
package settlement

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPaid = "OrderPaid"

	TopicOrderPaid = "billing.order.paid"
)

// Envelope is the wire form used on the Kafka mirror topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// Item is a line item as it stood when the order was placed. Values come
// from the ledger's stored snapshots, never from a live catalog read.
type Item struct {
	ItemID    string `json:"item_id"`
	Title     string `json:"title"`
	ItemType  string `json:"item_type"`
	Qty       int    `json:"qty"`
	UnitCents int    `json:"unit_cents"`
}

type OrderPaid struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	TotalCents int       `json:"total_cents"`
	Currency   string    `json:"currency"`
	PaymentRef string    `json:"payment_ref"`
	Items      []Item    `json:"items"`
	OccurredAt time.Time `json:"occurred_at"`
}

func PartitionKey(orderID string) []byte { return []byte(orderID) }
