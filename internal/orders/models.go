package orders

import "time"

// SnapshotSchemaVersion tags every stored snapshot so readers can detect
// shape drift instead of trusting an untyped blob.
const SnapshotSchemaVersion = 1

// ItemSnapshot is the write-once descriptive copy of a catalog item taken at
// purchase time. Later edits or deletion of the source item never touch it.
type ItemSnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	Title         string `json:"title"`
	ItemType      string `json:"item_type"`
	Thumbnail     string `json:"thumbnail,omitempty"`
}

type Order struct {
	ID         string
	BuyerID    string
	Status     Status
	TotalCents int
	Currency   string
	PaymentRef string // external payment reference, set on PAID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type LineItem struct {
	ID         string
	OrderID    string
	ItemID     string
	VariantID  string
	Qty        int
	UnitCents  int
	TotalCents int
	Snapshot   ItemSnapshot
}

// Shipping is the optional sub-record captured at checkout.
type Shipping struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type View struct {
	Order
	Items    []LineItem
	Shipping *Shipping
}
