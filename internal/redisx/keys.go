package redisx

import (
	"fmt"
	"time"
)

const (
	// Dedup processed webhook notifications: dedup:webhook:{event_id}
	KeyDedupWebhook = "dedup:webhook:%s"

	// Dedup settlement consumption per consumer: dedup:settlement:{consumer}:{event_id}
	KeyDedupSettlement = "dedup:settlement:%s:%s"

	// Cache order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLDedup = 48 * time.Hour

	// Short: a PENDING order can flip to PAID at any moment via webhook.
	TTLStatusCache = 30 * time.Second
)

func key(template string, args ...any) string {
	return fmt.Sprintf(template, args...)
}

func OrderStatusKey(orderID string) string {
	return key(KeyOrderStatus, orderID)
}
