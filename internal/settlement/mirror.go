package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/subapavel/samofujera/internal/kafka"
)

// NewKafkaMirror returns a bus subscriber that republishes settlement events
// to the mirror topic for out-of-process consumers. The in-process bus stays
// the correctness path; the mirror is fan-out only.
func NewKafkaMirror(p *kafkax.Producer, producer string) Handler {
	return func(ctx context.Context, ev OrderPaid) {
		// Keep the ledger's event id so consumer-side dedup survives
		// a republish.
		eventID := ev.EventID
		if eventID == "" {
			eventID = uuid.NewString()
		}
		env := Envelope{
			EventID:       eventID,
			EventType:     EventOrderPaid,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: ev.OrderID,
			Payload:       kafkax.MustMarshal(ev),
		}
		p.Publish(PartitionKey(ev.OrderID), kafkax.MustMarshal(env),
			kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPaid)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
}
