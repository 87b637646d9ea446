package kasir

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/danisworo/pos-kasir/internal/kafka"
)

// Notifier adalah sink notifikasi yg di-emit engine setelah commit. Engine
// tidak peduli fan-out-nya ke mana; dipanggil sesudah transaksi durable.
type Notifier interface {
	TransactionCompleted(t *Transaction)
	StockUpdated(storeID string, deltas []StockDelta)
	LoyaltyUpdated(d LoyaltyDelta)
}

// KafkaNotifier menerbitkan envelope ke topic kasir.*. Producer async:
// publish tidak pernah memblokir jalur checkout.
type KafkaNotifier struct {
	Transactions *kafkax.Producer // kasir.transaction.completed
	Stock        *kafkax.Producer // kasir.stock.updated
	StockLow     *kafkax.Producer // kasir.stock.low
	Loyalty      *kafkax.Producer // kasir.loyalty.updated
	Service      string
	Now          func() time.Time
}

func (n *KafkaNotifier) publish(p *kafkax.Producer, eventType, correlationID string, payload any) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    n.Now().UTC(),
		Producer:      n.Service,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (n *KafkaNotifier) TransactionCompleted(t *Transaction) {
	n.publish(n.Transactions, EventTransactionCompleted, t.ID,
		TransactionCompletedPayload{Transaction: t})
}

func (n *KafkaNotifier) StockUpdated(storeID string, deltas []StockDelta) {
	if len(deltas) == 0 {
		return
	}
	n.publish(n.Stock, EventStockUpdated, deltas[0].ProductID,
		StockUpdatedPayload{StoreID: storeID, Deltas: deltas})

	for _, d := range deltas {
		if d.Minimum > 0 && d.NewAvailable <= d.Minimum {
			n.publish(n.StockLow, EventStockLow, d.ProductID, StockLowPayload{
				StoreID: storeID, ProductID: d.ProductID,
				Available: d.NewAvailable, Minimum: d.Minimum,
			})
		}
	}
}

func (n *KafkaNotifier) LoyaltyUpdated(d LoyaltyDelta) {
	n.publish(n.Loyalty, EventLoyaltyUpdated, d.CustomerID, LoyaltyUpdatedPayload{Delta: d})
}

// NopNotifier utk binary/test yg tidak butuh fan-out.
type NopNotifier struct{}

func (NopNotifier) TransactionCompleted(*Transaction) {}
func (NopNotifier) StockUpdated(string, []StockDelta) {}
func (NopNotifier) LoyaltyUpdated(LoyaltyDelta)       {}
