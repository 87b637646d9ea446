package kasir

import (
	"encoding/json"
	"time"
)

const (
	EventTransactionCompleted = "TransactionCompleted"
	EventStockUpdated         = "StockUpdated"
	EventStockLow             = "StockLow"
	EventLoyaltyUpdated       = "LoyaltyUpdated"
)

// Envelope membungkus semua event keluar engine.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya transaksi id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload per event ----

type TransactionCompletedPayload struct {
	Transaction *Transaction `json:"transaksi"`
}

type StockUpdatedPayload struct {
	StoreID string       `json:"toko_id"`
	Deltas  []StockDelta `json:"deltas"`
}

type StockLowPayload struct {
	StoreID   string `json:"toko_id"`
	ProductID string `json:"produk_id"`
	Available int64  `json:"stok_tersedia"`
	Minimum   int64  `json:"stok_minimum"`
}

type LoyaltyUpdatedPayload struct {
	Delta LoyaltyDelta `json:"delta"`
}
