package kasir

const (
	TopicTransactionCompleted = "kasir.transaction.completed"
	TopicStockUpdated         = "kasir.stock.updated"
	TopicStockLow             = "kasir.stock.low"
	TopicLoyaltyUpdated       = "kasir.loyalty.updated"
)

// Partition key = transaksi id (stok: produk id) supaya event dgn subjek sama
// terjaga urutannya.
func PartitionKey(id string) []byte { return []byte(id) }
