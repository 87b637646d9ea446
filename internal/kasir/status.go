package kasir

// State pipeline checkout. Failed terminal, bisa dicapai dari semua
// state non-terminal; reservasi yg sudah diambil dilepas oleh rollback.
type State string

const (
	StateInitiated        State = "INITIATED"
	StateStockReserved    State = "STOCK_RESERVED"
	StateTotalsComputed   State = "TOTALS_COMPUTED"
	StatePaymentValidated State = "PAYMENT_VALIDATED"
	StateCommitted        State = "COMMITTED"
	StateFailed           State = "FAILED"
)

var validNext = map[State]map[State]bool{
	StateInitiated:        {StateStockReserved: true, StateFailed: true},
	StateStockReserved:    {StateTotalsComputed: true, StateFailed: true},
	StateTotalsComputed:   {StatePaymentValidated: true, StateFailed: true},
	StatePaymentValidated: {StateCommitted: true, StateFailed: true},
	StateCommitted:        {},
	StateFailed:           {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}
