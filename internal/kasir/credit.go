package kasir

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreditValidator menguji kecukupan limit kredit pelanggan. Hanya dipanggil
// saat metode bayar 'kredit'.
type CreditValidator struct{}

// Validate menjumlahkan eksposur kredit berjalan (transaksi kredit yg belum
// lunas: selesai maupun tertunda) plus total transaksi baru, lalu
// membandingkannya dengan limit akun.
func (v *CreditValidator) Validate(ctx context.Context, tx pgx.Tx, acct *LoyaltyAccount, total int64) error {
	if acct == nil || acct.CreditLimit <= 0 {
		return &CreditLimitExceededError{Remaining: 0}
	}

	var outstanding int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM transaksi_penjualan
		WHERE pelanggan_id = $1
		  AND metode_bayar = 'kredit'
		  AND status IN ('selesai', 'tertunda')`,
		acct.CustomerID).Scan(&outstanding)
	if err != nil {
		return fmt.Errorf("query kredit berjalan: %w", err)
	}

	remaining := acct.CreditLimit - outstanding
	if total > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return &CreditLimitExceededError{Remaining: remaining}
	}
	return nil
}
