package kasir

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/danisworo/pos-kasir/internal/money"
)

// LoyaltyConfig kebijakan program loyalty.
type LoyaltyConfig struct {
	PointValue    int64   // 1 poin = n rupiah
	EarnRate      float64 // poin per rupiah belanja
	MinPointUsage int64   // saldo minimum agar poin bisa dipakai
}

// Threshold upgrade tier berdasarkan belanja 12 bulan terakhir.
const (
	tierVIPThreshold    = 50_000_000
	tierMemberThreshold = 10_000_000
	tierVIPDiscount     = 10
	tierMemberDiscount  = 5
	tierUpgradeBonus    = 100 // poin bonus saat naik tier
)

type LoyaltyEngine struct {
	Config   LoyaltyConfig
	Rounding money.Rounding
}

// LoyaltyBenefits hasil kalkulasi benefit utk satu transaksi.
type LoyaltyBenefits struct {
	TierDiscountPct float64
	MemberDiscount  int64
	PointsUsed      int64
	RedemptionValue int64 // PointsUsed * PointValue
	PointsEarned    int64
	OldBalance      int64
	NewBalance      int64
	CanUsePoints    bool
}

// Account memuat akun loyalty pelanggan; nil jika pelanggan tidak terdaftar
// atau tidak aktif.
func (e *LoyaltyEngine) Account(ctx context.Context, tx pgx.Tx, customerID string, scope AccessScope) (*LoyaltyAccount, error) {
	var a LoyaltyAccount
	err := tx.QueryRow(ctx, `
		SELECT id, kode, nama, tipe, diskon_persen, saldo_poin, limit_kredit
		FROM pelanggan
		WHERE id = $1 AND tenant_id = $2 AND toko_id = $3 AND status = 'aktif'`,
		customerID, scope.TenantID, scope.StoreID,
	).Scan(&a.CustomerID, &a.Code, &a.Name, &a.Tier, &a.TierDiscountPct,
		&a.PointBalance, &a.CreditLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pelanggan: %w", err)
	}
	return &a, nil
}

// Benefits menghitung benefit transaksi. Murni: akun nil menghasilkan nol.
// Poin yg dipakai dibatasi saldo DAN nilai transaksi (redemption tidak boleh
// melebihi subtotal); poin earned dihitung atas subtotal setelah diskon
// member, sebelum diskon promo/poin/manual.
func (e *LoyaltyEngine) Benefits(acct *LoyaltyAccount, subtotal, pointsRequested int64) LoyaltyBenefits {
	if acct == nil {
		return LoyaltyBenefits{}
	}

	b := LoyaltyBenefits{
		TierDiscountPct: acct.TierDiscountPct,
		MemberDiscount:  e.Rounding.Percent(subtotal, acct.TierDiscountPct),
		OldBalance:      acct.PointBalance,
		CanUsePoints:    acct.PointBalance >= e.Config.MinPointUsage,
	}

	if b.CanUsePoints && pointsRequested > 0 && e.Config.PointValue > 0 {
		maxUsable := money.Min(acct.PointBalance, subtotal/e.Config.PointValue)
		b.PointsUsed = money.Min(pointsRequested, maxUsable)
		b.RedemptionValue = b.PointsUsed * e.Config.PointValue
	}

	earnedBase := subtotal - b.MemberDiscount
	b.PointsEarned = int64(math.Floor(float64(earnedBase) * e.Config.EarnRate))
	b.NewBalance = acct.PointBalance - b.PointsUsed + b.PointsEarned
	return b
}

// ApplyBalance menulis saldo poin baru; atomik dengan commit transaksi karena
// memakai tx yg sama.
func (e *LoyaltyEngine) ApplyBalance(ctx context.Context, tx pgx.Tx, customerID string, b LoyaltyBenefits, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE pelanggan SET saldo_poin = $2, diperbarui_pada = $3
		WHERE id = $1`, customerID, b.NewBalance, now)
	if err != nil {
		return fmt.Errorf("update saldo poin: %w", err)
	}
	return nil
}

// LogActivity menulis jejak audit aktivitas poin (earned/used/bonus).
func (e *LoyaltyEngine) LogActivity(ctx context.Context, tx pgx.Tx, customerID, txnID, kind string, points int64, note string, now time.Time) error {
	var txn any
	if txnID != "" {
		txn = txnID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO poin_aktivitas (pelanggan_id, transaksi_penjualan_id, tipe_aktivitas, jumlah_poin, keterangan, dibuat_pada)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		customerID, txn, kind, points, note, now)
	if err != nil {
		return fmt.Errorf("insert poin_aktivitas: %w", err)
	}
	return nil
}

// CheckTierUpgrade mengevaluasi ulang belanja 12 bulan terakhir dan menaikkan
// tier + diskonnya bila threshold terlewati. Kenaikan memberi bonus poin dan
// dicatat di log aktivitas.
func (e *LoyaltyEngine) CheckTierUpgrade(ctx context.Context, tx pgx.Tx, customerID string, now time.Time) (bool, error) {
	var tier CustomerTier
	var spend int64
	err := tx.QueryRow(ctx, `
		SELECT p.tipe, COALESCE(SUM(tp.total), 0)
		FROM pelanggan p
		LEFT JOIN transaksi_penjualan tp ON p.id = tp.pelanggan_id
			AND tp.status = 'selesai'
			AND tp.tanggal >= $2
		WHERE p.id = $1
		GROUP BY p.id, p.tipe`,
		customerID, now.AddDate(-1, 0, 0)).Scan(&tier, &spend)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query belanja 12 bulan: %w", err)
	}

	newTier, newDiscount := tier, 0.0
	switch {
	case spend >= tierVIPThreshold && tier != TierVIP:
		newTier, newDiscount = TierVIP, tierVIPDiscount
	case spend >= tierMemberThreshold && tier == TierRegular:
		newTier, newDiscount = TierMember, tierMemberDiscount
	}
	if newTier == tier {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE pelanggan
		SET tipe = $2, diskon_persen = $3, saldo_poin = saldo_poin + $4, diperbarui_pada = $5
		WHERE id = $1`,
		customerID, newTier, newDiscount, tierUpgradeBonus, now)
	if err != nil {
		return false, fmt.Errorf("upgrade tier: %w", err)
	}
	if err := e.LogActivity(ctx, tx, customerID, "", "bonus", tierUpgradeBonus,
		fmt.Sprintf("upgrade member dari %s ke %s", tier, newTier), now); err != nil {
		return false, err
	}
	log.Printf("loyalty: pelanggan %s naik tier %s -> %s (belanja 12bln %d)", customerID, tier, newTier, spend)
	return true, nil
}
