package kasir

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/danisworo/pos-kasir/internal/money"
)

// PromoValidator memvalidasi kode promo dan menghitung kontribusi diskonnya.
// Validate tidak memutasi usage; pencatatan hanya lewat RecordUsage, dipanggil
// orkestrator setelah transaksi tersimpan.
type PromoValidator struct {
	Rounding money.Rounding
}

type PromoResult struct {
	Promo    *Promotion
	Discount int64
}

// Validate mencari promo aktif by code dalam scope tenant+toko dan menguji
// kelayakannya terhadap subtotal, waktu, dan pelanggan.
func (v *PromoValidator) Validate(
	ctx context.Context,
	tx pgx.Tx,
	code string,
	subtotal int64,
	customerID string,
	scope AccessScope,
	now time.Time,
) (*PromoResult, error) {
	var p Promotion
	var cap *int
	err := tx.QueryRow(ctx, `
		SELECT id, kode_promo, nama, tipe_promo, tipe_diskon, nilai_diskon,
		       minimum_pembelian, maksimum_penggunaan, jumlah_terpakai,
		       tanggal_mulai, tanggal_berakhir, status
		FROM promo
		WHERE kode_promo = $1 AND tenant_id = $2 AND toko_id = $3`,
		code, scope.TenantID, scope.StoreID,
	).Scan(&p.ID, &p.Code, &p.Name, &p.Kind, &p.Discount, &p.Value,
		&p.MinPurchase, &cap, &p.UsageCount, &p.StartsAt, &p.EndsAt, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promo: %w", err)
	}
	if cap != nil {
		p.UsageCap = *cap
	}

	enrolled := false
	if p.Kind == PromoPerCustomer && customerID != "" {
		var n int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM promo_pelanggan
			WHERE promo_id = $1 AND pelanggan_id = $2`, p.ID, customerID).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("query promo_pelanggan: %w", err)
		}
		enrolled = n > 0
	}

	discount, err := evaluatePromo(&p, subtotal, now, enrolled, v.Rounding)
	if err != nil {
		return nil, err
	}
	return &PromoResult{Promo: &p, Discount: discount}, nil
}

// evaluatePromo menguji kelayakan promo dan menghitung diskon. Murni, tanpa
// akses database — di sini seluruh aturan kelayakan hidup.
func evaluatePromo(p *Promotion, subtotal int64, now time.Time, enrolled bool, r money.Rounding) (int64, error) {
	if now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return 0, ErrPromoExpired
	}
	if p.Status != "aktif" {
		// Status 'habis' di-set saat usage count menyentuh cap.
		return 0, ErrPromoUsageExceeded
	}
	if p.UsageCap > 0 && p.UsageCount >= p.UsageCap {
		return 0, ErrPromoUsageExceeded
	}
	if subtotal < p.MinPurchase {
		return 0, fmt.Errorf("%w: minimum %d, subtotal %d", ErrPromoMinimumNotMet, p.MinPurchase, subtotal)
	}
	if p.Kind == PromoPerCustomer && !enrolled {
		return 0, ErrPromoCustomerIneligible
	}

	switch p.Discount {
	case DiscountPercent:
		return r.Percent(subtotal, p.Value), nil
	case DiscountNominal:
		return money.Min(int64(p.Value), subtotal), nil
	}
	return 0, fmt.Errorf("tipe diskon promo tidak dikenal: %q", p.Discount)
}

// RecordUsage menaikkan usage counter tepat sekali per transaksi commit dan
// mem-flip status ke 'habis' saat cap tercapai. Dipanggil dalam transaksi
// database yg sama dengan insert transaksi.
func (v *PromoValidator) RecordUsage(
	ctx context.Context,
	tx pgx.Tx,
	usage *PromoUsage,
	txnID, customerID string,
	now time.Time,
) error {
	var cust any
	if customerID != "" {
		cust = customerID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO penggunaan_promo (
			promo_id, transaksi_penjualan_id, pelanggan_id,
			kode_promo_digunakan, nilai_diskon_diberikan, tanggal_digunakan
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		usage.PromoID, txnID, cust, usage.Code, usage.Discount, now)
	if err != nil {
		return fmt.Errorf("insert penggunaan_promo: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE promo
		SET jumlah_terpakai = jumlah_terpakai + 1,
		    status = CASE
		        WHEN maksimum_penggunaan IS NOT NULL AND jumlah_terpakai + 1 >= maksimum_penggunaan
		        THEN 'habis' ELSE status END,
		    diperbarui_pada = $2
		WHERE id = $1`,
		usage.PromoID, now)
	if err != nil {
		return fmt.Errorf("update usage promo: %w", err)
	}
	return nil
}
