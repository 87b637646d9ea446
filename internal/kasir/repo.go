package kasir

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckoutRepo: akses data yg dibutuhkan pipeline checkout, semua lewat tx
// milik orkestrator. Seluruh predikat scope di-bind sebagai parameter, tidak
// pernah di-interpolasi ke teks query.
type CheckoutRepo struct{}

func (r *CheckoutRepo) StoreCode(ctx context.Context, tx pgx.Tx, scope AccessScope) (string, error) {
	var code string
	err := tx.QueryRow(ctx, `
		SELECT kode FROM toko WHERE id = $1 AND tenant_id = $2`,
		scope.StoreID, scope.TenantID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "TKO", nil
	}
	if err != nil {
		return "", fmt.Errorf("query kode toko: %w", err)
	}
	return code, nil
}

func (r *CheckoutRepo) TaxConfig(ctx context.Context, tx pgx.Tx, scope AccessScope, def TaxConfig) (TaxConfig, error) {
	cfg := def
	var active bool
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(pajak, $3), COALESCE(is_pajak_aktif, true),
		       COALESCE(harga_include_pajak, $4)
		FROM konfigurasi_sistem
		WHERE tenant_id = $1 AND (toko_id = $2 OR toko_id IS NULL)
		ORDER BY toko_id NULLS LAST
		LIMIT 1`,
		scope.TenantID, scope.StoreID, def.DefaultRatePct, def.PriceIncludesTax,
	).Scan(&cfg.DefaultRatePct, &active, &cfg.PriceIncludesTax)
	if errors.Is(err, pgx.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("query konfigurasi pajak: %w", err)
	}
	if !active {
		cfg.DefaultRatePct = 0
	}
	return cfg, nil
}

// PriceAndTax memuat harga jual efektif toko dan pajak per-produk utk
// baris keranjang yg belum membawa harga override.
func (r *CheckoutRepo) PriceAndTax(ctx context.Context, tx pgx.Tx, scope AccessScope, productIDs []string) (map[string]PriceTax, error) {
	if len(productIDs) == 0 {
		return map[string]PriceTax{}, nil
	}
	params := make([]string, len(productIDs))
	args := []any{scope.TenantID, scope.StoreID}
	for i, id := range productIDs {
		params[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, id)
	}
	rows, err := tx.Query(ctx, `
		SELECT p.id, COALESCE(i.harga_jual_toko, p.harga_jual), COALESCE(p.pajak_persen, 0)
		FROM produk p
		LEFT JOIN inventaris i ON p.id = i.produk_id AND i.toko_id = $2
		WHERE p.tenant_id = $1 AND p.is_aktif AND p.id IN (`+strings.Join(params, ",")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query harga produk: %w", err)
	}
	defer rows.Close()

	out := make(map[string]PriceTax, len(productIDs))
	for rows.Next() {
		var id string
		var pt PriceTax
		if err := rows.Scan(&id, &pt.UnitPrice, &pt.TaxPct); err != nil {
			return nil, err
		}
		out[id] = pt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range productIDs {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("produk tidak ditemukan atau tidak aktif: %s", id)
		}
	}
	return out, nil
}

// NextSequence menaikkan counter atomik per (toko, tanggal) dan mengembalikan
// urutan berikutnya. Counter khusus ini menghindari race COUNT(*) dua
// checkout konkuren membaca urutan yg sama.
func (r *CheckoutRepo) NextSequence(ctx context.Context, tx pgx.Tx, scope AccessScope, day string) (int, error) {
	var seq int
	err := tx.QueryRow(ctx, `
		INSERT INTO transaksi_counter (toko_id, tenant_id, tanggal, urutan)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (toko_id, tanggal)
		DO UPDATE SET urutan = transaksi_counter.urutan + 1
		RETURNING urutan`,
		scope.StoreID, scope.TenantID, day).Scan(&seq)
	if err != nil {
		return 0, mapPgError(fmt.Errorf("counter transaksi: %w", err))
	}
	return seq, nil
}

// InsertTransaction menyimpan header + seluruh item dalam tx berjalan.
func (r *CheckoutRepo) InsertTransaction(ctx context.Context, tx pgx.Tx, t *Transaction) error {
	var cust any
	if t.CustomerID != "" {
		cust = t.CustomerID
	}
	totalDiscount := t.MemberDiscount + t.PromoDiscount + t.ManualDiscount + t.PointDiscount
	_, err := tx.Exec(ctx, `
		INSERT INTO transaksi_penjualan (
			id, tenant_id, toko_id, pengguna_id, pelanggan_id, nomor_transaksi,
			tanggal, subtotal, diskon_member, diskon_promo, diskon_manual,
			diskon_poin, diskon_nominal, pajak_persen, pajak_nominal,
			total, bayar, kembalian, metode_bayar, status, catatan
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		t.ID, t.TenantID, t.StoreID, t.UserID, cust, t.Number,
		t.Date, t.Subtotal, t.MemberDiscount, t.PromoDiscount, t.ManualDiscount,
		t.PointDiscount, totalDiscount, t.TaxRatePct, t.TaxAmount,
		t.GrandTotal, t.AmountTendered, t.Change, t.Method, t.Status, nullif(t.Note))
	if err != nil {
		return mapPgError(fmt.Errorf("insert transaksi: %w", err))
	}

	for i := range t.Items {
		it := &t.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		var promo any
		if it.PromoID != "" {
			promo = it.PromoID
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO item_transaksi_penjualan (
				id, transaksi_penjualan_id, produk_id, kuantitas, harga_satuan,
				diskon_persen, diskon_nominal, subtotal, promo_id, catatan
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, t.ID, it.ProductID, it.Qty, it.UnitPrice,
			it.DiscountPct, it.DiscountNominal, it.Subtotal, promo, nullif(it.Note))
		if err != nil {
			return mapPgError(fmt.Errorf("insert item transaksi: %w", err))
		}
	}
	return nil
}

func nullif(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Repo: permukaan baca di luar pipeline (handler, cart). Pakai pool langsung,
// tanpa tx panjang.
type Repo struct{ DB *pgxpool.Pool }

// ProductForSale memuat produk + stok real-time utk operasi keranjang.
func (r *Repo) ProductForSale(ctx context.Context, scope AccessScope, productID string) (*ProductInfo, error) {
	var p ProductInfo
	var barcode *string
	err := r.DB.QueryRow(ctx, `
		SELECT p.id, p.nama, p.kode, p.barcode,
		       COALESCE(i.harga_jual_toko, p.harga_jual),
		       COALESCE(p.pajak_persen, 0),
		       COALESCE(i.stok_tersedia, 0), COALESCE(i.stok_reserved, 0)
		FROM produk p
		LEFT JOIN inventaris i ON p.id = i.produk_id AND i.toko_id = $2
		WHERE p.id = $1 AND p.tenant_id = $3 AND p.is_aktif`,
		productID, scope.StoreID, scope.TenantID,
	).Scan(&p.ProductID, &p.Name, &p.Code, &barcode, &p.UnitPrice, &p.TaxPct,
		&p.Available, &p.Reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("produk tidak ditemukan atau tidak aktif: %s", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("query produk: %w", err)
	}
	if barcode != nil {
		p.Barcode = *barcode
	}
	return &p, nil
}

// GetTransaction memuat transaksi commit (header + items) dalam scope.
func (r *Repo) GetTransaction(ctx context.Context, scope AccessScope, id string) (*Transaction, error) {
	var t Transaction
	var cust, note *string
	err := r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, toko_id, pengguna_id, pelanggan_id, nomor_transaksi,
		       tanggal, subtotal, diskon_member, diskon_promo, diskon_manual,
		       diskon_poin, pajak_persen, pajak_nominal, total, bayar, kembalian,
		       metode_bayar, status, catatan
		FROM transaksi_penjualan
		WHERE id = $1 AND tenant_id = $2 AND toko_id = $3`,
		id, scope.TenantID, scope.StoreID,
	).Scan(&t.ID, &t.TenantID, &t.StoreID, &t.UserID, &cust, &t.Number,
		&t.Date, &t.Subtotal, &t.MemberDiscount, &t.PromoDiscount, &t.ManualDiscount,
		&t.PointDiscount, &t.TaxRatePct, &t.TaxAmount, &t.GrandTotal,
		&t.AmountTendered, &t.Change, &t.Method, &t.Status, &note)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("query transaksi: %w", err)
	}
	if cust != nil {
		t.CustomerID = *cust
	}
	if note != nil {
		t.Note = *note
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, produk_id, kuantitas, harga_satuan, diskon_persen,
		       diskon_nominal, subtotal, promo_id, catatan
		FROM item_transaksi_penjualan
		WHERE transaksi_penjualan_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query item transaksi: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it TransactionItem
		var promo, inote *string
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Qty, &it.UnitPrice,
			&it.DiscountPct, &it.DiscountNominal, &it.Subtotal, &promo, &inote); err != nil {
			return nil, err
		}
		if promo != nil {
			it.PromoID = *promo
		}
		if inote != nil {
			it.Note = *inote
		}
		t.Items = append(t.Items, it)
	}
	return &t, rows.Err()
}

// DailySummary ringkasan penjualan hari berjalan utk toko dalam scope.
func (r *Repo) DailySummary(ctx context.Context, scope AccessScope, day string) (*DailySummary, error) {
	s := DailySummary{Date: day}
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total), 0),
		       COALESCE(AVG(total), 0),
		       COALESCE(SUM(CASE WHEN metode_bayar = 'tunai' THEN total ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN metode_bayar <> 'tunai' THEN total ELSE 0 END), 0),
		       COALESCE((SELECT SUM(itp.kuantitas)
		                 FROM item_transaksi_penjualan itp
		                 JOIN transaksi_penjualan tp2 ON itp.transaksi_penjualan_id = tp2.id
		                 WHERE tp2.tenant_id = $1 AND tp2.toko_id = $2
		                   AND tp2.tanggal::date = $3::date AND tp2.status = 'selesai'), 0)
		FROM transaksi_penjualan
		WHERE tenant_id = $1 AND toko_id = $2
		  AND tanggal::date = $3::date AND status = 'selesai'`,
		scope.TenantID, scope.StoreID, day,
	).Scan(&s.Transactions, &s.Revenue, &s.Average, &s.CashTotal, &s.NonCashTotal, &s.ItemsSold)
	if err != nil {
		return nil, fmt.Errorf("query summary harian: %w", err)
	}
	return &s, nil
}
