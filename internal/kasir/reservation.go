package kasir

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// ReservationManager mengunci dan memutasi baris inventaris per
// (produk, toko). Invariant: 0 <= stok_reserved <= stok_tersedia;
// sellable = tersedia - reserved. stok_tersedia hanya turun saat Finalize.
//
// Lock diambil dalam urutan deterministik (sort by produk_id) di semua call
// site supaya checkout konkuren tidak membentuk siklus deadlock.
type ReservationManager struct{}

// Reserve mengunci baris inventaris (FOR UPDATE) lalu menaikkan
// stok_reserved utk tiap item. Gagal satu item = gagal semua; tidak ada
// reservasi parsial yg tersisa karena rollback transaksi melepas semuanya.
func (m *ReservationManager) Reserve(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) ([]StockDelta, error) {
	merged := mergeAndSort(items)
	deltas := make([]StockDelta, 0, len(merged))

	for _, it := range merged {
		var available, reserved, minimum int64
		err := tx.QueryRow(ctx, `
			SELECT stok_tersedia, stok_reserved, COALESCE(stok_minimum_toko, 0)
			FROM inventaris
			WHERE produk_id = $1 AND toko_id = $2
			FOR UPDATE`,
			it.ProductID, scope.StoreID).Scan(&available, &reserved, &minimum)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &StockInsufficientError{ProductID: it.ProductID, Requested: it.Qty, Available: 0}
		}
		if err != nil {
			return nil, mapPgError(fmt.Errorf("lock inventaris %s: %w", it.ProductID, err))
		}

		sellable := available - reserved
		if sellable < int64(it.Qty) {
			return nil, &StockInsufficientError{ProductID: it.ProductID, Requested: it.Qty, Available: sellable}
		}

		_, err = tx.Exec(ctx, `
			UPDATE inventaris
			SET stok_reserved = stok_reserved + $3, terakhir_update = NOW()
			WHERE produk_id = $1 AND toko_id = $2`,
			it.ProductID, scope.StoreID, it.Qty)
		if err != nil {
			return nil, mapPgError(fmt.Errorf("reserve %s: %w", it.ProductID, err))
		}

		deltas = append(deltas, StockDelta{
			ProductID:    it.ProductID,
			OldAvailable: available,
			NewAvailable: available,
			OldReserved:  reserved,
			NewReserved:  reserved + int64(it.Qty),
			Minimum:      minimum,
		})
	}
	return deltas, nil
}

// Finalize menurunkan stok_tersedia DAN stok_reserved sebesar kuantitas
// commit. Dipanggil hanya setelah seluruh step checkout lain sukses, dalam
// transaksi yg sama dengan Reserve.
func (m *ReservationManager) Finalize(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) ([]StockDelta, error) {
	merged := mergeAndSort(items)
	deltas := make([]StockDelta, 0, len(merged))

	for _, it := range merged {
		var available, reserved, minimum int64
		err := tx.QueryRow(ctx, `
			UPDATE inventaris
			SET stok_tersedia = stok_tersedia - $3,
			    stok_reserved = stok_reserved - $3,
			    terakhir_update = NOW()
			WHERE produk_id = $1 AND toko_id = $2
			RETURNING stok_tersedia, stok_reserved, COALESCE(stok_minimum_toko, 0)`,
			it.ProductID, scope.StoreID, it.Qty).Scan(&available, &reserved, &minimum)
		if err != nil {
			return nil, mapPgError(fmt.Errorf("finalize stok %s: %w", it.ProductID, err))
		}
		deltas = append(deltas, StockDelta{
			ProductID:    it.ProductID,
			OldAvailable: available + int64(it.Qty),
			NewAvailable: available,
			OldReserved:  reserved + int64(it.Qty),
			NewReserved:  reserved,
			Minimum:      minimum,
		})
	}
	return deltas, nil
}

// Release menurunkan stok_reserved saja, mengembalikan sellable quantity.
// Pasangan Reserve yg tidak berakhir di Finalize harus berakhir di sini
// (pembatalan eksplisit); kegagalan di dalam pipeline sendiri cukup
// mengandalkan rollback.
func (m *ReservationManager) Release(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) error {
	for _, it := range mergeAndSort(items) {
		_, err := tx.Exec(ctx, `
			UPDATE inventaris
			SET stok_reserved = GREATEST(0, stok_reserved - $3), terakhir_update = NOW()
			WHERE produk_id = $1 AND toko_id = $2`,
			it.ProductID, scope.StoreID, it.Qty)
		if err != nil {
			return mapPgError(fmt.Errorf("release stok %s: %w", it.ProductID, err))
		}
	}
	return nil
}

// mergeAndSort menggabungkan baris duplikat per produk dan mengurutkan by
// produk_id — urutan lock yg sama utk semua checkout.
func mergeAndSort(items []ReserveItem) []ReserveItem {
	byID := make(map[string]int, len(items))
	for _, it := range items {
		byID[it.ProductID] += it.Qty
	}
	out := make([]ReserveItem, 0, len(byID))
	for id, qty := range byID {
		out = append(out, ReserveItem{ProductID: id, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
