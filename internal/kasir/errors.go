package kasir

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Taksonomi kegagalan checkout. Semua error terminal utk attempt berjalan;
// yg retryable aman diulang dari awal karena tidak ada side effect yg
// persist sebelum commit.
var (
	ErrEmptyCart = errors.New("keranjang kosong")

	ErrPromoNotFound           = errors.New("kode promo tidak ditemukan")
	ErrPromoExpired            = errors.New("promo di luar masa berlaku")
	ErrPromoUsageExceeded      = errors.New("promo mencapai batas maksimum penggunaan")
	ErrPromoMinimumNotMet      = errors.New("subtotal di bawah minimum pembelian promo")
	ErrPromoCustomerIneligible = errors.New("promo khusus pelanggan tertentu")

	ErrPointBalanceBelowMinimum = errors.New("saldo poin di bawah minimum penggunaan")

	// Retryable: aman diulang dari step pertama.
	ErrTransactionNumberCollision = errors.New("nomor transaksi bentrok")
	ErrConcurrencyConflict        = errors.New("konflik concurrency, ulangi checkout")
)

// StockInsufficientError: stok sellable (tersedia - reserved) kurang dari
// permintaan. User-correctable dengan mengurangi kuantitas.
type StockInsufficientError struct {
	ProductID string
	Requested int
	Available int64
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("stok produk %s tidak mencukupi: tersedia %d, diminta %d",
		e.ProductID, e.Available, e.Requested)
}

type CreditLimitExceededError struct {
	Remaining int64
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("limit kredit tidak mencukupi, sisa limit %d", e.Remaining)
}

type PaymentInsufficientError struct {
	Shortfall int64
}

func (e *PaymentInsufficientError) Error() string {
	return fmt.Sprintf("pembayaran kurang %d", e.Shortfall)
}

// Retryable melaporkan apakah checkout boleh diulang dari awal.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrTransactionNumberCollision)
}

// UserCorrectable memisahkan kegagalan yg bisa diperbaiki kasir (4xx)
// dari kegagalan internal (5xx).
func UserCorrectable(err error) bool {
	var stock *StockInsufficientError
	var credit *CreditLimitExceededError
	var pay *PaymentInsufficientError
	switch {
	case errors.As(err, &stock), errors.As(err, &credit), errors.As(err, &pay):
		return true
	}
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrPromoNotFound) ||
		errors.Is(err, ErrPromoExpired) ||
		errors.Is(err, ErrPromoUsageExceeded) ||
		errors.Is(err, ErrPromoMinimumNotMet) ||
		errors.Is(err, ErrPromoCustomerIneligible) ||
		errors.Is(err, ErrPointBalanceBelowMinimum)
}

// Kode error postgres yg dipetakan ke taksonomi engine.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// mapPgError memetakan deadlock/serialization ke ConcurrencyConflict dan
// pelanggaran unique nomor_transaksi ke TransactionNumberCollision.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %s", ErrConcurrencyConflict, pgErr.Message)
	case pgUniqueViolation:
		if pgErr.ConstraintName == "transaksi_penjualan_nomor_key" {
			return fmt.Errorf("%w: %s", ErrTransactionNumberCollision, pgErr.Message)
		}
	}
	return err
}
