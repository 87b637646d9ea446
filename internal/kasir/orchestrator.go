package kasir

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/danisworo/pos-kasir/internal/money"
)

// Interface kolaborator pipeline. Implementasi produksi ada di package ini
// (pgx); test menyuntik fake in-memory.

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type StockReserver interface {
	Reserve(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) ([]StockDelta, error)
	Finalize(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) ([]StockDelta, error)
	Release(ctx context.Context, tx pgx.Tx, scope AccessScope, items []ReserveItem) error
}

type PromoService interface {
	Validate(ctx context.Context, tx pgx.Tx, code string, subtotal int64, customerID string, scope AccessScope, now time.Time) (*PromoResult, error)
	RecordUsage(ctx context.Context, tx pgx.Tx, usage *PromoUsage, txnID, customerID string, now time.Time) error
}

type LoyaltyService interface {
	Account(ctx context.Context, tx pgx.Tx, customerID string, scope AccessScope) (*LoyaltyAccount, error)
	Benefits(acct *LoyaltyAccount, subtotal, pointsRequested int64) LoyaltyBenefits
	ApplyBalance(ctx context.Context, tx pgx.Tx, customerID string, b LoyaltyBenefits, now time.Time) error
	LogActivity(ctx context.Context, tx pgx.Tx, customerID, txnID, kind string, points int64, note string, now time.Time) error
	CheckTierUpgrade(ctx context.Context, tx pgx.Tx, customerID string, now time.Time) (bool, error)
}

type CreditChecker interface {
	Validate(ctx context.Context, tx pgx.Tx, acct *LoyaltyAccount, total int64) error
}

type CheckoutStore interface {
	StoreCode(ctx context.Context, tx pgx.Tx, scope AccessScope) (string, error)
	TaxConfig(ctx context.Context, tx pgx.Tx, scope AccessScope, def TaxConfig) (TaxConfig, error)
	PriceAndTax(ctx context.Context, tx pgx.Tx, scope AccessScope, productIDs []string) (map[string]PriceTax, error)
	NextSequence(ctx context.Context, tx pgx.Tx, scope AccessScope, day string) (int, error)
	InsertTransaction(ctx context.Context, tx pgx.Tx, t *Transaction) error
}

// Engine mengorkestrasi seluruh pipeline checkout sebagai satu unit atomik.
// Urutan diskon adalah kontrak eksplisit: member -> promo -> manual -> poin.
type Engine struct {
	DB      TxBeginner
	Store   CheckoutStore
	Stock   StockReserver
	Promo   PromoService
	Loyalty LoyaltyService
	Credit  CreditChecker
	Notify  Notifier

	Now         func() time.Time
	Rounding    money.Rounding
	TaxDefaults TaxConfig
	Attempts    int    // batas retry utk error retryable
	OnRetry     func() // hook metrik, boleh nil
}

// Checkout menjalankan pipeline sekali. Semua step berjalan dalam satu
// transaksi database; kegagalan di step mana pun membuat rollback melepas
// reservasi dan tidak meninggalkan side effect apa pun.
func (e *Engine) Checkout(ctx context.Context, scope AccessScope, req *CheckoutRequest) (*CheckoutResult, error) {
	// 1. Validasi input sebelum menyentuh database.
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range req.Lines {
		if l.Qty <= 0 {
			return nil, fmt.Errorf("kuantitas tidak valid utk produk %s", l.ProductID)
		}
	}
	if !req.Method.Valid() {
		return nil, fmt.Errorf("metode bayar tidak dikenal: %q", req.Method)
	}

	now := e.Now()
	st := StateInitiated

	tx, err := e.DB.Begin(ctx)
	if err != nil {
		return nil, mapPgError(fmt.Errorf("begin checkout: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Harga default toko utk baris tanpa override + pajak per-produk.
	ids := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}
	priceTax, err := e.Store.PriceAndTax(ctx, tx, scope, ids)
	if err != nil {
		return nil, e.fail(st, err)
	}
	lines := make([]CartLine, len(req.Lines))
	copy(lines, req.Lines)
	rates := make(map[string]float64, len(lines))
	reserve := make([]ReserveItem, 0, len(lines))
	for i := range lines {
		pt := priceTax[lines[i].ProductID]
		if lines[i].UnitPrice == 0 {
			lines[i].UnitPrice = pt.UnitPrice
		}
		rates[lines[i].ProductID] = pt.TaxPct
		reserve = append(reserve, ReserveItem{ProductID: lines[i].ProductID, Qty: lines[i].Qty})
	}

	// 2. Reservasi stok seluruh baris, lock deterministik.
	if _, err := e.Stock.Reserve(ctx, tx, scope, reserve); err != nil {
		return nil, e.fail(st, err)
	}
	st = advance(st, StateStockReserved)

	// 3. Pajak per-baris + agregat atas subtotal pre-discount-stacking.
	taxCfg, err := e.Store.TaxConfig(ctx, tx, scope, e.TaxDefaults)
	if err != nil {
		return nil, e.fail(st, err)
	}
	calc := TaxCalculator{Config: taxCfg, Rounding: e.Rounding}
	summary := calc.Cart(lines, rates)
	subtotal := summary.Pretax

	// 4. Promo: sekali kode diberikan, gagal validasi = gagal checkout.
	var promoUsage *PromoUsage
	var promoDiscount int64
	if req.PromoCode != "" {
		res, err := e.Promo.Validate(ctx, tx, req.PromoCode, subtotal, req.CustomerID, scope, now)
		if err != nil {
			return nil, e.fail(st, err)
		}
		promoDiscount = res.Discount
		promoUsage = &PromoUsage{PromoID: res.Promo.ID, Code: res.Promo.Code, Discount: res.Discount}
	}

	// 5. Kredit: eksposur berjalan + transaksi ini vs limit.
	var acct *LoyaltyAccount
	if req.CustomerID != "" {
		if acct, err = e.Loyalty.Account(ctx, tx, req.CustomerID, scope); err != nil {
			return nil, e.fail(st, err)
		}
	}
	if req.Method == PayCredit {
		if err := e.Credit.Validate(ctx, tx, acct, summary.Total); err != nil {
			return nil, e.fail(st, err)
		}
	}

	// 6. Benefit loyalty.
	benefits := e.Loyalty.Benefits(acct, subtotal, req.PointsToRedeem)
	if req.PointsToRedeem > 0 && acct != nil && !benefits.CanUsePoints {
		return nil, e.fail(st, ErrPointBalanceBelowMinimum)
	}

	// 7. Total akhir. Urutan stacking: member -> promo -> manual -> poin;
	// pajak dihitung ulang atas afterDiscount dgn blended rate step 3.
	manualDiscount := req.DiscountNominal + e.Rounding.Percent(subtotal, req.DiscountPct)
	totalDiscount := benefits.MemberDiscount + promoDiscount + manualDiscount + benefits.RedemptionValue
	afterDiscount := money.Max(0, subtotal-totalDiscount)
	taxAmount := e.Rounding.Round(float64(afterDiscount) * summary.BlendedRatePct / 100)
	grandTotal := afterDiscount + taxAmount
	st = advance(st, StateTotalsComputed)

	// 8. Kecukupan pembayaran.
	var change int64
	if req.Method == PayCash {
		if req.AmountTendered < grandTotal {
			return nil, e.fail(st, &PaymentInsufficientError{Shortfall: grandTotal - req.AmountTendered})
		}
		change = req.AmountTendered - grandTotal
	}
	st = advance(st, StatePaymentValidated)

	// 9. Nomor transaksi dari counter atomik per (toko, hari).
	storeCode, err := e.Store.StoreCode(ctx, tx, scope)
	if err != nil {
		return nil, e.fail(st, err)
	}
	day := now.Format("20060102")
	seq, err := e.Store.NextSequence(ctx, tx, scope, day)
	if err != nil {
		return nil, e.fail(st, err)
	}

	// 10. Persist header + items.
	txn := &Transaction{
		ID:             uuid.NewString(),
		TenantID:       scope.TenantID,
		StoreID:        scope.StoreID,
		UserID:         scope.UserID,
		CustomerID:     req.CustomerID,
		Number:         fmt.Sprintf("%s-%s-%04d", storeCode, day, seq),
		Date:           now,
		Subtotal:       subtotal,
		MemberDiscount: benefits.MemberDiscount,
		PromoDiscount:  promoDiscount,
		ManualDiscount: manualDiscount,
		PointDiscount:  benefits.RedemptionValue,
		TaxRatePct:     summary.BlendedRatePct,
		TaxAmount:      taxAmount,
		GrandTotal:     grandTotal,
		AmountTendered: req.AmountTendered,
		Change:         change,
		Method:         req.Method,
		Status:         TxnCompleted,
		Note:           req.Note,
	}
	for i, l := range lines {
		txn.Items = append(txn.Items, TransactionItem{
			ProductID:       l.ProductID,
			Qty:             l.Qty,
			UnitPrice:       l.UnitPrice,
			DiscountPct:     l.DiscountPct,
			DiscountNominal: l.DiscountNominal,
			Subtotal:        summary.Lines[i].Pretax,
			Note:            l.Note,
		})
	}
	if err := e.Store.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, e.fail(st, err)
	}

	// 11. Finalisasi stok: tersedia dan reserved turun bersamaan.
	deltas, err := e.Stock.Finalize(ctx, tx, scope, reserve)
	if err != nil {
		return nil, e.fail(st, err)
	}

	// 12. Catat pemakaian promo, setelah transaksi tersimpan.
	if promoUsage != nil {
		if err := e.Promo.RecordUsage(ctx, tx, promoUsage, txn.ID, req.CustomerID, now); err != nil {
			return nil, e.fail(st, err)
		}
	}

	// 13. Mutasi saldo poin + jejak aktivitas + evaluasi tier.
	var loyaltyDelta *LoyaltyDelta
	if acct != nil {
		if err := e.Loyalty.ApplyBalance(ctx, tx, acct.CustomerID, benefits, now); err != nil {
			return nil, e.fail(st, err)
		}
		if benefits.PointsEarned > 0 {
			if err := e.Loyalty.LogActivity(ctx, tx, acct.CustomerID, txn.ID, "earned",
				benefits.PointsEarned, "poin dari transaksi "+txn.Number, now); err != nil {
				return nil, e.fail(st, err)
			}
		}
		if benefits.PointsUsed > 0 {
			if err := e.Loyalty.LogActivity(ctx, tx, acct.CustomerID, txn.ID, "used",
				benefits.PointsUsed, "penggunaan poin utk transaksi "+txn.Number, now); err != nil {
				return nil, e.fail(st, err)
			}
		}
		if _, err := e.Loyalty.CheckTierUpgrade(ctx, tx, acct.CustomerID, now); err != nil {
			return nil, e.fail(st, err)
		}
		loyaltyDelta = &LoyaltyDelta{
			CustomerID:   acct.CustomerID,
			OldBalance:   benefits.OldBalance,
			NewBalance:   benefits.NewBalance,
			PointsEarned: benefits.PointsEarned,
			PointsUsed:   benefits.PointsUsed,
		}
	}

	// 14. Commit: dari sini transaksi durable dan immutable.
	if err := tx.Commit(ctx); err != nil {
		return nil, e.fail(st, mapPgError(err))
	}
	st = advance(st, StateCommitted)
	log.Printf("checkout %s: %s total=%d metode=%s", st, txn.Number, txn.GrandTotal, txn.Method)

	notify := e.Notify
	if notify == nil {
		notify = NopNotifier{}
	}
	notify.TransactionCompleted(txn)
	notify.StockUpdated(scope.StoreID, deltas)
	if loyaltyDelta != nil {
		notify.LoyaltyUpdated(*loyaltyDelta)
	}

	return &CheckoutResult{
		Transaction: txn,
		StockDeltas: deltas,
		Loyalty:     loyaltyDelta,
		Promo:       promoUsage,
	}, nil
}

// CheckoutWithRetry mengulang checkout utk error retryable (deadlock,
// bentrok nomor). Aman karena attempt yg gagal tidak meninggalkan state.
func (e *Engine) CheckoutWithRetry(ctx context.Context, scope AccessScope, req *CheckoutRequest) (*CheckoutResult, error) {
	attempts := e.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	var res *CheckoutResult
	for i := 0; i < attempts; i++ {
		res, err = e.Checkout(ctx, scope, req)
		if err == nil || !Retryable(err) {
			return res, err
		}
		log.Printf("checkout retry %d/%d: %v", i+1, attempts, err)
		if e.OnRetry != nil {
			e.OnRetry()
		}
	}
	return nil, err
}

// fail menandai pipeline berakhir di state Failed. Rollback transaksi yg
// menyertainya melepas semua reservasi attempt ini.
func (e *Engine) fail(from State, err error) error {
	log.Printf("checkout gagal di %s: %v", from, err)
	return err
}

// advance memindahkan state pipeline; transisi di luar tabel adalah bug.
func advance(cur, next State) State {
	if !CanTransition(cur, next) {
		panic(fmt.Sprintf("transisi state checkout tidak valid: %s -> %s", cur, next))
	}
	return next
}
