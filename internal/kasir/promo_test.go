package kasir

import (
	"errors"
	"testing"
	"time"

	"github.com/danisworo/pos-kasir/internal/money"
)

func activePromo() *Promotion {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	return &Promotion{
		ID:          "promo-1",
		Code:        "HEMAT10",
		Kind:        PromoWholeTxn,
		Discount:    DiscountPercent,
		Value:       10,
		MinPurchase: 5000,
		UsageCap:    100,
		UsageCount:  0,
		StartsAt:    now.AddDate(0, -1, 0),
		EndsAt:      now.AddDate(0, 1, 0),
		Status:      "aktif",
	}
}

var promoNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func TestEvaluatePromoPercent(t *testing.T) {
	d, err := evaluatePromo(activePromo(), 33500, promoNow, false, money.RoundNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 3350 {
		t.Fatalf("diskon = %d, want 3350", d)
	}
}

func TestEvaluatePromoNominal(t *testing.T) {
	p := activePromo()
	p.Discount = DiscountNominal
	p.Value = 5000

	d, err := evaluatePromo(p, 33500, promoNow, false, money.RoundNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 5000 {
		t.Fatalf("diskon = %d, want 5000", d)
	}
}

func TestEvaluatePromoNominalCappedAtSubtotal(t *testing.T) {
	p := activePromo()
	p.Discount = DiscountNominal
	p.Value = 50000
	p.MinPurchase = 0

	d, err := evaluatePromo(p, 20000, promoNow, false, money.RoundNearest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 20000 {
		t.Fatalf("diskon = %d, harus cap di subtotal 20000", d)
	}
}

func TestEvaluatePromoExpired(t *testing.T) {
	p := activePromo()

	if _, err := evaluatePromo(p, 10000, p.EndsAt.Add(time.Hour), false, money.RoundNearest); !errors.Is(err, ErrPromoExpired) {
		t.Fatalf("setelah berakhir: got %v", err)
	}
	if _, err := evaluatePromo(p, 10000, p.StartsAt.Add(-time.Hour), false, money.RoundNearest); !errors.Is(err, ErrPromoExpired) {
		t.Fatalf("sebelum mulai: got %v", err)
	}
}

func TestEvaluatePromoUsageExceeded(t *testing.T) {
	p := activePromo()
	p.UsageCount = p.UsageCap

	if _, err := evaluatePromo(p, 10000, promoNow, false, money.RoundNearest); !errors.Is(err, ErrPromoUsageExceeded) {
		t.Fatalf("cap tercapai: got %v", err)
	}

	// status 'habis' juga menutup promo meski counter belum sinkron
	p = activePromo()
	p.Status = "habis"
	if _, err := evaluatePromo(p, 10000, promoNow, false, money.RoundNearest); !errors.Is(err, ErrPromoUsageExceeded) {
		t.Fatalf("status habis: got %v", err)
	}
}

func TestEvaluatePromoUnlimitedUsage(t *testing.T) {
	p := activePromo()
	p.UsageCap = 0 // tanpa batas
	p.UsageCount = 1_000_000

	if _, err := evaluatePromo(p, 10000, promoNow, false, money.RoundNearest); err != nil {
		t.Fatalf("cap 0 = tanpa batas, got %v", err)
	}
}

func TestEvaluatePromoMinimumNotMet(t *testing.T) {
	p := activePromo()
	p.MinPurchase = 50000

	_, err := evaluatePromo(p, 33500, promoNow, false, money.RoundNearest)
	if !errors.Is(err, ErrPromoMinimumNotMet) {
		t.Fatalf("got %v", err)
	}
}

func TestEvaluatePromoCustomerEligibility(t *testing.T) {
	p := activePromo()
	p.Kind = PromoPerCustomer

	if _, err := evaluatePromo(p, 10000, promoNow, false, money.RoundNearest); !errors.Is(err, ErrPromoCustomerIneligible) {
		t.Fatalf("tidak terdaftar: got %v", err)
	}
	if _, err := evaluatePromo(p, 10000, promoNow, true, money.RoundNearest); err != nil {
		t.Fatalf("terdaftar: got %v", err)
	}
}

func TestEvaluatePromoCheckOrder(t *testing.T) {
	// Promo kedaluwarsa DAN di bawah minimum: masa berlaku dicek duluan.
	p := activePromo()
	p.MinPurchase = 50000

	_, err := evaluatePromo(p, 100, p.EndsAt.Add(time.Hour), false, money.RoundNearest)
	if !errors.Is(err, ErrPromoExpired) {
		t.Fatalf("urutan cek: got %v, want ErrPromoExpired", err)
	}
}
