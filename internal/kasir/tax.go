package kasir

import (
	"github.com/danisworo/pos-kasir/internal/money"
)

// TaxConfig konfigurasi pajak per toko. Read-only bagi engine.
type TaxConfig struct {
	DefaultRatePct   float64
	PriceIncludesTax bool
}

// TaxCalculator menghitung pajak per-baris lalu agregat. Diskon baris
// diterapkan sebelum pajak; pembulatan diterapkan di setiap output moneter,
// bukan hanya di akhir, supaya tidak ada drift saat agregasi.
type TaxCalculator struct {
	Config   TaxConfig
	Rounding money.Rounding
}

type LineTax struct {
	ProductID string
	RatePct   float64
	Pretax    int64 // subtotal setelah diskon baris, sebelum pajak
	Tax       int64
	Total     int64
	Inclusive bool
}

type TaxSummary struct {
	Pretax         int64
	Tax            int64
	Total          int64
	BlendedRatePct float64 // turunan: totalTax / totalPretax * 100
	Lines          []LineTax
}

// Line menghitung pajak satu baris keranjang. productRatePct > 0 meng-override
// rate default toko.
func (c TaxCalculator) Line(line CartLine, productRatePct float64) LineTax {
	gross := line.UnitPrice * int64(line.Qty)
	discount := line.DiscountNominal + c.Rounding.Percent(gross, line.DiscountPct)
	sub := money.Max(0, gross-discount)

	rate := c.Config.DefaultRatePct
	if productRatePct > 0 {
		rate = productRatePct
	}

	lt := LineTax{ProductID: line.ProductID, RatePct: rate, Inclusive: c.Config.PriceIncludesTax}
	if c.Config.PriceIncludesTax {
		// Harga sudah termasuk pajak: hitung mundur.
		lt.Total = sub
		lt.Pretax = c.Rounding.Round(float64(sub) / (1 + rate/100))
		lt.Tax = sub - lt.Pretax
	} else {
		lt.Pretax = sub
		lt.Tax = c.Rounding.Percent(sub, rate)
		lt.Total = sub + lt.Tax
	}
	return lt
}

// Cart menghitung pajak seluruh keranjang. rates: pajak per-produk dari
// master produk (boleh kosong).
func (c TaxCalculator) Cart(lines []CartLine, rates map[string]float64) TaxSummary {
	sum := TaxSummary{Lines: make([]LineTax, 0, len(lines))}
	for _, line := range lines {
		lt := c.Line(line, rates[line.ProductID])
		sum.Lines = append(sum.Lines, lt)
		sum.Pretax += lt.Pretax
		sum.Tax += lt.Tax
		sum.Total += lt.Total
	}
	if sum.Pretax > 0 {
		// Rate efektif utk struk; tidak dibulatkan ke rupiah karena ini
		// persentase, dipakai ulang saat recompute pajak atas afterDiscount.
		sum.BlendedRatePct = float64(sum.Tax) / float64(sum.Pretax) * 100
	}
	return sum
}
