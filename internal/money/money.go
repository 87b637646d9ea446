// Package money: aritmetika uang dalam rupiah bulat (int64).
// Semua nilai moneter di engine adalah satuan terkecil, tanpa floating point
// kecuali saat menghitung persentase — hasilnya langsung dibulatkan sesuai policy.
package money

import (
	"fmt"
	"math"
)

// Rounding menentukan pembulatan di setiap agregasi, bukan hanya di akhir.
type Rounding string

const (
	RoundNearest Rounding = "round"
	RoundCeil    Rounding = "ceil"
	RoundFloor   Rounding = "floor"
)

func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case RoundNearest, RoundCeil, RoundFloor:
		return Rounding(s), nil
	case "":
		return RoundNearest, nil
	}
	return "", fmt.Errorf("metode pembulatan tidak dikenal: %q", s)
}

// Round membulatkan nilai float ke rupiah bulat sesuai metode.
func (r Rounding) Round(v float64) int64 {
	switch r {
	case RoundCeil:
		return int64(math.Ceil(v))
	case RoundFloor:
		return int64(math.Floor(v))
	default:
		return int64(math.Round(v))
	}
}

// Percent menghitung pct% dari amount, dibulatkan sesuai metode.
func (r Rounding) Percent(amount int64, pct float64) int64 {
	return r.Round(float64(amount) * pct / 100)
}

func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
