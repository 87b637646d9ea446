package redisx

import "time"

const (
	// Session kasir aktif per operator: kasir:session:{tenant}:{toko}:{pengguna} -> session_id
	KeySessionByUser = "kasir:session:%s:%s:%s"

	// Isi keranjang per session: kasir:cart:{session_id} -> JSON CartSession
	KeyCart = "kasir:cart:%s"

	// Cache stok terakhir per produk utk tampilan real-time:
	// kasir:stok:{toko_id}:{produk_id} -> JSON {tersedia, reserved}
	KeyStockCache = "kasir:stok:%s:%s"

	// Dedup event processing di notifier: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStockCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
