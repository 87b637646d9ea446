// Package kasir berisi engine checkout point-of-sales: reservasi stok,
// pajak, promo, loyalty, dan orkestrasi transaksi dalam satu unit atomik.
package kasir

import "time"

// AccessScope identitas pemanggil hasil resolusi auth layer (tidak
// diimplementasikan di sini, hanya dikonsumsi).
type AccessScope struct {
	TenantID  string `json:"tenant_id"`
	StoreID   string `json:"toko_id"`
	UserID    string `json:"pengguna_id"`
	AllStores bool   `json:"semua_toko"` // akses lintas toko (admin tenant)
}

type PaymentMethod string

const (
	PayCash     PaymentMethod = "tunai"
	PayCard     PaymentMethod = "kartu"
	PayTransfer PaymentMethod = "transfer"
	PayCredit   PaymentMethod = "kredit"
	PayPoints   PaymentMethod = "poin"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayTransfer, PayCredit, PayPoints:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxnCompleted TransactionStatus = "selesai"
	TxnPending   TransactionStatus = "tertunda"
	TxnCancelled TransactionStatus = "batal"
)

// CartLine adalah satu baris keranjang. Ephemeral: hidup di session kasir,
// hilang saat commit atau pembatalan.
type CartLine struct {
	ProductID       string  `json:"produk_id"`
	Name            string  `json:"nama_produk"`
	Code            string  `json:"kode_produk"`
	Barcode         string  `json:"barcode,omitempty"`
	UnitPrice       int64   `json:"harga_satuan"` // 0 = pakai harga toko
	Qty             int     `json:"kuantitas"`
	DiscountPct     float64 `json:"diskon_persen,omitempty"`
	DiscountNominal int64   `json:"diskon_nominal,omitempty"`
	Note            string  `json:"catatan,omitempty"`
}

// PriceTax hasil lookup master produk utk satu baris keranjang.
type PriceTax struct {
	UnitPrice int64   // COALESCE(harga_jual_toko, harga_jual)
	TaxPct    float64 // pajak per-produk; 0 = pakai default toko
}

// ProductInfo tampilan produk utk operasi keranjang.
type ProductInfo struct {
	ProductID string `json:"produk_id"`
	Name      string `json:"nama"`
	Code      string `json:"kode"`
	Barcode   string `json:"barcode,omitempty"`
	UnitPrice int64  `json:"harga_satuan"`
	TaxPct    float64 `json:"pajak_persen"`
	Available int64  `json:"stok_tersedia"`
	Reserved  int64  `json:"stok_reserved"`
}

type PromoKind string

const (
	PromoPerProduct  PromoKind = "produk"
	PromoPerCategory PromoKind = "kategori"
	PromoWholeTxn    PromoKind = "transaksi"
	PromoPerCustomer PromoKind = "pelanggan"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "persen"
	DiscountNominal DiscountKind = "nominal"
)

type Promotion struct {
	ID          string
	Code        string
	Name        string
	Kind        PromoKind
	Discount    DiscountKind
	Value       float64 // persen utk 'persen', rupiah utk 'nominal'
	MinPurchase int64
	UsageCap    int // 0 = tanpa batas
	UsageCount  int
	StartsAt    time.Time
	EndsAt      time.Time
	Status      string // aktif | habis
}

type CustomerTier string

const (
	TierRegular CustomerTier = "reguler"
	TierMember  CustomerTier = "member"
	TierVIP     CustomerTier = "vip"
)

type LoyaltyAccount struct {
	CustomerID      string
	Code            string
	Name            string
	Tier            CustomerTier
	TierDiscountPct float64
	PointBalance    int64
	CreditLimit     int64
}

// Transaction adalah record durable hasil checkout. Immutable setelah commit;
// koreksi dimodelkan sebagai transaksi pembalik, bukan update.
type Transaction struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenant_id"`
	StoreID        string            `json:"toko_id"`
	UserID         string            `json:"pengguna_id"`
	CustomerID     string            `json:"pelanggan_id,omitempty"`
	Number         string            `json:"nomor_transaksi"`
	Date           time.Time         `json:"tanggal"`
	Subtotal       int64             `json:"subtotal"`
	MemberDiscount int64             `json:"diskon_member"`
	PromoDiscount  int64             `json:"diskon_promo"`
	ManualDiscount int64             `json:"diskon_manual"`
	PointDiscount  int64             `json:"diskon_poin"`
	TaxRatePct     float64           `json:"pajak_persen"`
	TaxAmount      int64             `json:"pajak_nominal"`
	GrandTotal     int64             `json:"total"`
	AmountTendered int64             `json:"bayar"`
	Change         int64             `json:"kembalian"`
	Method         PaymentMethod     `json:"metode_bayar"`
	Status         TransactionStatus `json:"status"`
	Note           string            `json:"catatan,omitempty"`
	Items          []TransactionItem `json:"items"`
}

type TransactionItem struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"produk_id"`
	Qty             int     `json:"kuantitas"`
	UnitPrice       int64   `json:"harga_satuan"`
	DiscountPct     float64 `json:"diskon_persen"`
	DiscountNominal int64   `json:"diskon_nominal"`
	Subtotal        int64   `json:"subtotal"`
	PromoID         string  `json:"promo_id,omitempty"`
	Note            string  `json:"catatan,omitempty"`
}

// CheckoutRequest adalah input pipeline dari layer request.
type CheckoutRequest struct {
	SessionID       string        `json:"session_id,omitempty"`
	Lines           []CartLine    `json:"cart_items"`
	CustomerID      string        `json:"pelanggan_id,omitempty"`
	PromoCode       string        `json:"kode_promo,omitempty"`
	PointsToRedeem  int64         `json:"poin_digunakan,omitempty"`
	Method          PaymentMethod `json:"metode_bayar"`
	AmountTendered  int64         `json:"jumlah_bayar"`
	DiscountPct     float64       `json:"diskon_persen,omitempty"`
	DiscountNominal int64         `json:"diskon_nominal,omitempty"`
	Note            string        `json:"catatan,omitempty"`
}

// StockDelta perubahan stok satu produk, utk notifikasi inventory.
type StockDelta struct {
	ProductID    string `json:"produk_id"`
	OldAvailable int64  `json:"stok_tersedia_lama"`
	NewAvailable int64  `json:"stok_tersedia_baru"`
	OldReserved  int64  `json:"stok_reserved_lama"`
	NewReserved  int64  `json:"stok_reserved_baru"`
	Minimum      int64  `json:"stok_minimum"`
}

type LoyaltyDelta struct {
	CustomerID   string `json:"pelanggan_id"`
	OldBalance   int64  `json:"poin_lama"`
	NewBalance   int64  `json:"poin_baru"`
	PointsEarned int64  `json:"poin_earned"`
	PointsUsed   int64  `json:"poin_used"`
}

type PromoUsage struct {
	PromoID  string `json:"promo_id"`
	Code     string `json:"kode_promo"`
	Discount int64  `json:"diskon_nominal"`
}

// CheckoutResult output utk layer request & notification sink.
type CheckoutResult struct {
	Transaction *Transaction  `json:"transaksi"`
	StockDeltas []StockDelta  `json:"stok_updates"`
	Loyalty     *LoyaltyDelta `json:"loyalty_update,omitempty"`
	Promo       *PromoUsage   `json:"promo_used,omitempty"`
}

// ReserveItem permintaan reservasi satu produk.
type ReserveItem struct {
	ProductID string
	Qty       int
}

// DailySummary ringkasan penjualan satu hari utk satu toko.
type DailySummary struct {
	Date         string  `json:"tanggal"`
	Transactions int64   `json:"total_transaksi"`
	ItemsSold    int64   `json:"total_item_terjual"`
	Revenue      int64   `json:"total_pendapatan"`
	CashTotal    int64   `json:"total_tunai"`
	NonCashTotal int64   `json:"total_non_tunai"`
	Average      float64 `json:"rata_rata_transaksi"`
}
