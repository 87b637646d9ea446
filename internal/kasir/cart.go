package kasir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/danisworo/pos-kasir/internal/redisx"
)

var ErrSessionNotFound = errors.New("session kasir tidak ditemukan atau kedaluwarsa")

// CartSession keranjang in-progress satu operator. Hidup di redis dgn TTL;
// reservasi stok TIDAK diambil di sini — hanya saat checkout, di dalam
// transaksi database, sehingga session yg kedaluwarsa atau ditinggalkan
// tidak menyisakan reservasi yg harus direkonsiliasi.
type CartSession struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	StoreID    string     `json:"toko_id"`
	UserID     string     `json:"pengguna_id"`
	CustomerID string     `json:"pelanggan_id,omitempty"`
	Lines      []CartLine `json:"cart_items"`
	CreatedAt  time.Time  `json:"dibuat_pada"`
	UpdatedAt  time.Time  `json:"diperbarui_pada"`
}

func (s *CartSession) Subtotal() int64 {
	var sum int64
	for _, l := range s.Lines {
		sum += l.UnitPrice * int64(l.Qty)
	}
	return sum
}

// CartStore menyimpan session keranjang, keyed by session id.
type CartStore struct {
	Redis   *redis.Client
	Catalog *Repo // cek harga & sellable stock saat mutasi keranjang
	TTL     time.Duration
	Now     func() time.Time
}

// CreateOrGet mengembalikan session aktif operator, atau membuat yg baru.
func (s *CartStore) CreateOrGet(ctx context.Context, scope AccessScope) (*CartSession, error) {
	userKey := fmt.Sprintf(redisx.KeySessionByUser, scope.TenantID, scope.StoreID, scope.UserID)
	if id, err := s.Redis.Get(ctx, userKey).Result(); err == nil && id != "" {
		if sess, err := s.Get(ctx, scope, id); err == nil {
			return sess, nil
		}
	}

	now := s.Now()
	sess := &CartSession{
		ID:        uuid.NewString(),
		TenantID:  scope.TenantID,
		StoreID:   scope.StoreID,
		UserID:    scope.UserID,
		Lines:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.Redis.Set(ctx, userKey, sess.ID, s.TTL).Err(); err != nil {
		return nil, fmt.Errorf("simpan pointer session: %w", err)
	}
	return sess, nil
}

func (s *CartStore) Get(ctx context.Context, scope AccessScope, sessionID string) (*CartSession, error) {
	raw, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeyCart, sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess CartSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	// Session milik scope lain tidak boleh terlihat.
	if sess.TenantID != scope.TenantID || (sess.StoreID != scope.StoreID && !scope.AllStores) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// AddItem menambah (atau menumpuk) baris keranjang. Stok sellable divalidasi
// di sini utk umpan balik dini; validasi otoritatif tetap terjadi saat
// checkout di bawah row lock.
func (s *CartStore) AddItem(ctx context.Context, scope AccessScope, sessionID string, line CartLine) (*CartSession, error) {
	sess, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return nil, err
	}
	if line.Qty <= 0 {
		return nil, fmt.Errorf("kuantitas minimal 1")
	}

	info, err := s.Catalog.ProductForSale(ctx, scope, line.ProductID)
	if err != nil {
		return nil, err
	}
	if line.UnitPrice == 0 {
		line.UnitPrice = info.UnitPrice
	}
	line.Name, line.Code, line.Barcode = info.Name, info.Code, info.Barcode

	qty := line.Qty
	for i := range sess.Lines {
		if sess.Lines[i].ProductID == line.ProductID {
			qty += sess.Lines[i].Qty
		}
	}
	sellable := info.Available - info.Reserved
	if int64(qty) > sellable {
		return nil, &StockInsufficientError{ProductID: line.ProductID, Requested: qty, Available: sellable}
	}

	merged := false
	for i := range sess.Lines {
		if sess.Lines[i].ProductID == line.ProductID {
			sess.Lines[i].Qty = qty
			merged = true
			break
		}
	}
	if !merged {
		sess.Lines = append(sess.Lines, line)
	}
	return sess, s.save(ctx, sess)
}

// UpdateItem mengganti kuantitas satu baris; 0 menghapus baris.
func (s *CartStore) UpdateItem(ctx context.Context, scope AccessScope, sessionID, productID string, qty int) (*CartSession, error) {
	sess, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, fmt.Errorf("kuantitas tidak boleh negatif")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, scope, sessionID, productID)
	}

	info, err := s.Catalog.ProductForSale(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	sellable := info.Available - info.Reserved
	if int64(qty) > sellable {
		return nil, &StockInsufficientError{ProductID: productID, Requested: qty, Available: sellable}
	}

	for i := range sess.Lines {
		if sess.Lines[i].ProductID == productID {
			sess.Lines[i].Qty = qty
			return sess, s.save(ctx, sess)
		}
	}
	return nil, fmt.Errorf("produk %s tidak ada di keranjang", productID)
}

func (s *CartStore) RemoveItem(ctx context.Context, scope AccessScope, sessionID, productID string) (*CartSession, error) {
	sess, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return nil, err
	}
	kept := sess.Lines[:0]
	for _, l := range sess.Lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	sess.Lines = kept
	return sess, s.save(ctx, sess)
}

func (s *CartStore) SetCustomer(ctx context.Context, scope AccessScope, sessionID, customerID string) (*CartSession, error) {
	sess, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return nil, err
	}
	sess.CustomerID = customerID
	return sess, s.save(ctx, sess)
}

// Clear mengosongkan keranjang; dipanggil juga oleh handler setelah checkout
// commit supaya session siap utk transaksi berikutnya.
func (s *CartStore) Clear(ctx context.Context, scope AccessScope, sessionID string) error {
	sess, err := s.Get(ctx, scope, sessionID)
	if err != nil {
		return err
	}
	sess.Lines = []CartLine{}
	sess.CustomerID = ""
	return s.save(ctx, sess)
}

func (s *CartStore) save(ctx context.Context, sess *CartSession) error {
	sess.UpdatedAt = s.Now()
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	key := fmt.Sprintf(redisx.KeyCart, sess.ID)
	if err := s.Redis.Set(ctx, key, b, s.TTL).Err(); err != nil {
		return fmt.Errorf("simpan session: %w", err)
	}
	return nil
}
