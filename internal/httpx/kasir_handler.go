package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/danisworo/pos-kasir/internal/kasir"
	"github.com/danisworo/pos-kasir/internal/metrics"
)

type KasirHandler struct {
	Engine *kasir.Engine
	Carts  *kasir.CartStore
	Repo   *kasir.Repo
}

func (h *KasirHandler) Register(r *chi.Mux) {
	r.Route("/kasir", func(r chi.Router) {
		r.Post("/sessions", h.openSession)
		r.Get("/sessions/{id}", h.getSession)
		r.Post("/sessions/{id}/cart", h.addItem)
		r.Put("/sessions/{id}/cart/{productID}", h.updateItem)
		r.Delete("/sessions/{id}/cart/{productID}", h.removeItem)
		r.Delete("/sessions/{id}/cart", h.clearCart)
		r.Put("/sessions/{id}/customer", h.setCustomer)
		r.Post("/checkout", h.checkout)
		r.Get("/transactions/{id}", h.getTransaction)
		r.Get("/summary", h.dailySummary)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor memetakan error domain ke kode HTTP: salah input kasir bisa
// dikoreksi (422), konflik konkurensi layak dicoba ulang (409), sisanya 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kasir.ErrSessionNotFound), errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, kasir.ErrPromoNotFound):
		return http.StatusNotFound
	case kasir.UserCorrectable(err):
		return http.StatusUnprocessableEntity
	case kasir.Retryable(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// scopeFrom membaca identitas multi-tenant dari header. Di deployment asli
// header ini diisi gateway setelah verifikasi token.
func scopeFrom(r *http.Request) (kasir.AccessScope, error) {
	sc := kasir.AccessScope{
		TenantID: r.Header.Get("X-Tenant-ID"),
		StoreID:  r.Header.Get("X-Toko-ID"),
		UserID:   r.Header.Get("X-Pengguna-ID"),
	}
	sc.AllStores, _ = strconv.ParseBool(r.Header.Get("X-Semua-Toko"))
	if sc.TenantID == "" || sc.StoreID == "" || sc.UserID == "" {
		return sc, fmt.Errorf("header X-Tenant-ID, X-Toko-ID, X-Pengguna-ID wajib diisi")
	}
	return sc, nil
}

func (h *KasirHandler) withScope(w http.ResponseWriter, r *http.Request) (kasir.AccessScope, context.Context, context.CancelFunc, bool) {
	sc, err := scopeFrom(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return sc, nil, nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	return sc, ctx, cancel, true
}

func (h *KasirHandler) openSession(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	sess, err := h.Carts.CreateOrGet(ctx, sc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) getSession(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	sess, err := h.Carts.Get(ctx, sc, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) addItem(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	var line kasir.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if line.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "produk_id wajib diisi"})
		return
	}

	sess, err := h.Carts.AddItem(ctx, sc, chi.URLParam(r, "id"), line)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	var body struct {
		Qty int `json:"kuantitas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sess, err := h.Carts.UpdateItem(ctx, sc, chi.URLParam(r, "id"), chi.URLParam(r, "productID"), body.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	sess, err := h.Carts.RemoveItem(ctx, sc, chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := h.Carts.Clear(ctx, sc, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "kosong"})
}

func (h *KasirHandler) setCustomer(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	var body struct {
		CustomerID string `json:"pelanggan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sess, err := h.Carts.SetCustomer(ctx, sc, chi.URLParam(r, "id"), body.CustomerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *KasirHandler) checkout(w http.ResponseWriter, r *http.Request) {
	sc, err := scopeFrom(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req kasir.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	// Checkout bisa lebih lama dari request biasa: row lock + retry.
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Baris boleh dikirim eksplisit atau diambil dari session keranjang.
	if len(req.Lines) == 0 && req.SessionID != "" {
		sess, err := h.Carts.Get(ctx, sc, req.SessionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		req.Lines = sess.Lines
		if req.CustomerID == "" {
			req.CustomerID = sess.CustomerID
		}
	}

	start := time.Now()
	res, err := h.Engine.CheckoutWithRetry(ctx, sc, &req)
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("gagal", string(req.Method)).Inc()
		writeErr(w, err)
		return
	}
	metrics.CheckoutTotal.WithLabelValues("sukses", string(req.Method)).Inc()

	// Keranjang dikosongkan setelah commit; kalau gagal tidak apa, session
	// akan kedaluwarsa sendiri.
	if req.SessionID != "" {
		_ = h.Carts.Clear(ctx, sc, req.SessionID)
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *KasirHandler) getTransaction(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	txn, err := h.Repo.GetTransaction(ctx, sc, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *KasirHandler) dailySummary(w http.ResponseWriter, r *http.Request) {
	sc, ctx, cancel, ok := h.withScope(w, r)
	if !ok {
		return
	}
	defer cancel()

	day := r.URL.Query().Get("tanggal")
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format tanggal harus YYYY-MM-DD"})
		return
	}

	sum, err := h.Repo.DailySummary(ctx, sc, day)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
