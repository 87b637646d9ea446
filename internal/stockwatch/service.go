// Package stockwatch meng-konsumsi event stok dari engine checkout dan
// memelihara cache stok real-time di redis utk tampilan kasir.
package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/danisworo/pos-kasir/internal/kasir"
	"github.com/danisworo/pos-kasir/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

type stockSnapshot struct {
	Available int64 `json:"tersedia"`
	Reserved  int64 `json:"reserved"`
}

// HandleStockUpdated: dipasang sebagai handler consumer.
func (s *Service) HandleStockUpdated(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env kasir.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != kasir.EventStockUpdated {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	// 3) decode payload, refresh cache per produk
	var p kasir.StockUpdatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}
	for _, d := range p.Deltas {
		key := fmt.Sprintf(redisx.KeyStockCache, p.StoreID, d.ProductID)
		snap, _ := json.Marshal(stockSnapshot{Available: d.NewAvailable, Reserved: d.NewReserved})
		if err := s.Redis.Set(ctx, key, snap, redisx.TTLStockCache).Err(); err != nil {
			return fmt.Errorf("cache stok %s: %w", d.ProductID, err)
		}
	}
	return nil
}

// HandleStockLow mencatat peringatan stok menipis. Di deployment asli ini
// jadi pintu masuk notifikasi purchasing.
func (s *Service) HandleStockLow(ctx context.Context, m kafkago.Message) error {
	var env kasir.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != kasir.EventStockLow {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName+"-low", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	var p kasir.StockLowPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}
	log.Printf("STOK MENIPIS toko=%s produk=%s tersedia=%d minimum=%d",
		p.StoreID, p.ProductID, p.Available, p.Minimum)
	return nil
}
