package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// kosongkan supaya env luar tidak bocor ke asersi default
	for _, k := range []string{"HTTP_ADDR", "KASIR_PAJAK_DEFAULT", "KASIR_NILAI_POIN",
		"KASIR_RATE_POIN", "KASIR_MIN_POIN", "KASIR_CHECKOUT_ATTEMPTS",
		"KASIR_SESSION_TTL_MENIT", "KASIR_PEMBULATAN"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DefaultTaxPercent != 11.0 {
		t.Errorf("pajak default = %v, want 11", cfg.DefaultTaxPercent)
	}
	if cfg.PointValue != 1000 || cfg.PointEarnRate != 0.001 || cfg.MinPointUsage != 10 {
		t.Errorf("tunables poin: %+v", cfg)
	}
	if cfg.CheckoutAttempts != 3 {
		t.Errorf("attempts = %d", cfg.CheckoutAttempts)
	}
	if cfg.SessionTTL != 480*time.Minute {
		t.Errorf("session ttl = %v", cfg.SessionTTL)
	}
	if cfg.RoundingMethod != "round" {
		t.Errorf("pembulatan = %q", cfg.RoundingMethod)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KASIR_PAJAK_DEFAULT", "12.5")
	t.Setenv("KASIR_HARGA_INCLUDE_PAJAK", "true")
	t.Setenv("KASIR_SESSION_TTL_MENIT", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg := Load()
	if cfg.DefaultTaxPercent != 12.5 {
		t.Errorf("pajak = %v", cfg.DefaultTaxPercent)
	}
	if !cfg.PriceIncludesTax {
		t.Error("harga include pajak harus true")
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("ttl = %v", cfg.SessionTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
}
