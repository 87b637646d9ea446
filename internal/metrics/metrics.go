// Package metrics kumpulan collector prometheus utk service kasir.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "checkout_total",
		Help:      "Jumlah checkout per hasil akhir.",
	}, []string{"outcome", "metode"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kasir",
		Name:      "checkout_duration_seconds",
		Help:      "Durasi pipeline checkout end-to-end.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	CheckoutRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "checkout_retries_total",
		Help:      "Jumlah retry karena konflik konkurensi.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "http_requests_total",
		Help:      "Jumlah request HTTP per rute dan status.",
	}, []string{"method", "route", "status"})
)

// Handler endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
