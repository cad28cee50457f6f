// Package metrics はPrometheusメトリクスを定義する。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yamorin9/radscen/internal/pool"
)

var (
	// RequestsTotal は受信リクエスト数（カテゴリ・コード別）。
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_requests_total",
		Help: "Total number of received RADIUS requests.",
	}, []string{"category", "code"})

	// ResponsesTotal は送信応答数（カテゴリ・コード別）。
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_responses_total",
		Help: "Total number of sent RADIUS responses.",
	}, []string{"category", "code"})

	// DroppedTotal は無応答で破棄したリクエスト数（理由別）。
	DroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_dropped_total",
		Help: "Total number of silently discarded RADIUS requests.",
	}, []string{"category", "reason"})

	// DuplicatesTotal は再送として検出しキャッシュ応答を返した数。
	DuplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_duplicates_total",
		Help: "Total number of retransmissions answered from the dialog cache.",
	}, []string{"category"})

	// PoolAllocationsTotal はアドレス割当数（プール・ファミリ別）。
	PoolAllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_pool_allocations_total",
		Help: "Total number of address pool allocations.",
	}, []string{"pool", "family"})

	// PoolReleasesTotal はアドレス解放数（プール別）。
	PoolReleasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_pool_releases_total",
		Help: "Total number of address pool releases.",
	}, []string{"pool"})

	// PoolCapacity はプールの総アドレス数。
	PoolCapacity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "radscen_pool_capacity",
		Help: "Total number of addresses in each pool.",
	}, []string{"pool", "family"})

	// PoolAssigned はプールの割当中アドレス数。
	PoolAssigned = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "radscen_pool_assigned",
		Help: "Number of currently assigned addresses in each pool.",
	}, []string{"pool", "family"})

	// StoreErrorsTotal はダイアログストア操作の失敗数（操作別）。
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radscen_store_errors_total",
		Help: "Total number of failed dialog store operations.",
	}, []string{"operation"})
)

// UpdatePoolGauges はプール占有スナップショットをゲージへ反映する。
func UpdatePoolGauges(statuses []pool.Status) {
	for _, st := range statuses {
		for family, fs := range st.Families {
			PoolCapacity.WithLabelValues(st.Name, family).Set(float64(fs.Total))
			PoolAssigned.WithLabelValues(st.Name, family).Set(float64(fs.Assigned))
		}
	}
}
