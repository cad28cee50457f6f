package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/yamorin9/radscen/internal/metrics"
	"github.com/yamorin9/radscen/internal/pool"
)

// ExistenceStore はダイアログレコードの存在確認。
type ExistenceStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Reconciler はTTL失効したダイアログのプール割当を定期的に解放する。
// Stopパケットを失ったセッション（クライアントクラッシュ等）の
// アドレスリークを防ぐ整合パス。
type Reconciler struct {
	pools    *pool.Manager
	store    ExistenceStore
	interval time.Duration
}

// NewReconciler はReconcilerを生成する。
func NewReconciler(pools *pool.Manager, store ExistenceStore, interval time.Duration) *Reconciler {
	return &Reconciler{
		pools:    pools,
		store:    store,
		interval: interval,
	}
}

// Run はコンテキストがキャンセルされるまで整合パスを周期実行する。
func (rc *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rc.reconcile(ctx)
		}
	}
}

// reconcile はダイアログレコードが失効した割当を解放し、占有ゲージを更新する。
// ストア障害時はこのサイクルを中断する（誤解放を避ける）。
func (rc *Reconciler) reconcile(ctx context.Context) {
	for _, b := range rc.pools.Bindings() {
		exists, err := rc.store.Exists(ctx, b.DialogKey)
		if err != nil {
			slog.Warn("reconcile pass degraded",
				"event_id", "STORE_GET_ERR",
				"dialog_key", b.DialogKey,
				"error", err.Error(),
			)
			return
		}
		if exists {
			continue
		}

		for _, released := range rc.pools.Release(b.DialogKey) {
			slog.Info("orphaned allocation released",
				"event_id", "POOL_RECLAIM",
				"pool", released.Pool,
				"dialog_key", released.DialogKey,
				"address", released.Address,
			)
			metrics.PoolReleasesTotal.WithLabelValues(released.Pool).Inc()
		}
	}

	metrics.UpdatePoolGauges(rc.pools.Snapshot())
}
