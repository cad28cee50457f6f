// Package main はradscend（シナリオ駆動RADIUSテストサーバー）のエントリーポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"layeh.com/radius"

	"github.com/yamorin9/radscen/internal/api"
	"github.com/yamorin9/radscen/internal/config"
	"github.com/yamorin9/radscen/internal/dialog"
	"github.com/yamorin9/radscen/internal/pool"
	"github.com/yamorin9/radscen/internal/scenario"
	"github.com/yamorin9/radscen/internal/server"
	"github.com/yamorin9/radscen/pkg/logging"
	"github.com/yamorin9/radscen/pkg/redisclient"
)

func main() {
	// 1. 環境変数読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定読み込み失敗", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化（JSON形式）
	initLogger(cfg.LogLevel)

	slog.Info("radscend起動開始",
		"auth_addr", cfg.AuthAddr,
		"acct_addr", cfg.AcctAddr,
		"scenario_path", cfg.ScenarioPath,
	)

	// 3. シナリオ読み込み
	scn, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		slog.Error("シナリオ読み込み失敗",
			"event_id", "SCENARIO_ERR",
			"path", cfg.ScenarioPath,
			"error", err,
		)
		os.Exit(1)
	}
	slog.Info("シナリオ読み込み完了",
		"pools", len(scn.AddressPools),
		"pool_rules", len(scn.PoolMatchRules),
	)

	// 4. Redisクライアント初期化
	// 接続不能でも起動は継続する（ダイアログ機能は縮退運転）
	redisOpts := redisclient.DefaultOptions().
		WithAddr(cfg.RedisAddr()).
		WithPassword(cfg.RedisPass).
		WithDB(cfg.RedisDB).
		WithTimeouts(config.RedisConnectTimeout, config.RedisCommandTimeout, config.RedisCommandTimeout).
		WithPool(config.RedisPoolSize, 2)
	redisClient := redisclient.NewClientLazy(redisOpts)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), config.RedisConnectTimeout)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis接続失敗、縮退運転で起動",
			"event_id", "STORE_CONN_ERR",
			"addr", cfg.RedisAddr(),
			"error", err,
		)
	} else {
		slog.Info("Redis接続完了", "addr", cfg.RedisAddr())
	}
	pingCancel()

	// 5. プールマネージャ生成
	seed := cfg.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pools, err := pool.NewManager(scn.AddressPools, seed)
	if err != nil {
		slog.Error("プール構築失敗", "event_id", "SCENARIO_ERR", "error", err)
		os.Exit(1)
	}

	// 6. ダイアログストア生成
	store := dialog.NewStore(redisClient, time.Duration(cfg.DialogTTLSec)*time.Second)

	// 7. ディスパッチャ生成
	masker := logging.NewMasker(cfg.LogMaskUserName)
	dispatcher := server.NewDispatcher(scn, pools, store, masker)

	// 8. RADIUSサーバー起動（認証・アカウンティング、任意でCoA/Disconnect専用）
	secretSource := radius.StaticSecretSource([]byte(cfg.RadiusSecret))

	authSrv := server.NewServer(cfg.AuthAddr, server.NewHandler(dispatcher, radius.CodeAccessAccept), secretSource)
	acctSrv := server.NewServer(cfg.AcctAddr, server.NewHandler(dispatcher, radius.CodeAccountingResponse), secretSource)

	servers := map[string]*server.Server{
		cfg.AuthAddr: authSrv,
		cfg.AcctAddr: acctSrv,
	}
	if cfg.CoaAddr != "" {
		servers[cfg.CoaAddr] = server.NewServer(cfg.CoaAddr, server.NewHandler(dispatcher, radius.CodeAccountingResponse), secretSource)
	}

	for addr, srv := range servers {
		go func(addr string, srv *server.Server) {
			slog.Info("RADIUSサーバー起動", "addr", addr)
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("サーバーエラー", "addr", addr, "error", err)
			}
		}(addr, srv)
	}

	// 9. 監視API起動
	apiHandler := api.NewHandler(pools, store, scn.Storage.Prefix)
	apiSrv := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewEngine(apiHandler),
	}
	go func() {
		slog.Info("監視API起動", "addr", cfg.APIAddr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("監視APIエラー", "error", err)
		}
	}()

	// 10. 整合パス起動（TTL失効ダイアログの割当解放）
	reconcileCtx, reconcileCancel := context.WithCancel(context.Background())
	reconciler := server.NewReconciler(pools, store, config.ReconcileInterval)
	go reconciler.Run(reconcileCtx)

	// 11. シグナル待機 → Graceful Shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	slog.Info("シグナル受信、シャットダウン開始", "signal", sig)

	reconcileCancel()

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	for addr, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("シャットダウンエラー", "addr", addr, "error", err)
		}
	}
	if err := apiSrv.Shutdown(ctx); err != nil {
		slog.Warn("監視APIシャットダウンエラー", "error", err)
	}

	slog.Info("radscend停止完了")
}

// initLogger はJSON形式のデフォルトロガーを設定する。
func initLogger(level string) {
	var lv slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lv = slog.LevelDebug
	case "WARN":
		lv = slog.LevelWarn
	case "ERROR":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lv,
	})).With("app", "radscend")
	slog.SetDefault(logger)
}
