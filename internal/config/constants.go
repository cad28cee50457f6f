package config

import "time"

// Redis接続設定
const (
	RedisConnectTimeout = 3 * time.Second
	RedisCommandTimeout = 2 * time.Second
	RedisPoolSize       = 10
)

// ダイアログストアのサーキットブレーカー設定
const (
	BreakerMaxFailures  = 3
	BreakerOpenInterval = 10 * time.Second
)

// プール・ダイアログの整合パス実行間隔
const (
	ReconcileInterval = 30 * time.Second
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 5 * time.Second
)
