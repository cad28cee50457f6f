// Package config はアプリケーション設定を提供する。
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config はアプリケーション設定を保持する
type Config struct {
	// RADIUS設定
	RadiusSecret string `envconfig:"RADIUS_SECRET" default:"testsecret"`
	AuthAddr     string `envconfig:"AUTH_LISTEN_ADDR" default:":1812"`
	AcctAddr     string `envconfig:"ACCT_LISTEN_ADDR" default:":1813"`
	// CoA/Disconnect用の待受アドレス。空の場合はAcctAddrの待受で処理する。
	CoaAddr string `envconfig:"COA_LISTEN_ADDR" default:""`

	// シナリオ設定
	ScenarioPath string `envconfig:"SCENARIO_PATH" default:"./scenario.yml"`

	// Redis接続設定
	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPass string `envconfig:"REDIS_PASS" default:""`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// ダイアログレコードTTL（秒）
	DialogTTLSec int `envconfig:"DIALOG_TTL_SEC" default:"600"`

	// 検査用REST API設定
	APIAddr string `envconfig:"API_LISTEN_ADDR" default:":4711"`

	// プールのシャッフルシード。0の場合は現在時刻を使用する。
	ShuffleSeed int64 `envconfig:"POOL_SHUFFLE_SEED" default:"0"`

	// ログ設定
	LogLevel        string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogMaskUserName bool   `envconfig:"LOG_MASK_USERNAME" default:"false"`
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// RedisAddr はRedis接続アドレスを "host:port" 形式で返す
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
