package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/yamorin9/radscen/internal/config"
	"github.com/yamorin9/radscen/pkg/apperr"
	"github.com/yamorin9/radscen/pkg/redisclient"
)

// Store はRedisバックエンドのダイアログストア。
// 全操作をサーキットブレーカー経由で実行し、ストア障害時は
// アプリケーションエラー（ErrStoreUnavailable等）へ正規化する。
type Store struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	ttl    time.Duration
}

// NewStore はダイアログストアを生成する。ttlはレコードの有効期限。
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	cbSettings := gobreaker.Settings{
		Name:        "dialog-store",
		MaxRequests: 1,
		Timeout:     config.BreakerOpenInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.BreakerMaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("dialog store circuit breaker opened",
					"event_id", "STORE_CB_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateHalfOpen:
				slog.Info("dialog store circuit breaker half-open",
					"event_id", "STORE_CB_HALF_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateClosed:
				slog.Info("dialog store circuit breaker closed",
					"event_id", "STORE_CB_CLOSE",
					"cb_name", name,
				)
			}
		},
	}

	return &Store{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		ttl:    ttl,
	}
}

// Put はレコードを保存しTTLを（再）設定する。
func (s *Store) Put(ctx context.Context, key string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return apperr.NewStoreError("SET", key, err)
	}

	_, err = s.execute(ctx, func(opCtx context.Context) (any, error) {
		return nil, s.client.Set(opCtx, key, data, s.ttl).Err()
	})
	if err != nil {
		return apperr.NewStoreError("SET", key, err)
	}
	return nil
}

// Get はレコードを取得する。存在しない場合はErrDialogNotFoundを返す。
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	result, err := s.execute(ctx, func(opCtx context.Context) (any, error) {
		return s.client.Get(opCtx, key).Bytes()
	})
	if err != nil {
		return nil, apperr.NewStoreError("GET", key, err)
	}

	var rec Record
	if err := json.Unmarshal(result.([]byte), &rec); err != nil {
		return nil, apperr.NewStoreError("GET", key, err)
	}
	return &rec, nil
}

// Delete はレコードを削除する。存在しないキーの削除は何もしない（冪等）。
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.execute(ctx, func(opCtx context.Context) (any, error) {
		return nil, s.client.Del(opCtx, key).Err()
	})
	if err != nil {
		return apperr.NewStoreError("DEL", key, err)
	}
	return nil
}

// Exists はレコードの存在を確認する。整合パスが割当の生死判定に使う。
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	result, err := s.execute(ctx, func(opCtx context.Context) (any, error) {
		return s.client.Exists(opCtx, key).Result()
	})
	if err != nil {
		return false, apperr.NewStoreError("EXISTS", key, err)
	}
	return result.(int64) > 0, nil
}

// ScanKeys は指定プレフィックスに一致するキーを列挙する。
// 監視API向けであり、リクエスト処理パスでは使用しない。
func (s *Store) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	result, err := s.execute(ctx, func(opCtx context.Context) (any, error) {
		var keys []string
		var cursor uint64
		for {
			batch, next, err := s.client.Scan(opCtx, cursor, prefix+"*", 100).Result()
			if err != nil {
				return nil, err
			}
			keys = append(keys, batch...)
			if next == 0 {
				return keys, nil
			}
			cursor = next
		}
	})
	if err != nil {
		return nil, apperr.NewStoreError("SCAN", prefix, err)
	}
	return result.([]string), nil
}

// execute はコマンドタイムアウトとサーキットブレーカーを適用して1操作を実行する。
// redis.NilはErrDialogNotFoundへ変換し、CBの失敗カウントには含めない。
func (s *Store) execute(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	result, err := s.cb.Execute(func() (any, error) {
		opCtx, cancel := context.WithTimeout(ctx, config.RedisCommandTimeout)
		defer cancel()

		result, err := op(opCtx)
		if err != nil {
			if redisclient.IsKeyNotFound(err) {
				// キー不在はストア障害ではない
				return notFoundMarker{}, nil
			}
			return nil, err
		}
		return result, nil
	})

	if err != nil {
		return nil, normalizeStoreError(err)
	}
	if _, ok := result.(notFoundMarker); ok {
		return nil, apperr.ErrDialogNotFound
	}
	return result, nil
}

type notFoundMarker struct{}

// normalizeStoreError はRedis・CB由来のエラーをアプリケーションエラーへ変換する。
func normalizeStoreError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker open", apperr.ErrStoreUnavailable)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperr.ErrStoreTimeout, err)
	}
	if redisclient.IsConnectionError(err) {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
}
