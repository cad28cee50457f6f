// Package apperr は共通エラー定義を提供する。
package apperr

import "errors"

// パケット関連エラー
var (
	// ErrMalformedPacket はデコード不能なRADIUSパケットエラー
	ErrMalformedPacket = errors.New("malformed RADIUS packet")
	// ErrInvalidAuthenticator はRequest Authenticator検証失敗エラー
	ErrInvalidAuthenticator = errors.New("invalid authenticator")
	// ErrInvalidMessageAuthenticator はMessage-Authenticator検証失敗エラー
	ErrInvalidMessageAuthenticator = errors.New("invalid message authenticator")
	// ErrUnsupportedCode は未サポートのパケットコードエラー
	ErrUnsupportedCode = errors.New("unsupported packet code")
	// ErrUnknownAttribute は辞書に存在しないアトリビュート名エラー
	ErrUnknownAttribute = errors.New("unknown attribute name")
)

// シナリオ・マッチング関連エラー
var (
	// ErrNoRuleMatch はマッチするルールが存在しない場合のエラー
	ErrNoRuleMatch = errors.New("no rule matched")
	// ErrReplyNotDefined は参照先のリプライ定義が存在しない場合のエラー
	ErrReplyNotDefined = errors.New("reply definition not found")
	// ErrInvalidScenario はシナリオ設定の検証エラー
	ErrInvalidScenario = errors.New("invalid scenario configuration")
)

// アドレスプール関連エラー
var (
	// ErrPoolExhausted はプール内の空きアドレス枯渇エラー
	ErrPoolExhausted = errors.New("address pool exhausted")
	// ErrPoolNotFound は参照先のプールが存在しない場合のエラー
	ErrPoolNotFound = errors.New("address pool not found")
	// ErrUnresolvedPlaceholder は解決できないプレースホルダーエラー
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
)

// ダイアログストア関連エラー
var (
	// ErrDialogNotFound はダイアログレコードが見つからない場合のエラー
	ErrDialogNotFound = errors.New("dialog not found")
	// ErrStoreUnavailable はストア接続不能エラー
	ErrStoreUnavailable = errors.New("dialog store unavailable")
	// ErrStoreTimeout はストア操作タイムアウトエラー
	ErrStoreTimeout = errors.New("dialog store timeout")
)
