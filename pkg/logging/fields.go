package logging

import "log/slog"

// ログフィールド名の定数
const (
	FieldTraceID    = "trace_id"
	FieldEventID    = "event_id"
	FieldError      = "error"
	FieldSrcIP      = "src_ip"
	FieldLatencyMs  = "latency_ms"
	FieldHTTPStatus = "http_status"
	FieldUserName   = "user_name"
	FieldDialogKey  = "dialog_key"
	FieldPool       = "pool"
	FieldCode       = "code"
	FieldIdentifier = "identifier"
)

// WithTraceID はトレースIDのslog.Attrを返す。
func WithTraceID(traceID string) slog.Attr {
	return slog.String(FieldTraceID, traceID)
}

// WithEventID はイベントIDのslog.Attrを返す。
func WithEventID(eventID string) slog.Attr {
	return slog.String(FieldEventID, eventID)
}

// WithError はエラーのslog.Attrを返す。
func WithError(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// WithSrcIP はソースIPアドレスのslog.Attrを返す。
func WithSrcIP(ip string) slog.Attr {
	return slog.String(FieldSrcIP, ip)
}

// WithLatency はレイテンシ（ミリ秒）のslog.Attrを返す。
func WithLatency(ms int64) slog.Attr {
	return slog.Int64(FieldLatencyMs, ms)
}

// WithHTTPStatus はHTTPステータスコードのslog.Attrを返す。
func WithHTTPStatus(status int) slog.Attr {
	return slog.Int(FieldHTTPStatus, status)
}

// WithDialogKey はダイアログキーのslog.Attrを返す。
func WithDialogKey(key string) slog.Attr {
	return slog.String(FieldDialogKey, key)
}

// WithPool はプール名のslog.Attrを返す。
func WithPool(name string) slog.Attr {
	return slog.String(FieldPool, name)
}

// WithCode はRADIUSパケットコードのslog.Attrを返す。
func WithCode(code int) slog.Attr {
	return slog.Int(FieldCode, code)
}

// WithIdentifier はRADIUSパケット識別子のslog.Attrを返す。
func WithIdentifier(id int) slog.Attr {
	return slog.Int(FieldIdentifier, id)
}

// CommonFields はマスキング設定を保持するログフィールド生成器。
type CommonFields struct {
	masker *Masker
}

// NewCommonFields は新しいCommonFieldsを生成する。
func NewCommonFields(masker *Masker) *CommonFields {
	if masker == nil {
		masker = NewMasker(false)
	}
	return &CommonFields{masker: masker}
}

// WithUserName はマスキングされたUser-Nameのslog.Attrを返す。
func (cf *CommonFields) WithUserName(name string) slog.Attr {
	return slog.String(FieldUserName, cf.masker.UserName(name))
}

// RequestLogFields はリクエストログ用の共通フィールドを返す。
func (cf *CommonFields) RequestLogFields(traceID, eventID, userName string) []any {
	return []any{
		WithTraceID(traceID),
		WithEventID(eventID),
		cf.WithUserName(userName),
	}
}
