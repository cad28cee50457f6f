package dialog

import (
	"encoding/hex"
	"time"

	radpkt "github.com/yamorin9/radscen/internal/radius"
)

// Record は1ダイアログの永続化レコード。
// 重複検出用に最後に処理したリクエストの識別情報と、
// 再送応答の再構築に必要な解決済み応答内容を保持する。
type Record struct {
	Category      string            `json:"category"`
	Code          int               `json:"code"`          // 最後に処理したリクエストコード
	Identifier    int               `json:"identifier"`    // 同リクエストのIdentifier
	Authenticator string            `json:"authenticator"` // 同リクエストのRequest Authenticator（hex）
	Pool          string            `json:"pool,omitempty"`
	Addresses     map[string]string `json:"addresses,omitempty"` // family -> 割当アドレス

	ReplyCode  int                       `json:"reply_code"`
	ReplyAttrs []radpkt.ResolvedAttribute `json:"reply_attrs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetRequest は最後に処理したリクエストの識別情報を記録する。
func (r *Record) SetRequest(code int, identifier byte, authenticator [16]byte) {
	r.Code = code
	r.Identifier = int(identifier)
	r.Authenticator = hex.EncodeToString(authenticator[:])
}

// IsDuplicate は同一Identifier・同一Request Authenticatorの再送かどうかを判定する。
func (r *Record) IsDuplicate(identifier byte, authenticator [16]byte) bool {
	return r.Identifier == int(identifier) &&
		r.Authenticator == hex.EncodeToString(authenticator[:])
}
