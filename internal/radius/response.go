package radius

import (
	"fmt"

	"layeh.com/radius"

	"github.com/yamorin9/radscen/pkg/apperr"
)

// ResolvedAttribute はディレクティブ解決済みの応答属性（名前と文字列値）。
// ダイアログレコードへの保存と応答の再構築の両方で同じ表現を使う。
type ResolvedAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CodeForInt は設定上の数値コードをradius.Codeへ変換する。
func CodeForInt(code int) (radius.Code, error) {
	switch code {
	case 2:
		return radius.CodeAccessAccept, nil
	case 3:
		return radius.CodeAccessReject, nil
	case 5:
		return radius.CodeAccountingResponse, nil
	case 11:
		return radius.CodeAccessChallenge, nil
	case 44:
		return radius.CodeCoAACK, nil
	case 45:
		return radius.CodeCoANAK, nil
	case 41:
		return radius.CodeDisconnectACK, nil
	case 42:
		return radius.CodeDisconnectNAK, nil
	}
	return 0, fmt.Errorf("%w: %d", apperr.ErrUnsupportedCode, code)
}

// BuildReply はリクエストに対する応答パケットを生成する。
// 解決済み属性を順序どおりにエンコードし、Proxy-Stateをエコーバックする。
// Response Authenticatorはgo-radiusライブラリのEncode()が自動計算する。
func BuildReply(request *radius.Packet, code radius.Code, attrs []ResolvedAttribute) (*radius.Packet, error) {
	response := request.Response(code)

	for _, attr := range attrs {
		def, ok := LookupAttr(attr.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownAttribute, attr.Name)
		}
		encoded, err := EncodeValue(def, attr.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", attr.Name, err)
		}
		response.Add(def.Type, encoded)
	}

	// Proxy-Stateエコーバック
	ApplyProxyStates(response, ExtractProxyStates(request))

	// リクエストにMessage-Authenticatorがある場合は応答にも付与する
	if HasMessageAuthenticator(request) {
		SetMessageAuthenticator(response, request.Secret, request.Authenticator)
	}

	return response, nil
}
