package radius

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/subtle"

	"layeh.com/radius"
	"layeh.com/radius/rfc2869"
)

// VerifyRequestAuthenticator はAccounting/CoA/Disconnect-RequestのRequest Authenticatorを検証する
// （RFC 2866 / RFC 5176）。
// 検証式: Authenticator = MD5(Code + ID + Length + 16 zero octets + Attributes + Secret)
// Access-RequestのAuthenticatorは乱数のためこの検証対象外。
func VerifyRequestAuthenticator(packet *radius.Packet, secret []byte) bool {
	// パケットをバイト列化
	data, err := packet.MarshalBinary()
	if err != nil {
		return false
	}

	if len(data) < 20 {
		return false
	}

	// 元のAuthenticator（オフセット4-19）を保存
	var origAuth [16]byte
	copy(origAuth[:], data[4:20])

	// Authenticatorフィールドを16個のゼロバイトに置換
	copy(data[4:20], make([]byte, 16))

	// MD5(Code + ID + Length + 16 zero + Attributes + Secret)
	h := md5.New()
	h.Write(data)
	h.Write(secret)
	expected := h.Sum(nil)

	return subtle.ConstantTimeCompare(origAuth[:], expected) == 1
}

// VerifyMessageAuthenticator はMessage-Authenticator属性を検証する（RFC 2869）。
// 属性が存在しない場合の扱いは呼び出し側で決める。
func VerifyMessageAuthenticator(packet *radius.Packet, secret []byte) bool {
	origMA, err := rfc2869.MessageAuthenticator_Lookup(packet)
	if err != nil {
		return false
	}
	if len(origMA) != 16 {
		return false
	}

	// 属性値を16バイトゼロに置換
	zeroMA := make([]byte, 16)
	_ = rfc2869.MessageAuthenticator_Set(packet, zeroMA)

	// パケットをバイト列化
	data, err := packet.MarshalBinary()
	if err != nil {
		_ = rfc2869.MessageAuthenticator_Set(packet, origMA)
		return false
	}

	// HMAC-MD5を計算
	mac := hmac.New(md5.New, secret)
	mac.Write(data)
	expected := mac.Sum(nil)

	// 元の値を復元
	_ = rfc2869.MessageAuthenticator_Set(packet, origMA)

	return hmac.Equal(expected, origMA)
}

// HasMessageAuthenticator はMessage-Authenticator属性の有無を返す。
func HasMessageAuthenticator(packet *radius.Packet) bool {
	_, err := rfc2869.MessageAuthenticator_Lookup(packet)
	return err == nil
}

// SetMessageAuthenticator は応答パケットにMessage-Authenticator属性を生成・設定する。
func SetMessageAuthenticator(packet *radius.Packet, secret []byte, requestAuth [16]byte) {
	// 16バイトゼロをプレースホルダーとして設定
	zeroMA := make([]byte, 16)
	_ = rfc2869.MessageAuthenticator_Set(packet, zeroMA)

	// Request Authenticatorを使用
	savedAuth := packet.Authenticator
	packet.Authenticator = requestAuth

	data, err := packet.MarshalBinary()
	if err != nil {
		packet.Authenticator = savedAuth
		return
	}

	// HMAC-MD5を計算
	mac := hmac.New(md5.New, secret)
	mac.Write(data)
	computed := mac.Sum(nil)

	// Authenticatorを復元
	packet.Authenticator = savedAuth

	// 計算結果で上書き
	_ = rfc2869.MessageAuthenticator_Set(packet, computed)
}
