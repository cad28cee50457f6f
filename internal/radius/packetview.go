package radius

import (
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// PacketView はデコード済みパケットへの名前ベースの読み取りビュー。
// マッチャとリプライビルダーが文字列正規化された値を参照するために使う。
type PacketView struct {
	packet *radius.Packet
}

// NewPacketView は新しいPacketViewを生成する。
func NewPacketView(packet *radius.Packet) *PacketView {
	return &PacketView{packet: packet}
}

// FirstValue は指定属性の最初の値を文字列正規化して返す。
// User-PasswordはRFC 2865の難読化を復号した平文を返す。
func (v *PacketView) FirstValue(name string) (string, bool) {
	def, ok := LookupAttr(name)
	if !ok {
		return "", false
	}

	if name == "User-Password" {
		password, err := rfc2865.UserPassword_LookupString(v.packet)
		if err != nil {
			return "", false
		}
		return password, true
	}

	for _, avp := range v.packet.Attributes {
		if avp.Type == def.Type {
			return DecodeValue(def, avp.Attribute), true
		}
	}
	return "", false
}

// Has は指定属性が存在するかを返す。
func (v *PacketView) Has(name string) bool {
	_, ok := v.FirstValue(name)
	return ok
}
