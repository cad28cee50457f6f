package radius

import (
	"layeh.com/radius"
)

// Proxy-State属性タイプ（RFC 2865）
const attrTypeProxyState = radius.Type(33)

// ExtractProxyStates はリクエストからProxy-State属性を順序維持で抽出する。
func ExtractProxyStates(packet *radius.Packet) [][]byte {
	var states [][]byte
	for _, avp := range packet.Attributes {
		if avp.Type == attrTypeProxyState {
			states = append(states, avp.Attribute)
		}
	}
	return states
}

// ApplyProxyStates はProxy-State属性を応答パケットに追加する（順序維持）。
func ApplyProxyStates(packet *radius.Packet, states [][]byte) {
	for _, state := range states {
		packet.Add(attrTypeProxyState, state)
	}
}
