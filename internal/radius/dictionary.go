// Package radius はRADIUSパケットの属性辞書・Authenticator検証・応答生成を提供する。
package radius

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"layeh.com/radius"

	"github.com/yamorin9/radscen/pkg/apperr"
)

// AttrKind は属性値の型種別。
// 設定上のYAML値とワイヤ上のバイト列の変換規則を決める。
type AttrKind int

const (
	// KindString はテキスト属性（UTF-8）。
	KindString AttrKind = iota
	// KindInteger は32bit符号なし整数属性。
	KindInteger
	// KindIPv4Addr はIPv4アドレス属性（4オクテット）。
	KindIPv4Addr
	// KindIPv6Prefix はIPv6プレフィックス属性（RFC 3162形式）。
	KindIPv6Prefix
	// KindOctets はオクテット列属性。
	KindOctets
)

// AttrDef は属性名に対応するタイプ値と型種別。
type AttrDef struct {
	Type radius.Type
	Kind AttrKind
}

// dictionary は属性名→定義のマッピング（RFC 2865/2866/2869/3162/4818/5176）。
var dictionary = map[string]AttrDef{
	"User-Name":             {Type: 1, Kind: KindString},
	"User-Password":         {Type: 2, Kind: KindString},
	"NAS-IP-Address":        {Type: 4, Kind: KindIPv4Addr},
	"NAS-Port":              {Type: 5, Kind: KindInteger},
	"Service-Type":          {Type: 6, Kind: KindInteger},
	"Framed-Protocol":       {Type: 7, Kind: KindInteger},
	"Framed-IP-Address":     {Type: 8, Kind: KindIPv4Addr},
	"Framed-IP-Netmask":     {Type: 9, Kind: KindIPv4Addr},
	"Filter-Id":             {Type: 11, Kind: KindString},
	"Framed-MTU":            {Type: 12, Kind: KindInteger},
	"Reply-Message":         {Type: 18, Kind: KindString},
	"State":                 {Type: 24, Kind: KindOctets},
	"Class":                 {Type: 25, Kind: KindOctets},
	"Session-Timeout":       {Type: 27, Kind: KindInteger},
	"Idle-Timeout":          {Type: 28, Kind: KindInteger},
	"Called-Station-Id":     {Type: 30, Kind: KindString},
	"Calling-Station-Id":    {Type: 31, Kind: KindString},
	"NAS-Identifier":        {Type: 32, Kind: KindString},
	"Proxy-State":           {Type: 33, Kind: KindOctets},
	"Acct-Status-Type":      {Type: 40, Kind: KindInteger},
	"Acct-Delay-Time":       {Type: 41, Kind: KindInteger},
	"Acct-Input-Octets":     {Type: 42, Kind: KindInteger},
	"Acct-Output-Octets":    {Type: 43, Kind: KindInteger},
	"Acct-Session-Id":       {Type: 44, Kind: KindString},
	"Acct-Authentic":        {Type: 45, Kind: KindInteger},
	"Acct-Session-Time":     {Type: 46, Kind: KindInteger},
	"Acct-Terminate-Cause":  {Type: 49, Kind: KindInteger},
	"Event-Timestamp":       {Type: 55, Kind: KindInteger},
	"NAS-Port-Type":         {Type: 61, Kind: KindInteger},
	"Message-Authenticator": {Type: 80, Kind: KindOctets},
	"Framed-IPv6-Prefix":    {Type: 97, Kind: KindIPv6Prefix},
	"Error-Cause":           {Type: 101, Kind: KindInteger},
	"Delegated-IPv6-Prefix": {Type: 123, Kind: KindIPv6Prefix},
}

// LookupAttr は属性名から定義を引く。
func LookupAttr(name string) (AttrDef, bool) {
	def, ok := dictionary[name]
	return def, ok
}

// EncodeValue は文字列値を属性のワイヤ形式へ変換する。
func EncodeValue(def AttrDef, value string) (radius.Attribute, error) {
	switch def.Kind {
	case KindString:
		return radius.Attribute(value), nil

	case KindInteger:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value %q: %w", value, err)
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(n))
		return radius.Attribute(buf), nil

	case KindIPv4Addr:
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("invalid IPv4 address %q", value)
		}
		return radius.Attribute(ip.To4()), nil

	case KindIPv6Prefix:
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			// プレフィックス長なしの場合は/128として扱う
			addr, aerr := netip.ParseAddr(value)
			if aerr != nil || !addr.Is6() {
				return nil, fmt.Errorf("invalid IPv6 prefix %q", value)
			}
			prefix = netip.PrefixFrom(addr, 128)
		}
		if !prefix.Addr().Is6() {
			return nil, fmt.Errorf("invalid IPv6 prefix %q", value)
		}
		// RFC 3162: Reserved(1) + Prefix-Length(1) + Prefix（有効ビットを含むオクテット数）
		plen := prefix.Bits()
		nbytes := (plen + 7) / 8
		addr16 := prefix.Addr().As16()
		buf := make([]byte, 2+nbytes)
		buf[1] = byte(plen)
		copy(buf[2:], addr16[:nbytes])
		return radius.Attribute(buf), nil

	case KindOctets:
		if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
			raw, err := hex.DecodeString(value[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex value %q: %w", value, err)
			}
			return radius.Attribute(raw), nil
		}
		return radius.Attribute(value), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", apperr.ErrUnknownAttribute, def.Kind)
}

// DecodeValue は属性のワイヤ形式を文字列値へ変換する。
// マッチャの文字列正規化比較とAPI表示に使用する。
func DecodeValue(def AttrDef, attr radius.Attribute) string {
	switch def.Kind {
	case KindString:
		return string(attr)

	case KindInteger:
		if len(attr) < 4 {
			return ""
		}
		return strconv.FormatUint(uint64(binary.BigEndian.Uint32(attr)), 10)

	case KindIPv4Addr:
		if len(attr) != 4 {
			return ""
		}
		return net.IP(attr).String()

	case KindIPv6Prefix:
		if len(attr) < 2 {
			return ""
		}
		plen := int(attr[1])
		var addr16 [16]byte
		copy(addr16[:], attr[2:])
		prefix := netip.PrefixFrom(netip.AddrFrom16(addr16), plen)
		return prefix.String()

	case KindOctets:
		if isPrintable(attr) {
			return string(attr)
		}
		return "0x" + hex.EncodeToString(attr)
	}
	return ""
}

// isPrintable は表示可能なASCII文字のみで構成されるかを返す。
func isPrintable(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
