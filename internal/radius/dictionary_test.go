package radius

import (
	"bytes"
	"testing"
)

func TestLookupAttr(t *testing.T) {
	tests := []struct {
		name     string
		wantType int
		wantKind AttrKind
	}{
		{"User-Name", 1, KindString},
		{"Framed-IP-Address", 8, KindIPv4Addr},
		{"Session-Timeout", 27, KindInteger},
		{"Class", 25, KindOctets},
		{"Framed-IPv6-Prefix", 97, KindIPv6Prefix},
		{"Delegated-IPv6-Prefix", 123, KindIPv6Prefix},
		{"Acct-Session-Id", 44, KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := LookupAttr(tt.name)
			if !ok {
				t.Fatalf("LookupAttr(%q) not found", tt.name)
			}
			if int(def.Type) != tt.wantType {
				t.Errorf("Type = %d, want %d", def.Type, tt.wantType)
			}
			if def.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", def.Kind, tt.wantKind)
			}
		})
	}

	if _, ok := LookupAttr("No-Such-Attribute"); ok {
		t.Error("LookupAttr should fail for unknown attribute")
	}
}

func TestEncodeValueString(t *testing.T) {
	def, _ := LookupAttr("User-Name")
	attr, err := EncodeValue(def, "alice")
	if err != nil {
		t.Fatalf("EncodeValue() error = %v", err)
	}
	if string(attr) != "alice" {
		t.Errorf("encoded = %q, want %q", attr, "alice")
	}
}

func TestEncodeValueInteger(t *testing.T) {
	def, _ := LookupAttr("Session-Timeout")
	attr, err := EncodeValue(def, "3600")
	if err != nil {
		t.Fatalf("EncodeValue() error = %v", err)
	}
	want := []byte{0x00, 0x00, 0x0e, 0x10}
	if !bytes.Equal(attr, want) {
		t.Errorf("encoded = %v, want %v", attr, want)
	}

	if _, err := EncodeValue(def, "not-a-number"); err == nil {
		t.Error("EncodeValue() expected error for non-integer value")
	}
}

func TestEncodeValueIPv4(t *testing.T) {
	def, _ := LookupAttr("Framed-IP-Address")
	attr, err := EncodeValue(def, "10.0.0.1")
	if err != nil {
		t.Fatalf("EncodeValue() error = %v", err)
	}
	want := []byte{10, 0, 0, 1}
	if !bytes.Equal(attr, want) {
		t.Errorf("encoded = %v, want %v", attr, want)
	}

	if _, err := EncodeValue(def, "2001:db8::1"); err == nil {
		t.Error("EncodeValue() expected error for IPv6 value in IPv4 attribute")
	}
}

func TestEncodeValueIPv6Prefix(t *testing.T) {
	def, _ := LookupAttr("Framed-IPv6-Prefix")
	attr, err := EncodeValue(def, "2001:db8:1::/64")
	if err != nil {
		t.Fatalf("EncodeValue() error = %v", err)
	}
	// Reserved(0) + PrefixLen(64) + 8オクテットのプレフィックス
	want := []byte{0x00, 64, 0x20, 0x01, 0x0d, 0xb8, 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(attr, want) {
		t.Errorf("encoded = %v, want %v", attr, want)
	}

	if _, err := EncodeValue(def, "10.0.0.0/24"); err == nil {
		t.Error("EncodeValue() expected error for IPv4 prefix")
	}
}

func TestEncodeValueOctets(t *testing.T) {
	def, _ := LookupAttr("Class")

	t.Run("hex prefixed", func(t *testing.T) {
		attr, err := EncodeValue(def, "0xdeadbeef")
		if err != nil {
			t.Fatalf("EncodeValue() error = %v", err)
		}
		want := []byte{0xde, 0xad, 0xbe, 0xef}
		if !bytes.Equal(attr, want) {
			t.Errorf("encoded = %v, want %v", attr, want)
		}
	})

	t.Run("raw string", func(t *testing.T) {
		attr, err := EncodeValue(def, "session-class-1")
		if err != nil {
			t.Fatalf("EncodeValue() error = %v", err)
		}
		if string(attr) != "session-class-1" {
			t.Errorf("encoded = %q, want %q", attr, "session-class-1")
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		if _, err := EncodeValue(def, "0xzz"); err == nil {
			t.Error("EncodeValue() expected error for invalid hex")
		}
	})
}

func TestDecodeValueRoundTrip(t *testing.T) {
	tests := []struct {
		attr  string
		value string
	}{
		{"User-Name", "alice@example.org"},
		{"Session-Timeout", "3600"},
		{"Framed-IP-Address", "192.0.2.7"},
		{"Framed-IPv6-Prefix", "2001:db8:1::/64"},
	}

	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			def, _ := LookupAttr(tt.attr)
			encoded, err := EncodeValue(def, tt.value)
			if err != nil {
				t.Fatalf("EncodeValue() error = %v", err)
			}
			got := DecodeValue(def, encoded)
			if got != tt.value {
				t.Errorf("DecodeValue() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestDecodeValueOctets(t *testing.T) {
	def, _ := LookupAttr("Class")

	// 表示可能な文字列はそのまま
	if got := DecodeValue(def, []byte("readable")); got != "readable" {
		t.Errorf("DecodeValue() = %q, want %q", got, "readable")
	}

	// バイナリは16進表記
	if got := DecodeValue(def, []byte{0x00, 0x01}); got != "0x0001" {
		t.Errorf("DecodeValue() = %q, want %q", got, "0x0001")
	}
}
