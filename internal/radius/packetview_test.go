package radius

import (
	"testing"

	radiuspkg "layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
)

func TestPacketViewFirstValue(t *testing.T) {
	secret := []byte("testsecret")
	packet := radiuspkg.New(radiuspkg.CodeAccessRequest, secret)
	rfc2865.UserName_SetString(packet, "alice@example.org")
	rfc2865.NASIdentifier_SetString(packet, "nas01")
	rfc2866.AcctSessionID_SetString(packet, "sess-0001")

	view := NewPacketView(packet)

	tests := []struct {
		name string
		want string
	}{
		{"User-Name", "alice@example.org"},
		{"NAS-Identifier", "nas01"},
		{"Acct-Session-Id", "sess-0001"},
	}
	for _, tt := range tests {
		got, ok := view.FirstValue(tt.name)
		if !ok {
			t.Errorf("FirstValue(%q) not found", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("FirstValue(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, ok := view.FirstValue("Framed-IP-Address"); ok {
		t.Error("FirstValue should report absent attribute")
	}
	if _, ok := view.FirstValue("No-Such-Attribute"); ok {
		t.Error("FirstValue should report unknown attribute name")
	}
}

func TestPacketViewIntegerNormalization(t *testing.T) {
	packet := radiuspkg.New(radiuspkg.CodeAccountingRequest, []byte("testsecret"))
	rfc2866.AcctStatusType_Set(packet, rfc2866.AcctStatusType_Value_Start)

	view := NewPacketView(packet)
	got, ok := view.FirstValue("Acct-Status-Type")
	if !ok {
		t.Fatal("Acct-Status-Type not found")
	}
	// 整数属性は10進文字列へ正規化される
	if got != "1" {
		t.Errorf("FirstValue(Acct-Status-Type) = %q, want %q", got, "1")
	}
}

func TestPacketViewUserPassword(t *testing.T) {
	secret := []byte("testsecret")
	packet := radiuspkg.New(radiuspkg.CodeAccessRequest, secret)
	if err := rfc2865.UserPassword_SetString(packet, "pass123"); err != nil {
		t.Fatalf("UserPassword_SetString() error = %v", err)
	}

	view := NewPacketView(packet)
	got, ok := view.FirstValue("User-Password")
	if !ok {
		t.Fatal("User-Password not found")
	}
	// RFC 2865難読化の復号結果が返る
	if got != "pass123" {
		t.Errorf("FirstValue(User-Password) = %q, want %q", got, "pass123")
	}
}

func TestPacketViewHas(t *testing.T) {
	packet := radiuspkg.New(radiuspkg.CodeAccessRequest, []byte("testsecret"))
	rfc2865.UserName_SetString(packet, "bob")

	view := NewPacketView(packet)
	if !view.Has("User-Name") {
		t.Error("Has(User-Name) = false, want true")
	}
	if view.Has("Reply-Message") {
		t.Error("Has(Reply-Message) = true, want false")
	}
}
