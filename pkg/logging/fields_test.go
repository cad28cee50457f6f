package logging

import (
	"errors"
	"testing"
)

func TestWithTraceID(t *testing.T) {
	attr := WithTraceID("trace-12345")
	if attr.Key != FieldTraceID {
		t.Errorf("Key = %q, want %q", attr.Key, FieldTraceID)
	}
	if attr.Value.String() != "trace-12345" {
		t.Errorf("Value = %q, want %q", attr.Value.String(), "trace-12345")
	}
}

func TestWithEventID(t *testing.T) {
	attr := WithEventID("ACCESS_ACCEPT")
	if attr.Key != FieldEventID {
		t.Errorf("Key = %q, want %q", attr.Key, FieldEventID)
	}
	if attr.Value.String() != "ACCESS_ACCEPT" {
		t.Errorf("Value = %q, want %q", attr.Value.String(), "ACCESS_ACCEPT")
	}
}

func TestWithError(t *testing.T) {
	t.Run("With error", func(t *testing.T) {
		err := errors.New("connection failed")
		attr := WithError(err)
		if attr.Key != FieldError {
			t.Errorf("Key = %q, want %q", attr.Key, FieldError)
		}
		if attr.Value.String() != "connection failed" {
			t.Errorf("Value = %q, want %q", attr.Value.String(), "connection failed")
		}
	})

	t.Run("With nil error", func(t *testing.T) {
		attr := WithError(nil)
		if attr.Key != FieldError {
			t.Errorf("Key = %q, want %q", attr.Key, FieldError)
		}
		if attr.Value.String() != "" {
			t.Errorf("Value = %q, want empty string", attr.Value.String())
		}
	})
}

func TestWithSrcIP(t *testing.T) {
	attr := WithSrcIP("192.168.1.100")
	if attr.Key != FieldSrcIP {
		t.Errorf("Key = %q, want %q", attr.Key, FieldSrcIP)
	}
	if attr.Value.String() != "192.168.1.100" {
		t.Errorf("Value = %q, want %q", attr.Value.String(), "192.168.1.100")
	}
}

func TestWithDialogKey(t *testing.T) {
	attr := WithDialogKey("radscen::auth:alice")
	if attr.Key != FieldDialogKey {
		t.Errorf("Key = %q, want %q", attr.Key, FieldDialogKey)
	}
	if attr.Value.String() != "radscen::auth:alice" {
		t.Errorf("Value = %q, want %q", attr.Value.String(), "radscen::auth:alice")
	}
}

func TestWithPool(t *testing.T) {
	attr := WithPool("pool_gold")
	if attr.Key != FieldPool {
		t.Errorf("Key = %q, want %q", attr.Key, FieldPool)
	}
	if attr.Value.String() != "pool_gold" {
		t.Errorf("Value = %q, want %q", attr.Value.String(), "pool_gold")
	}
}

func TestWithCodeAndIdentifier(t *testing.T) {
	code := WithCode(2)
	if code.Key != FieldCode || code.Value.Int64() != 2 {
		t.Errorf("WithCode = %v, want code=2", code)
	}
	id := WithIdentifier(17)
	if id.Key != FieldIdentifier || id.Value.Int64() != 17 {
		t.Errorf("WithIdentifier = %v, want identifier=17", id)
	}
}

func TestCommonFields(t *testing.T) {
	t.Run("WithUserName with masking", func(t *testing.T) {
		masker := NewMasker(true)
		cf := NewCommonFields(masker)
		attr := cf.WithUserName("alice@example.org")
		if attr.Key != FieldUserName {
			t.Errorf("Key = %q, want %q", attr.Key, FieldUserName)
		}
		want := "al**************g"
		if attr.Value.String() != want {
			t.Errorf("Value = %q, want %q", attr.Value.String(), want)
		}
	})

	t.Run("WithUserName without masking", func(t *testing.T) {
		masker := NewMasker(false)
		cf := NewCommonFields(masker)
		attr := cf.WithUserName("alice@example.org")
		if attr.Value.String() != "alice@example.org" {
			t.Errorf("Value = %q, want %q", attr.Value.String(), "alice@example.org")
		}
	})

	t.Run("NewCommonFields with nil masker", func(t *testing.T) {
		cf := NewCommonFields(nil)
		attr := cf.WithUserName("alice@example.org")
		// nilの場合はマスキング無効で初期化される
		if attr.Value.String() != "alice@example.org" {
			t.Errorf("Value = %q, want %q", attr.Value.String(), "alice@example.org")
		}
	})

	t.Run("RequestLogFields", func(t *testing.T) {
		masker := NewMasker(true)
		cf := NewCommonFields(masker)
		fields := cf.RequestLogFields("trace-abc", "ACCESS_REQUEST", "alice@example.org")

		if len(fields) != 3 {
			t.Fatalf("fields length = %d, want %d", len(fields), 3)
		}
	})
}
