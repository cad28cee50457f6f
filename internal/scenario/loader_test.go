package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yamorin9/radscen/pkg/apperr"
)

const validScenario = `
address_pools:
  pool1:
    shuffle: false
    ipv4:
      - 10.0.0.0/24
  pool6:
    shuffle: true
    ipv6:
      - 2001:db8::/48
    ipv6_delegated:
      - 2001:db8:f000::/40

reply_definitions:
  auth:
    ok1:
      code: 2
      attributes:
        Reply-Message: "OK for alice"
        Framed-IP-Address: "-> fromPool"
        Class: "-> fromUuid"
    ng1:
      code: 3
      attributes:
        Reply-Message: "rejected"
  acct:
    ack1:
      code: 5
      attributes:

pool_match_rules:
  - pool1:
      - User-Name: alice
  - pool6:
      - User-Name: bob
        NAS-Identifier: nas01

reply_match_rules:
  auth:
    - ok1:
        - User-Name: alice
    - ng1:
  acct:
    - ack1:

redis_storage:
  prefix: "radscen::"
  auth:
    - User-Name
  acct:
    - Acct-Session-Id
  coa:
    - Acct-Session-Id
  disc:
    - Acct-Session-Id
`

func TestParseValidScenario(t *testing.T) {
	sc, err := Parse([]byte(validScenario))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(sc.AddressPools) != 2 {
		t.Errorf("AddressPools count = %d, want 2", len(sc.AddressPools))
	}
	if !sc.AddressPools["pool6"].Shuffle {
		t.Error("pool6.Shuffle = false, want true")
	}

	// リプライ定義の順序保持
	ok1, found := sc.ReplyDefinition(CategoryAuth, "ok1")
	if !found {
		t.Fatal("reply ok1 not found")
	}
	if ok1.Name != "ok1" {
		t.Errorf("ok1.Name = %q, want %q", ok1.Name, "ok1")
	}
	if ok1.Code != 2 {
		t.Errorf("ok1.Code = %d, want 2", ok1.Code)
	}
	if len(ok1.Attributes) != 3 {
		t.Fatalf("ok1.Attributes count = %d, want 3", len(ok1.Attributes))
	}
	if ok1.Attributes[0].Name != "Reply-Message" {
		t.Errorf("first attribute = %q, want Reply-Message", ok1.Attributes[0].Name)
	}
	if ok1.Attributes[1].Directive.Kind != DirectiveFromPool {
		t.Errorf("Framed-IP-Address directive = %v, want DirectiveFromPool", ok1.Attributes[1].Directive.Kind)
	}
	if ok1.Attributes[2].Directive.Kind != DirectiveFromUUID {
		t.Errorf("Class directive = %v, want DirectiveFromUUID", ok1.Attributes[2].Directive.Kind)
	}

	// プールマッチルールの順序とAND条件
	if len(sc.PoolMatchRules) != 2 {
		t.Fatalf("PoolMatchRules count = %d, want 2", len(sc.PoolMatchRules))
	}
	if sc.PoolMatchRules[0].Target != "pool1" {
		t.Errorf("first pool rule target = %q, want pool1", sc.PoolMatchRules[0].Target)
	}
	if len(sc.PoolMatchRules[1].Predicates) != 2 {
		t.Errorf("pool6 rule predicates = %d, want 2", len(sc.PoolMatchRules[1].Predicates))
	}

	// catch-allルール（条件なし）
	authRules := sc.ReplyMatchRules[CategoryAuth]
	if len(authRules) != 2 {
		t.Fatalf("auth reply rules count = %d, want 2", len(authRules))
	}
	if len(authRules[1].Predicates) != 0 {
		t.Errorf("ng1 rule should be catch-all, got %d predicates", len(authRules[1].Predicates))
	}

	// ストレージ設定
	if sc.Storage.Prefix != "radscen::" {
		t.Errorf("Storage.Prefix = %q, want %q", sc.Storage.Prefix, "radscen::")
	}
	if got := sc.Storage.AttributesFor(CategoryAcct); len(got) != 1 || got[0] != "Acct-Session-Id" {
		t.Errorf("AttributesFor(acct) = %v, want [Acct-Session-Id]", got)
	}
}

func TestParseAppliesDefaultPrefix(t *testing.T) {
	sc, err := Parse([]byte(`
address_pools:
  pool1:
    ipv4:
      - 192.0.2.0/28
redis_storage:
  auth:
    - User-Name
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sc.Storage.Prefix != DefaultKeyPrefix {
		t.Errorf("Storage.Prefix = %q, want default %q", sc.Storage.Prefix, DefaultKeyPrefix)
	}
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "empty pool",
			yaml: `
address_pools:
  pool1:
    shuffle: false
`,
		},
		{
			name: "invalid cidr",
			yaml: `
address_pools:
  pool1:
    ipv4:
      - not-a-cidr
`,
		},
		{
			name: "invalid auth reply code",
			yaml: `
reply_definitions:
  auth:
    bad:
      code: 5
      attributes:
        Reply-Message: hello
`,
		},
		{
			name: "invalid acct reply code",
			yaml: `
reply_definitions:
  acct:
    bad:
      code: 2
      attributes:
`,
		},
		{
			name: "pool rule references unknown pool",
			yaml: `
pool_match_rules:
  - missing:
      - User-Name: alice
`,
		},
		{
			name: "reply rule references unknown reply",
			yaml: `
reply_match_rules:
  auth:
    - missing:
        - User-Name: alice
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected validation error")
			}
			if !errors.Is(err, apperr.ErrInvalidScenario) {
				t.Errorf("error = %v, want wrapped ErrInvalidScenario", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	if err := os.WriteFile(path, []byte(validScenario), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sc.PoolMatchRules) != 2 {
		t.Errorf("PoolMatchRules count = %d, want 2", len(sc.PoolMatchRules))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/scenario.yml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
