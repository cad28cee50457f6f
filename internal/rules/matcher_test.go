package rules

import (
	"testing"

	"github.com/yamorin9/radscen/internal/scenario"
)

// mapSource はテスト用のAttributeSource実装
type mapSource map[string]string

func (m mapSource) FirstValue(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func rule(target string, preds ...scenario.Predicate) scenario.MatchRule {
	return scenario.MatchRule{Target: target, Predicates: preds}
}

func TestMatchFirstRule(t *testing.T) {
	ruleset := []scenario.MatchRule{
		rule("pool1", scenario.Predicate{Name: "User-Name", Value: "alice"}),
		rule("pool2", scenario.Predicate{Name: "User-Name", Value: "bob"}),
	}

	m := NewMatcher()
	target, ok := m.Match(mapSource{"User-Name": "alice"}, ruleset)
	if !ok {
		t.Fatal("expected a match")
	}
	if target != "pool1" {
		t.Errorf("target = %q, want %q", target, "pool1")
	}
}

func TestMatchSecondRule(t *testing.T) {
	ruleset := []scenario.MatchRule{
		rule("pool1", scenario.Predicate{Name: "User-Name", Value: "alice"}),
		rule("pool2", scenario.Predicate{Name: "User-Name", Value: "bob"}),
	}

	m := NewMatcher()
	target, ok := m.Match(mapSource{"User-Name": "bob"}, ruleset)
	if !ok {
		t.Fatal("expected a match")
	}
	if target != "pool2" {
		t.Errorf("target = %q, want %q", target, "pool2")
	}
}

func TestMatchFirstWinsOnOverlap(t *testing.T) {
	// 複数ルールが一致し得る場合は設定順で先のルールが優先される
	ruleset := []scenario.MatchRule{
		rule("first", scenario.Predicate{Name: "User-Name", Value: "alice"}),
		rule("second", scenario.Predicate{Name: "User-Name", Value: "alice"}),
	}

	m := NewMatcher()
	target, ok := m.Match(mapSource{"User-Name": "alice"}, ruleset)
	if !ok {
		t.Fatal("expected a match")
	}
	if target != "first" {
		t.Errorf("target = %q, want %q", target, "first")
	}
}

func TestMatchAllPredicatesRequired(t *testing.T) {
	ruleset := []scenario.MatchRule{
		rule("pool1",
			scenario.Predicate{Name: "User-Name", Value: "alice"},
			scenario.Predicate{Name: "NAS-Identifier", Value: "nas01"},
		),
	}

	m := NewMatcher()

	// 片方のみ一致 → 不一致
	if _, ok := m.Match(mapSource{"User-Name": "alice"}, ruleset); ok {
		t.Error("expected no match when a predicate attribute is absent")
	}
	if _, ok := m.Match(mapSource{"User-Name": "alice", "NAS-Identifier": "nas99"}, ruleset); ok {
		t.Error("expected no match when a predicate value differs")
	}

	// 全一致
	target, ok := m.Match(mapSource{"User-Name": "alice", "NAS-Identifier": "nas01"}, ruleset)
	if !ok || target != "pool1" {
		t.Errorf("Match = (%q, %v), want (pool1, true)", target, ok)
	}
}

func TestMatchCatchAll(t *testing.T) {
	ruleset := []scenario.MatchRule{
		rule("specific", scenario.Predicate{Name: "User-Name", Value: "alice"}),
		rule("fallback"),
	}

	m := NewMatcher()
	target, ok := m.Match(mapSource{"User-Name": "carol"}, ruleset)
	if !ok {
		t.Fatal("expected catch-all match")
	}
	if target != "fallback" {
		t.Errorf("target = %q, want %q", target, "fallback")
	}
}

func TestMatchNoRules(t *testing.T) {
	m := NewMatcher()
	if _, ok := m.Match(mapSource{"User-Name": "alice"}, nil); ok {
		t.Error("expected no match for empty ruleset")
	}
}

func TestMatchNoMatch(t *testing.T) {
	ruleset := []scenario.MatchRule{
		rule("pool1", scenario.Predicate{Name: "User-Name", Value: "alice"}),
	}

	m := NewMatcher()
	if _, ok := m.Match(mapSource{"User-Name": "carol"}, ruleset); ok {
		t.Error("expected no match")
	}
}
