// Package scenario はシナリオ設定（YAML）の型定義と読み込みを提供する。
package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// パケットタイプカテゴリ
const (
	CategoryAuth = "auth"
	CategoryAcct = "acct"
	CategoryCoA  = "coa"
	CategoryDisc = "disc"
)

// Predicate はマッチルールの1条件（アトリビュート名と期待値）。
type Predicate struct {
	Name  string
	Value string
}

// MatchRule は1つのマッチルール。全Predicateの一致（AND）で発火する。
// Predicatesが空のルールはcatch-allとして常にマッチする。
type MatchRule struct {
	Target     string // マッチ時に選択されるプール名またはリプライ定義名
	Predicates []Predicate
}

// UnmarshalYAML は { <target>: [ {<attr>: <value>}, ... ] } 形式を読み込む。
// ルール内のPredicate順序を保持するためyaml.Nodeを直接走査する。
func (r *MatchRule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("match rule must be a single-key mapping (line %d)", node.Line)
	}

	r.Target = node.Content[0].Value
	seq := node.Content[1]
	if seq.Kind == yaml.ScalarNode && seq.Tag == "!!null" {
		// 条件なし＝catch-all
		return nil
	}
	if seq.Kind != yaml.SequenceNode {
		return fmt.Errorf("predicates for rule %q must be a sequence (line %d)", r.Target, seq.Line)
	}

	for _, entry := range seq.Content {
		if entry.Kind != yaml.MappingNode {
			return fmt.Errorf("predicate entry for rule %q must be a mapping (line %d)", r.Target, entry.Line)
		}
		for i := 0; i+1 < len(entry.Content); i += 2 {
			r.Predicates = append(r.Predicates, Predicate{
				Name:  entry.Content[i].Value,
				Value: entry.Content[i+1].Value,
			})
		}
	}
	return nil
}

// AttributeTemplate はリプライ定義内の1アトリビュートテンプレート。
type AttributeTemplate struct {
	Name      string
	Raw       string // YAML上の生の値
	Directive Directive
}

// ReplyDefinition は名前付きリプライテンプレート。
type ReplyDefinition struct {
	Name       string
	Code       int
	Attributes []AttributeTemplate
}

// UnmarshalYAML は { code: int, attributes: {<name>: <value>} } 形式を読み込む。
// アトリビュートの定義順を応答の順序として保持する。
func (d *ReplyDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("reply definition must be a mapping (line %d)", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		switch key.Value {
		case "code":
			if err := val.Decode(&d.Code); err != nil {
				return fmt.Errorf("reply code must be an integer (line %d): %w", val.Line, err)
			}
		case "attributes":
			if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
				continue
			}
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("attributes must be a mapping (line %d)", val.Line)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				raw := val.Content[j+1].Value
				directive, err := ParseDirective(raw)
				if err != nil {
					return fmt.Errorf("attribute %q (line %d): %w",
						val.Content[j].Value, val.Content[j+1].Line, err)
				}
				d.Attributes = append(d.Attributes, AttributeTemplate{
					Name:      val.Content[j].Value,
					Raw:       raw,
					Directive: directive,
				})
			}
		default:
			return fmt.Errorf("unknown reply definition key %q (line %d)", key.Value, key.Line)
		}
	}
	return nil
}

// PoolConfig は1つのアドレスプールの設定。
type PoolConfig struct {
	Shuffle       bool     `yaml:"shuffle"`
	IPv4          []string `yaml:"ipv4"`
	IPv6          []string `yaml:"ipv6"`
	IPv6Delegated []string `yaml:"ipv6_delegated"`
}

// StorageConfig はダイアログストアのキー導出設定。
// 各カテゴリのリストが、DialogKey導出に使うアトリビュートの部分集合を定義する。
type StorageConfig struct {
	Prefix string   `yaml:"prefix"`
	Auth   []string `yaml:"auth"`
	Acct   []string `yaml:"acct"`
	CoA    []string `yaml:"coa"`
	Disc   []string `yaml:"disc"`
}

// AttributesFor は指定カテゴリのキー導出アトリビュートリストを返す。
func (s *StorageConfig) AttributesFor(category string) []string {
	switch category {
	case CategoryAuth:
		return s.Auth
	case CategoryAcct:
		return s.Acct
	case CategoryCoA:
		return s.CoA
	case CategoryDisc:
		return s.Disc
	}
	return nil
}

// Scenario はシナリオ設定全体。
type Scenario struct {
	AddressPools     map[string]PoolConfig                 `yaml:"address_pools"`
	ReplyDefinitions map[string]map[string]ReplyDefinition `yaml:"reply_definitions"`
	PoolMatchRules   []MatchRule                           `yaml:"pool_match_rules"`
	ReplyMatchRules  map[string][]MatchRule                `yaml:"reply_match_rules"`
	Storage          StorageConfig                         `yaml:"redis_storage"`
}

// ReplyDefinition は指定カテゴリ・名前のリプライ定義を返す。
func (s *Scenario) ReplyDefinition(category, name string) (ReplyDefinition, bool) {
	defs, ok := s.ReplyDefinitions[category]
	if !ok {
		return ReplyDefinition{}, false
	}
	def, ok := defs[name]
	return def, ok
}
