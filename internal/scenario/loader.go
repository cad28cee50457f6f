package scenario

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yamorin9/radscen/pkg/apperr"
)

// デフォルトのダイアログキープレフィックス
const DefaultKeyPrefix = "radscen::"

// カテゴリごとの許容リプライコード
var allowedReplyCodes = map[string]map[int]bool{
	CategoryAuth: {2: true, 3: true, 11: true}, // Accept / Reject / Challenge
	CategoryAcct: {5: true},                    // Accounting-Response
}

// Load はシナリオ設定ファイルを読み込み、検証して返す。
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse はYAMLバイト列からシナリオ設定を読み込み、検証して返す。
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	sc.applyDefaults()

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidScenario, err)
	}
	return &sc, nil
}

func (s *Scenario) applyDefaults() {
	if s.Storage.Prefix == "" {
		s.Storage.Prefix = DefaultKeyPrefix
	}
	// マップキーを定義名として各リプライ定義へ反映する
	for category, defs := range s.ReplyDefinitions {
		for name, def := range defs {
			def.Name = name
			s.ReplyDefinitions[category][name] = def
		}
	}
}

// Validate はシナリオ設定の整合性を検証する。
func (s *Scenario) Validate() error {
	for name, pool := range s.AddressPools {
		total := len(pool.IPv4) + len(pool.IPv6) + len(pool.IPv6Delegated)
		if total == 0 {
			return apperr.NewValidationError("address_pools",
				fmt.Sprintf("pool %q has no ranges", name))
		}
		for _, cidr := range append(append(append([]string{}, pool.IPv4...), pool.IPv6...), pool.IPv6Delegated...) {
			if _, err := netip.ParsePrefix(cidr); err != nil {
				if _, aerr := netip.ParseAddr(cidr); aerr != nil {
					return apperr.NewValidationError("address_pools",
						fmt.Sprintf("pool %q has invalid range %q", name, cidr))
				}
			}
		}
	}

	for category, defs := range s.ReplyDefinitions {
		allowed, ok := allowedReplyCodes[category]
		if !ok {
			return apperr.NewValidationError("reply_definitions",
				fmt.Sprintf("unknown category %q", category))
		}
		for name, def := range defs {
			if !allowed[def.Code] {
				return apperr.NewValidationError("reply_definitions",
					fmt.Sprintf("reply %q in category %q has invalid code %d", name, category, def.Code))
			}
		}
	}

	for _, rule := range s.PoolMatchRules {
		if _, ok := s.AddressPools[rule.Target]; !ok {
			return apperr.NewValidationError("pool_match_rules",
				fmt.Sprintf("rule references unknown pool %q", rule.Target))
		}
	}

	for category, rules := range s.ReplyMatchRules {
		if category != CategoryAuth && category != CategoryAcct {
			return apperr.NewValidationError("reply_match_rules",
				fmt.Sprintf("unknown category %q", category))
		}
		for _, rule := range rules {
			if _, ok := s.ReplyDefinition(category, rule.Target); !ok {
				return apperr.NewValidationError("reply_match_rules",
					fmt.Sprintf("rule references unknown reply %q in category %q", rule.Target, category))
			}
		}
	}

	return nil
}
