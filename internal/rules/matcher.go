// Package rules はシナリオ設定のマッチルール評価を提供する。
package rules

import (
	"github.com/yamorin9/radscen/internal/scenario"
)

// AttributeSource はマッチ対象のアトリビュート参照インターフェース。
// パケットに依存しない純粋なマッチ評価を可能にする。
type AttributeSource interface {
	// FirstValue は指定属性の最初の値を文字列正規化して返す。
	FirstValue(name string) (string, bool)
}

// Matcher はMatcherインターフェースの実装。
type matcher struct{}

// Matcher は順序付きルール集合の先着順マッチ評価器。
type Matcher interface {
	// Match はルールを設定順に評価し、最初に全条件が一致したルールのターゲット名を返す。
	// どのルールも一致しない場合は ("", false) を返す。
	Match(src AttributeSource, ruleset []scenario.MatchRule) (string, bool)
}

// NewMatcher は新しいMatcherを生成する。
func NewMatcher() Matcher {
	return &matcher{}
}

// Match はルール配列を順次評価し、最初に一致したルールのターゲットを返す。
// 条件なし（Predicatesが空）のルールはcatch-allとして常に一致する。
func (m *matcher) Match(src AttributeSource, ruleset []scenario.MatchRule) (string, bool) {
	for i := range ruleset {
		rule := &ruleset[i]
		if matchRule(src, rule) {
			return rule.Target, true
		}
	}
	return "", false
}

// matchRule は1ルールの全Predicateが一致するか（AND）を判定する。
// 比較は文字列正規化値の完全一致。
func matchRule(src AttributeSource, rule *scenario.MatchRule) bool {
	for _, pred := range rule.Predicates {
		value, ok := src.FirstValue(pred.Name)
		if !ok {
			return false
		}
		if value != pred.Value {
			return false
		}
	}
	return true
}
