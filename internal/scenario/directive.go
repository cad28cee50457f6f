package scenario

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DirectiveKind はリプライアトリビュート値の解決方法の種別。
type DirectiveKind int

const (
	// DirectiveLiteral は設定値をそのまま使用する。
	DirectiveLiteral DirectiveKind = iota
	// DirectiveFromPool はプール割当アドレスで置換する。
	DirectiveFromPool
	// DirectiveFromUUID は新規UUIDで置換する。
	DirectiveFromUUID
	// DirectiveFromRequest はリクエスト内アトリビュート値で置換する。
	DirectiveFromRequest
)

// TransformKind はfromRequest値への変換処理の種別。
type TransformKind int

const (
	// TransformSplit は区切り文字で分割し指定インデックスを取り出す。
	TransformSplit TransformKind = iota
	// TransformLower は小文字化する。
	TransformLower
	// TransformUpper は大文字化する。
	TransformUpper
)

// Transform は1つの変換処理。
type Transform struct {
	Kind  TransformKind
	Sep   string // TransformSplitの区切り文字
	Index int    // TransformSplitの取り出しインデックス
}

// Apply は変換を適用した値を返す。
func (t Transform) Apply(value string) (string, error) {
	switch t.Kind {
	case TransformSplit:
		parts := strings.Split(value, t.Sep)
		if t.Index < 0 || t.Index >= len(parts) {
			return "", fmt.Errorf("split index %d out of range for %q", t.Index, value)
		}
		return parts[t.Index], nil
	case TransformLower:
		return strings.ToLower(value), nil
	case TransformUpper:
		return strings.ToUpper(value), nil
	}
	return value, nil
}

// Directive はリプライアトリビュート値の解決方法。
// 設定読み込み時に一度だけパースし、以降は種別で分岐する。
type Directive struct {
	Kind       DirectiveKind
	Literal    string      // DirectiveLiteralの値
	SourceAttr string      // DirectiveFromRequestの参照先アトリビュート名
	Transforms []Transform // DirectiveFromRequestの変換列（定義順に適用）
}

// ディレクティブ値のプレフィックス
const directivePrefix = "-> "

var transformPattern = regexp.MustCompile(`^\.(?:split\('([^']*)'\)\[(\d+)\]|(lower)\(\)|(upper)\(\))`)

// ParseDirective は設定上の生値をDirectiveへ変換する。
// "-> " で始まらない値はリテラルとして扱う。
func ParseDirective(raw string) (Directive, error) {
	if !strings.HasPrefix(raw, directivePrefix) {
		return Directive{Kind: DirectiveLiteral, Literal: raw}, nil
	}

	body := strings.TrimSpace(strings.TrimPrefix(raw, directivePrefix))
	switch {
	case body == "fromPool":
		return Directive{Kind: DirectiveFromPool}, nil
	case body == "fromUuid":
		return Directive{Kind: DirectiveFromUUID}, nil
	case strings.HasPrefix(body, "fromRequest."):
		return parseFromRequest(strings.TrimPrefix(body, "fromRequest."))
	}
	return Directive{}, fmt.Errorf("unknown directive %q", raw)
}

// parseFromRequest は "User-Name.split('@')[0].lower()" 形式をパースする。
// アトリビュート名の後ろに任意個の変換が続く。
func parseFromRequest(body string) (Directive, error) {
	// 最初の変換開始位置までがアトリビュート名
	attrEnd := len(body)
	for i := 0; i < len(body); i++ {
		if body[i] == '.' && transformPattern.MatchString(body[i:]) {
			attrEnd = i
			break
		}
	}

	d := Directive{
		Kind:       DirectiveFromRequest,
		SourceAttr: body[:attrEnd],
	}
	if d.SourceAttr == "" {
		return Directive{}, fmt.Errorf("fromRequest directive missing attribute name")
	}

	rest := body[attrEnd:]
	for rest != "" {
		m := transformPattern.FindStringSubmatch(rest)
		if m == nil {
			return Directive{}, fmt.Errorf("invalid transform in fromRequest directive: %q", rest)
		}
		switch {
		case m[3] == "lower":
			d.Transforms = append(d.Transforms, Transform{Kind: TransformLower})
		case m[4] == "upper":
			d.Transforms = append(d.Transforms, Transform{Kind: TransformUpper})
		default:
			idx, err := strconv.Atoi(m[2])
			if err != nil {
				return Directive{}, fmt.Errorf("invalid split index in %q: %w", rest, err)
			}
			d.Transforms = append(d.Transforms, Transform{Kind: TransformSplit, Sep: m[1], Index: idx})
		}
		rest = rest[len(m[0]):]
	}
	return d, nil
}

// Resolve はfromRequestディレクティブの値を解決する。
// lookupは参照先アトリビュートの最初の値を返す関数。
func (d Directive) Resolve(lookup func(name string) (string, bool)) (string, error) {
	if d.Kind != DirectiveFromRequest {
		return "", fmt.Errorf("resolve is only valid for fromRequest directives")
	}
	value, ok := lookup(d.SourceAttr)
	if !ok {
		return "", fmt.Errorf("attribute %q not present in request", d.SourceAttr)
	}
	for _, tr := range d.Transforms {
		var err error
		value, err = tr.Apply(value)
		if err != nil {
			return "", err
		}
	}
	return value, nil
}
