// Package reply はリプライ定義のディレクティブ解決を提供する。
package reply

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yamorin9/radscen/internal/pool"
	radpkt "github.com/yamorin9/radscen/internal/radius"
	"github.com/yamorin9/radscen/internal/scenario"
	"github.com/yamorin9/radscen/pkg/apperr"
)

// Allocator はfromPoolディレクティブが使用するアドレス割当。
type Allocator interface {
	Allocate(poolName string, family pool.Family, dialogKey string) (string, error)
}

// Source はfromRequestディレクティブが参照するリクエスト内容。
type Source interface {
	FirstValue(name string) (string, bool)
}

// fromPool対象アトリビュートとプールファミリの対応
var poolFamilyByAttr = map[string]pool.Family{
	"Framed-IP-Address":     pool.FamilyIPv4,
	"Framed-IPv6-Prefix":    pool.FamilyIPv6,
	"Delegated-IPv6-Prefix": pool.FamilyIPv6Delegated,
}

// Builder はリプライ定義内の全ディレクティブを解決し応答属性列を生成する。
type Builder struct {
	allocator Allocator
	newUUID   func() string
}

// NewBuilder はBuilderを生成する。
func NewBuilder(allocator Allocator) *Builder {
	return &Builder{
		allocator: allocator,
		newUUID:   uuid.NewString,
	}
}

// Build はリプライ定義の属性テンプレートを定義順に解決する。
// poolNameはプールマッチルールの結果（マッチなしなら空文字列）、
// dialogKeyはfromPool割当の束縛先キー。
func (b *Builder) Build(def scenario.ReplyDefinition, src Source, poolName, dialogKey string) ([]radpkt.ResolvedAttribute, error) {
	attrs := make([]radpkt.ResolvedAttribute, 0, len(def.Attributes))

	for _, tmpl := range def.Attributes {
		value, err := b.resolve(tmpl, src, poolName, dialogKey)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, radpkt.ResolvedAttribute{Name: tmpl.Name, Value: value})
	}

	return attrs, nil
}

// resolve は1属性テンプレートの値を解決する。
func (b *Builder) resolve(tmpl scenario.AttributeTemplate, src Source, poolName, dialogKey string) (string, error) {
	switch tmpl.Directive.Kind {
	case scenario.DirectiveLiteral:
		return tmpl.Directive.Literal, nil

	case scenario.DirectiveFromUUID:
		return b.newUUID(), nil

	case scenario.DirectiveFromPool:
		family, ok := poolFamilyByAttr[tmpl.Name]
		if !ok {
			return "", apperr.NewDirectiveError(tmpl.Name, tmpl.Raw,
				fmt.Errorf("%w: attribute does not take a pool address", apperr.ErrUnresolvedPlaceholder))
		}
		if poolName == "" {
			return "", apperr.NewDirectiveError(tmpl.Name, tmpl.Raw,
				fmt.Errorf("%w: no pool selected for request", apperr.ErrUnresolvedPlaceholder))
		}
		address, err := b.allocator.Allocate(poolName, family, dialogKey)
		if err != nil {
			return "", apperr.NewDirectiveError(tmpl.Name, tmpl.Raw, err)
		}
		return address, nil

	case scenario.DirectiveFromRequest:
		value, err := tmpl.Directive.Resolve(src.FirstValue)
		if err != nil {
			return "", apperr.NewDirectiveError(tmpl.Name, tmpl.Raw,
				fmt.Errorf("%w: %v", apperr.ErrUnresolvedPlaceholder, err))
		}
		return value, nil
	}

	return "", apperr.NewDirectiveError(tmpl.Name, tmpl.Raw,
		fmt.Errorf("%w: unknown directive kind", apperr.ErrUnresolvedPlaceholder))
}
