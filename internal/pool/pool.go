// Package pool はアドレスプールの展開と排他的な割当・解放を提供する。
package pool

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net/netip"

	"github.com/yamorin9/radscen/internal/scenario"
	"github.com/yamorin9/radscen/pkg/apperr"
)

// Family はプールのアドレスファミリ。
type Family string

const (
	// FamilyIPv4 はIPv4ホストアドレス。
	FamilyIPv4 Family = "ipv4"
	// FamilyIPv6 は/64のIPv6プレフィックス。
	FamilyIPv6 Family = "ipv6"
	// FamilyIPv6Delegated は/56の委任IPv6プレフィックス。
	FamilyIPv6Delegated Family = "ipv6_delegated"
)

// ファミリごとの展開後プレフィックス長
const (
	ipv6PrefixLen      = 64
	delegatedPrefixLen = 56
)

// 1ファミリあたりの展開上限。巨大なCIDR指定でのメモリ暴走を防ぐ。
const maxEntriesPerFamily = 65536

// Pool は1つのアドレスプール。候補列は構築時に確定し以後不変。
// 割当状態の排他はManagerが行う。
type Pool struct {
	name       string
	shuffle    bool
	candidates map[Family][]string
	// address -> 保持するダイアログキー
	assigned map[string]string
	// dialogKey -> family -> address
	byKey map[string]map[Family]string
}

// newPool は設定からプールを構築する。
// shuffle有効時は与えられた乱数源で候補順を決定する（シード固定で再現可能）。
func newPool(name string, cfg scenario.PoolConfig, rng *rand.Rand) (*Pool, error) {
	p := &Pool{
		name:       name,
		shuffle:    cfg.Shuffle,
		candidates: make(map[Family][]string),
		assigned:   make(map[string]string),
		byKey:      make(map[string]map[Family]string),
	}

	var err error
	if p.candidates[FamilyIPv4], err = expandIPv4Ranges(cfg.IPv4); err != nil {
		return nil, fmt.Errorf("pool %q ipv4: %w", name, err)
	}
	if p.candidates[FamilyIPv6], err = expandIPv6Ranges(cfg.IPv6, ipv6PrefixLen); err != nil {
		return nil, fmt.Errorf("pool %q ipv6: %w", name, err)
	}
	if p.candidates[FamilyIPv6Delegated], err = expandIPv6Ranges(cfg.IPv6Delegated, delegatedPrefixLen); err != nil {
		return nil, fmt.Errorf("pool %q ipv6_delegated: %w", name, err)
	}

	if cfg.Shuffle {
		for _, entries := range p.candidates {
			rng.Shuffle(len(entries), func(i, j int) {
				entries[i], entries[j] = entries[j], entries[i]
			})
		}
	}

	return p, nil
}

// allocate は指定ファミリから未割当の先頭候補を予約しキーへ束縛する。
// 同一キーの再割当は既存アドレスを返す（重複リクエストの冪等性）。
func (p *Pool) allocate(family Family, dialogKey string) (string, error) {
	if existing, ok := p.byKey[dialogKey][family]; ok {
		return existing, nil
	}

	for _, candidate := range p.candidates[family] {
		if _, taken := p.assigned[candidate]; taken {
			continue
		}
		p.assigned[candidate] = dialogKey
		if p.byKey[dialogKey] == nil {
			p.byKey[dialogKey] = make(map[Family]string)
		}
		p.byKey[dialogKey][family] = candidate
		return candidate, nil
	}

	return "", fmt.Errorf("%w: pool=%s family=%s", apperr.ErrPoolExhausted, p.name, family)
}

// release はキーに束縛された全ファミリのアドレスを解放し、解放内容を返す。
// 束縛がない場合は何もしない（冪等）。
func (p *Pool) release(dialogKey string) []Binding {
	bound, ok := p.byKey[dialogKey]
	if !ok {
		return nil
	}
	released := make([]Binding, 0, len(bound))
	for family, address := range bound {
		delete(p.assigned, address)
		released = append(released, Binding{
			Pool:      p.name,
			DialogKey: dialogKey,
			Family:    string(family),
			Address:   address,
		})
	}
	delete(p.byKey, dialogKey)
	return released
}

// expandIPv4Ranges はCIDR列をホストアドレス列へ展開する。
// /30以下の範囲ではネットワーク・ブロードキャストアドレスを除外する。
func expandIPv4Ranges(ranges []string) ([]string, error) {
	var entries []string
	for _, r := range ranges {
		prefix, err := parsePrefix(r, 32)
		if err != nil {
			return nil, err
		}
		if !prefix.Addr().Is4() {
			return nil, fmt.Errorf("not an IPv4 range: %q", r)
		}

		var hosts []string
		for addr := prefix.Masked().Addr(); prefix.Contains(addr); addr = addr.Next() {
			hosts = append(hosts, addr.String())
			if len(hosts) > maxEntriesPerFamily {
				break
			}
		}
		if prefix.Bits() < 31 && len(hosts) > 2 {
			hosts = hosts[1 : len(hosts)-1]
		}
		entries = append(entries, hosts...)
		if len(entries) >= maxEntriesPerFamily {
			entries = entries[:maxEntriesPerFamily]
			break
		}
	}
	return entries, nil
}

// expandIPv6Ranges はCIDR列を固定長サブプレフィックス列へ展開する。
func expandIPv6Ranges(ranges []string, targetLen int) ([]string, error) {
	var entries []string
	for _, r := range ranges {
		prefix, err := parsePrefix(r, 128)
		if err != nil {
			return nil, err
		}
		if !prefix.Addr().Is6() || prefix.Addr().Is4() {
			return nil, fmt.Errorf("not an IPv6 range: %q", r)
		}
		if prefix.Bits() > targetLen {
			return nil, fmt.Errorf("range %q is narrower than /%d", r, targetLen)
		}

		// 上位64bitの整数表現でサブプレフィックスを列挙する
		base := prefix.Masked().Addr().As16()
		top := binary.BigEndian.Uint64(base[0:8])
		step := uint64(1) << (64 - targetLen)

		count := uint64(maxEntriesPerFamily)
		if shift := targetLen - prefix.Bits(); shift < 17 {
			count = uint64(1) << shift
		}

		for i := uint64(0); i < count; i++ {
			var sub [16]byte
			binary.BigEndian.PutUint64(sub[0:8], top+i*step)
			entry := netip.PrefixFrom(netip.AddrFrom16(sub), targetLen)
			entries = append(entries, entry.String())
			if len(entries) >= maxEntriesPerFamily {
				return entries, nil
			}
		}
	}
	return entries, nil
}

// parsePrefix はCIDR表記をパースする。プレフィックス長省略時はfallbackLenを補う。
func parsePrefix(s string, fallbackLen int) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid range %q", s)
	}
	return netip.PrefixFrom(addr, fallbackLen), nil
}
