package pool

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/yamorin9/radscen/internal/scenario"
	"github.com/yamorin9/radscen/pkg/apperr"
)

// FamilyStatus はファミリごとの占有状況。
type FamilyStatus struct {
	Total    int `json:"total"`
	Assigned int `json:"assigned"`
}

// Status は1プールの占有スナップショット。
type Status struct {
	Name     string                  `json:"name"`
	Shuffle  bool                    `json:"shuffle"`
	Families map[string]FamilyStatus `json:"families"`
}

// Binding は割当中のアドレスとダイアログキーの対応。
type Binding struct {
	Pool      string `json:"pool"`
	DialogKey string `json:"dialog_key"`
	Family    string `json:"family"`
	Address   string `json:"address"`
}

// Manager は全プールの割当・解放をミューテックスで直列化する。
// 割当・解放の途中でI/O待ちは発生しないため単一ロックで十分。
type Manager struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

// NewManager はシナリオ設定から全プールを構築する。
// seedはshuffle有効プールの候補順を決める（0以外で再現可能）。
func NewManager(cfg map[string]scenario.PoolConfig, seed int64) (*Manager, error) {
	rng := rand.New(rand.NewSource(seed))
	m := &Manager{pools: make(map[string]*Pool)}

	// マップ順に依存しないよう名前順で構築する
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, err := newPool(name, cfg[name], rng)
		if err != nil {
			return nil, err
		}
		m.pools[name] = p
	}
	return m, nil
}

// Allocate は指定プール・ファミリからアドレスを割り当てる。
// 同一ダイアログキーへの再割当は既存アドレスを返す。
func (m *Manager) Allocate(poolName string, family Family, dialogKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[poolName]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperr.ErrPoolNotFound, poolName)
	}
	return p.allocate(family, dialogKey)
}

// Release は全プールからダイアログキーの割当を解放する。
// 解放対象がなければ何もしない（冪等）。解放した割当の一覧を返す。
func (m *Manager) Release(dialogKey string) []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	var released []Binding
	for _, p := range m.pools {
		released = append(released, p.release(dialogKey)...)
	}
	return released
}

// Snapshot は全プールの占有状況を名前順で返す。
func (m *Manager) Snapshot() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]Status, 0, len(m.pools))
	for name, p := range m.pools {
		st := Status{
			Name:     name,
			Shuffle:  p.shuffle,
			Families: make(map[string]FamilyStatus),
		}
		for family, candidates := range p.candidates {
			if len(candidates) == 0 {
				continue
			}
			assigned := 0
			for _, c := range candidates {
				if _, taken := p.assigned[c]; taken {
					assigned++
				}
			}
			st.Families[string(family)] = FamilyStatus{
				Total:    len(candidates),
				Assigned: assigned,
			}
		}
		statuses = append(statuses, st)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// PoolStatus は指定プールの占有状況を返す。
func (m *Manager) PoolStatus(name string) (Status, bool) {
	for _, st := range m.Snapshot() {
		if st.Name == name {
			return st, true
		}
	}
	return Status{}, false
}

// Bindings は全プールの割当中アドレス一覧を返す。
// ダイアログ期限切れ後の整合パスが参照する。
func (m *Manager) Bindings() []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bindings []Binding
	for name, p := range m.pools {
		for key, bound := range p.byKey {
			for family, address := range bound {
				bindings = append(bindings, Binding{
					Pool:      name,
					DialogKey: key,
					Family:    string(family),
					Address:   address,
				})
			}
		}
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Pool != bindings[j].Pool {
			return bindings[i].Pool < bindings[j].Pool
		}
		return bindings[i].DialogKey < bindings[j].DialogKey
	})
	return bindings
}
