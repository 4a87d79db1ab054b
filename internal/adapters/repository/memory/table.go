// Package memory は外部 I/O を持たないリポジトリ実装です。テストと開発用途で使用します。
package memory

import (
	"sync"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

// table は ID をキーとする挿入順付きの表です。読み書きともに複製を扱います。
type table[T any] struct {
	mu     sync.RWMutex
	entity domain.EntityKind
	rows   map[string]*T
	order  []string
	idOf   func(*T) string
	clone  func(*T) *T
}

func newTable[T any](entity domain.EntityKind, idOf func(*T) string, clone func(*T) *T) *table[T] {
	return &table[T]{
		entity: entity,
		rows:   make(map[string]*T),
		idOf:   idOf,
		clone:  clone,
	}
}

func (t *table[T]) insert(record *T) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.idOf(record)
	if _, exists := t.rows[id]; exists {
		return nil, domain.Conflict(t.entity, id)
	}
	t.rows[id] = t.clone(record)
	t.order = append(t.order, id)
	return t.clone(record), nil
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, domain.NotFound(t.entity, id)
	}
	return t.clone(row), nil
}

// modify は ID の行を fn で書き換えます。fn には格納済みの行の複製が渡されます。
func (t *table[T]) modify(id string, fn func(stored *T)) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, domain.NotFound(t.entity, id)
	}
	next := t.clone(row)
	fn(next)
	t.rows[id] = next
	return t.clone(next), nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return domain.NotFound(t.entity, id)
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *table[T]) filter(keep func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*T, 0)
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			result = append(result, t.clone(row))
		}
	}
	return result
}

func shallow[T any](v *T) *T {
	c := *v
	return &c
}
