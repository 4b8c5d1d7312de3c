package sticker

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation for tests and
// development. It honors the same id-assignment and ordering contract as
// the postgres store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[int64][]Sticker
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64][]Sticker)}
}

// Insert appends a sticker under max(local_id)+1 for the owner.
func (m *MemoryStore) Insert(_ context.Context, owner int64, name, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for _, s := range m.rows[owner] {
		if s.LocalID > maxID {
			maxID = s.LocalID
		}
	}
	next := maxID + 1
	m.rows[owner] = append(m.rows[owner], Sticker{
		OwnerID: owner,
		LocalID: next,
		Name:    name,
		Ref:     ref,
	})
	return next, nil
}

// List returns the owner's stickers ordered by local id ascending.
func (m *MemoryStore) List(_ context.Context, owner int64) ([]Sticker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Rows are appended with increasing ids, so insertion order is id order.
	out := make([]Sticker, len(m.rows[owner]))
	copy(out, m.rows[owner])
	return out, nil
}

// Delete removes the matching row and reports whether it existed.
func (m *MemoryStore) Delete(_ context.Context, owner, localID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rows[owner]
	for i, s := range rows {
		if s.LocalID == localID {
			m.rows[owner] = append(rows[:i:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Search ranks the owner's stickers against the query.
func (m *MemoryStore) Search(ctx context.Context, owner int64, query string) ([]Match, error) {
	rows, err := m.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return rankMatches(rows, query), nil
}

// Count returns the total number of stored stickers across all owners.
func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, rows := range m.rows {
		n += int64(len(rows))
	}
	return n, nil
}
