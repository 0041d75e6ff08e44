package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// note is the payload used across engine tests. Color stands in for a
// device-authoritative field preserved by the pull merge.
type note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Color string `json:"color"`
}

func (n note) Validate() error {
	if n.Title == "" {
		return errors.New("note title is required")
	}
	return nil
}

func notesKind() Kind[note] {
	return Kind[note]{
		Name:       "notes",
		SearchText: func(n note) string { return n.Title + " " + n.Body },
		Category:   func(n note) string { return n.Color },
		Merge: func(local, remote note) note {
			merged := remote
			merged.Color = local.Color
			return merged
		},
	}
}

type memKey struct{ tenant, id string }

// memLocal is an in-memory LocalStore.
type memLocal struct {
	mu   sync.Mutex
	recs map[memKey]Record[note]
}

func newMemLocal() *memLocal {
	return &memLocal{recs: map[memKey]Record[note]{}}
}

func (m *memLocal) Get(_ context.Context, tenantID, id string) (Record[note], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey{tenantID, id}]
	if !ok {
		return Record[note]{}, ErrNotFound
	}
	return rec, nil
}

func (m *memLocal) List(_ context.Context, tenantID string, f Filter) ([]Record[note], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record[note]
	for k, rec := range m.recs {
		if k.tenant != tenantID {
			continue
		}
		if rec.Tombstoned() && !f.IncludeTombstoned {
			continue
		}
		if f.Category != "" && rec.Payload.Color != f.Category {
			continue
		}
		if f.Text != "" && !strings.Contains(strings.ToLower(rec.Payload.Title+" "+rec.Payload.Body), strings.ToLower(f.Text)) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memLocal) ListNeedingSync(_ context.Context, tenantID string) ([]Record[note], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record[note]
	for k, rec := range m.recs {
		if k.tenant == tenantID && rec.NeedsSync() {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLocal) Upsert(_ context.Context, rec Record[note]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[memKey{rec.TenantID, rec.ID}] = rec
	return nil
}

func (m *memLocal) setState(tenantID, id string, state SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey{tenantID, id}]
	if !ok {
		return nil
	}
	rec.State = state
	m.recs[memKey{tenantID, id}] = rec
	return nil
}

func (m *memLocal) MarkClean(_ context.Context, tenantID, id string) error {
	return m.setState(tenantID, id, StateClean)
}

func (m *memLocal) MarkDirty(_ context.Context, tenantID, id string) error {
	return m.setState(tenantID, id, StateDirty)
}

func (m *memLocal) SoftDelete(_ context.Context, tenantID, id string) error {
	return m.setState(tenantID, id, StateTombstoned)
}

func (m *memLocal) HardDelete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, memKey{tenantID, id})
	return nil
}

func (m *memLocal) get(tenantID, id string) (Record[note], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[memKey{tenantID, id}]
	return rec, ok
}

func (m *memLocal) count(tenantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.recs {
		if k.tenant == tenantID {
			n++
		}
	}
	return n
}

// memRemote is an in-memory RemoteStore with injectable failures.
type memRemote struct {
	mu   sync.Mutex
	docs map[memKey]Record[note]

	putErr    error
	deleteErr error
	listErr   error

	putCalls    int
	deleteCalls int
	listCalls   int

	// listGate, when set, is received from before ListByTenant proceeds.
	listGate chan struct{}
}

func newMemRemote() *memRemote {
	return &memRemote{docs: map[memKey]Record[note]{}}
}

func (m *memRemote) Put(_ context.Context, rec Record[note]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	rec.State = StateClean
	m.docs[memKey{rec.TenantID, rec.ID}] = rec
	return nil
}

func (m *memRemote) Delete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, memKey{tenantID, id})
	return nil
}

func (m *memRemote) ListByTenant(_ context.Context, tenantID string) ([]Record[note], error) {
	m.mu.Lock()
	m.listCalls++
	gate := m.listGate
	err := m.listErr
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record[note]
	for k, rec := range m.docs {
		if k.tenant == tenantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRemote) seed(rec Record[note]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[memKey{rec.TenantID, rec.ID}] = rec
}

func (m *memRemote) has(tenantID, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[memKey{tenantID, id}]
	return ok
}
