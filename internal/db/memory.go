package db

import (
	"context"
	"sort"
	"strings"
	"sync"

	"inside-notes/pkg"
)

// MemoryVisits is an in-process visit store.
type MemoryVisits struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]pkg.Visit
}

// NewMemoryVisits returns an empty store.
func NewMemoryVisits() *MemoryVisits {
	return &MemoryVisits{rows: make(map[string]pkg.Visit)}
}

func (m *MemoryVisits) Create(ctx context.Context, v *pkg.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.ID] = cloneVisit(*v)
	m.order = append(m.order, v.ID)
	return nil
}

func (m *MemoryVisits) Update(ctx context.Context, v *pkg.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[v.ID]; !ok {
		return ErrNotFound
	}
	m.rows[v.ID] = cloneVisit(*v)
	return nil
}

func (m *MemoryVisits) GetByID(ctx context.Context, id string) (*pkg.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneVisit(v)
	return &out, nil
}

// List returns visits newest first by creation time.
func (m *MemoryVisits) List(ctx context.Context) ([]pkg.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pkg.Visit, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, cloneVisit(m.rows[m.order[i]]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneVisit(v pkg.Visit) pkg.Visit {
	if v.FinalReportRef != nil {
		ref := *v.FinalReportRef
		v.FinalReportRef = &ref
	}
	v.Technician = nil
	return v
}

// MemoryAnnotations is an in-process annotation store.
type MemoryAnnotations struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]pkg.Annotation
}

// NewMemoryAnnotations returns an empty store.
func NewMemoryAnnotations() *MemoryAnnotations {
	return &MemoryAnnotations{rows: make(map[string]pkg.Annotation)}
}

func (m *MemoryAnnotations) Create(ctx context.Context, a *pkg.Annotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID] = cloneAnnotation(*a)
	m.order = append(m.order, a.ID)
	return nil
}

func (m *MemoryAnnotations) Update(ctx context.Context, a *pkg.Annotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.ID]; !ok {
		return ErrNotFound
	}
	m.rows[a.ID] = cloneAnnotation(*a)
	return nil
}

func (m *MemoryAnnotations) GetByID(ctx context.Context, id string) (*pkg.Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneAnnotation(a)
	return &out, nil
}

func (m *MemoryAnnotations) ListByParent(ctx context.Context, visitID string) ([]pkg.Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []pkg.Annotation
	for _, id := range m.order {
		if a := m.rows[id]; a.VisitID == visitID {
			out = append(out, cloneAnnotation(a))
		}
	}
	return out, nil
}

func cloneAnnotation(a pkg.Annotation) pkg.Annotation {
	a.Fragments = append([]string{}, a.Fragments...)
	return a
}

// MemoryUsers is an in-process user store.
type MemoryUsers struct {
	mu     sync.RWMutex
	nextID int64
	rows   []pkg.User
}

// NewMemoryUsers returns a store holding users, assigning ids to the ones
// that have none.
func NewMemoryUsers(users ...pkg.User) *MemoryUsers {
	m := &MemoryUsers{nextID: 1}
	for _, u := range users {
		u := u
		_ = m.Create(context.Background(), &u)
	}
	return m
}

// DemoUsers are the accounts available before a users table exists.
func DemoUsers() []pkg.User {
	admin, tech, support := "Administração", "Técnico", "Suporte N1"
	return []pkg.User{
		{ID: 1, Name: "Admin Teste", Email: "admin@inside.local", Role: pkg.RoleAdmin, Department: &admin},
		{ID: 2, Name: "Ronaldo Costa", Email: "ronaldo.costa@inside.local", Role: pkg.RoleStandard, Department: &tech},
		{ID: 3, Name: "Jane Doe", Email: "jane.doe@inside.local", Role: pkg.RoleStandard, Department: &support},
	}
}

func (m *MemoryUsers) Create(ctx context.Context, u *pkg.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	if u.ID == 0 {
		u.ID = m.nextID
	}
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.rows = append(m.rows, *u)
	return nil
}

func (m *MemoryUsers) Update(ctx context.Context, u *pkg.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == u.ID {
			m.rows[i] = *u
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryUsers) GetByID(ctx context.Context, id int64) (*pkg.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.rows {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryUsers) GetByEmail(ctx context.Context, email string) (*pkg.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryUsers) List(ctx context.Context) ([]pkg.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pkg.User(nil), m.rows...), nil
}
