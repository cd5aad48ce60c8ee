package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var teacherActor = models.Principal{ID: "t1", Name: "Asha", Role: models.RoleTeacher}

type studentStore struct {
	students   map[string]models.User
	lastFilter models.StudentFilter
	err        error
}

func newStudentStore(students ...models.User) *studentStore {
	store := &studentStore{students: make(map[string]models.User)}
	for _, s := range students {
		store.students[s.ID] = s
	}
	return store
}

func (m *studentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.User, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	var out []models.User
	for _, s := range m.students {
		if filter.BatchNumber != "" && filter.BatchNumber != "all" && s.BatchNumber != filter.BatchNumber {
			continue
		}
		out = append(out, s)
	}
	sortUsersByName(out)
	return out, nil
}

func (m *studentStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s, ok := m.students[id]; ok && s.Role == models.RoleStudent {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *studentStore) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.User
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func sortUsersByName(users []models.User) {
	for i := 1; i < len(users); i++ {
		for j := i; j > 0 && users[j].Name < users[j-1].Name; j-- {
			users[j], users[j-1] = users[j-1], users[j]
		}
	}
}

func student(id, name, batch string) models.User {
	return models.User{ID: id, Name: name, Role: models.RoleStudent, Region: "north", SchoolName: "Hill School", BatchNumber: batch, Mobile: "555-" + id, IsActive: true}
}

type auditSpy struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (a *auditSpy) Record(ctx context.Context, entry models.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *auditSpy) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type invalidatorSpy struct {
	patterns []string
}

func (i *invalidatorSpy) Invalidate(ctx context.Context, pattern string) error {
	i.patterns = append(i.patterns, pattern)
	return nil
}

func boolPtr(v bool) *bool { return &v }
