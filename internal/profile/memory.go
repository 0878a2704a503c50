package profile

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	mentors map[int64]*Mentor
	users   map[int64]*User
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		mentors: make(map[int64]*Mentor),
		users:   make(map[int64]*User),
	}
}

// PutMentor inserts or replaces a mentor.
func (r *InMemoryRepository) PutMentor(m *Mentor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *m
	r.mentors[m.ID] = &c
}

// PutUser inserts or replaces a student.
func (r *InMemoryRepository) PutUser(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	c.TargetUniversities = append([]string(nil), u.TargetUniversities...)
	r.users[u.ID] = &c
}

// DeleteMentor removes a mentor if present.
func (r *InMemoryRepository) DeleteMentor(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mentors, id)
}

// DeleteUser removes a student if present.
func (r *InMemoryRepository) DeleteUser(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *InMemoryRepository) ListMentors(ctx context.Context, f *MentorFilter, page, size int) ([]*Mentor, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Mentor
	for _, m := range r.mentors {
		if f.matches(m) {
			c := *m
			matched = append(matched, &c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, page, size), len(matched), nil
}

func (r *InMemoryRepository) ListUsers(ctx context.Context, f *UserFilter, page, size int) ([]*User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*User
	for _, u := range r.users {
		if f.matches(u) {
			c := *u
			matched = append(matched, &c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, page, size), len(matched), nil
}

func (r *InMemoryRepository) MentorsByID(ctx context.Context, ids []int64) ([]*Mentor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Mentor, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.mentors[id]; ok {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) UsersByID(ctx context.Context, ids []int64) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetMentor(_ context.Context, id int64) (*Mentor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mentors[id]
	if !ok {
		return nil, ErrMentorNotFound
	}
	c := *m
	return &c, nil
}

func (r *InMemoryRepository) GetUser(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *InMemoryRepository) CountMentors(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mentors), nil
}

func (r *InMemoryRepository) CountUsers(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func window[T any](all []T, page, size int) []T {
	start := offset(page, size)
	if size <= 0 || start >= len(all) {
		return []T{}
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
