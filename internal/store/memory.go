package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/floor-layout/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory. Components are held in
// their flat row form so reads go through the same decode path as SQLStore.
type MemoryStore struct {
	mu         sync.RWMutex
	layouts    map[string]models.Layout
	components map[string]componentRow
	users      map[string]models.User
	seq        int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		layouts:    make(map[string]models.Layout),
		components: make(map[string]componentRow),
		users:      make(map[string]models.User),
	}
}

// next returns a monotonically increasing insertion stamp. Caller holds mu.
func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

// ListLayouts returns all layouts ordered by name.
func (s *MemoryStore) ListLayouts(ctx context.Context) ([]models.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Layout, 0, len(s.layouts))
	for _, l := range s.layouts {
		list = append(list, l)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID < list[j].ID
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// CreateLayout stores l under a newly generated id.
func (s *MemoryStore) CreateLayout(ctx context.Context, l *models.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = uuid.New().String()
	s.layouts[l.ID] = *l
	return nil
}

// GetLayout retrieves a layout by id.
func (s *MemoryStore) GetLayout(ctx context.Context, id string) (*models.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	return &l, nil
}

// GetLayoutDetail retrieves a layout with its components in insertion order.
func (s *MemoryStore) GetLayoutDetail(ctx context.Context, id string) (*models.LayoutDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}

	var rows []componentRow
	for _, r := range s.components {
		if r.LayoutID == id {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt < rows[j].CreatedAt })

	detail := &models.LayoutDetail{Layout: l, Components: make([]models.Component, 0, len(rows))}
	for _, r := range rows {
		detail.Components = append(detail.Components, r.decode())
	}
	return detail, nil
}

// UpdateLayout applies patch to the layout with the given id.
func (s *MemoryStore) UpdateLayout(ctx context.Context, id string, patch models.LayoutPatch) (*models.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.layouts[id]
	if !ok {
		return nil, fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	patch.Apply(&l)
	s.layouts[id] = l
	return &l, nil
}

// DeleteLayout removes a layout and all of its components.
func (s *MemoryStore) DeleteLayout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	for cid, r := range s.components {
		if r.LayoutID == id {
			delete(s.components, cid)
		}
	}
	delete(s.layouts, id)
	return nil
}

// CreateComponent stores c under a newly generated id. c.LayoutID must exist.
func (s *MemoryStore) CreateComponent(ctx context.Context, c *models.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[c.LayoutID]; !ok {
		return fmt.Errorf("layout %s: %w", c.LayoutID, ErrNotFound)
	}

	c.ID = uuid.New().String()
	row, err := encodeComponent(c, s.next())
	if err != nil {
		return err
	}
	s.components[c.ID] = row
	*c = row.decode()
	return nil
}

// GetComponent retrieves a component by id.
func (s *MemoryStore) GetComponent(ctx context.Context, id string) (*models.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.components[id]
	if !ok {
		return nil, fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	c := r.decode()
	return &c, nil
}

// UpdateComponent applies patch to the component with the given id.
func (s *MemoryStore) UpdateComponent(ctx context.Context, id string, patch models.ComponentPatch) (*models.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.components[id]
	if !ok {
		return nil, fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	c := r.decode()
	patch.Apply(&c)

	updated, err := encodeComponent(&c, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.components[id] = updated
	c = updated.decode()
	return &c, nil
}

// DeleteComponent removes a component.
func (s *MemoryStore) DeleteComponent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.components[id]; !ok {
		return fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	delete(s.components, id)
	return nil
}

// CreateUser stores u under a newly generated id unless the username is taken.
func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("user %s: %w", u.Username, ErrDuplicate)
		}
	}
	u.ID = uuid.New().String()
	s.users[u.ID] = *u
	return nil
}

// GetUser retrieves a user by id.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

// ListUsers returns all users ordered by username.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

// UpdateUserRole changes the role of a user.
func (s *MemoryStore) UpdateUserRole(ctx context.Context, id string, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u.Role = role
	s.users[id] = u
	return &u, nil
}

// ReplaceAll swaps all data for ds under a single write lock.
// Records without ids are given fresh ones.
func (s *MemoryStore) ReplaceAll(ctx context.Context, ds *models.Dataset) error {
	layouts := make(map[string]models.Layout, len(ds.Layouts))
	for i := range ds.Layouts {
		if ds.Layouts[i].ID == "" {
			ds.Layouts[i].ID = uuid.New().String()
		}
		layouts[ds.Layouts[i].ID] = ds.Layouts[i]
	}

	users := make(map[string]models.User, len(ds.Users))
	for i := range ds.Users {
		if ds.Users[i].ID == "" {
			ds.Users[i].ID = uuid.New().String()
		}
		users[ds.Users[i].ID] = ds.Users[i]
	}

	stamp := time.Now().UnixNano()
	components := make(map[string]componentRow, len(ds.Components))
	for i := range ds.Components {
		c := &ds.Components[i]
		if _, ok := layouts[c.LayoutID]; !ok {
			return fmt.Errorf("component %d layout %s: %w", i, c.LayoutID, ErrNotFound)
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		row, err := encodeComponent(c, stamp+int64(i))
		if err != nil {
			return err
		}
		components[c.ID] = row
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts = layouts
	s.components = components
	s.users = users
	s.seq = stamp + int64(len(ds.Components))
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
