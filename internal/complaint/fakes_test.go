package complaint

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/access"
	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/pkg/worker"
)

// memStore keeps complaints in memory and applies scopes with
// access.Scope.Matches.
type memStore struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*Complaint
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{byID: map[primitive.ObjectID]*Complaint{}}
}

func (m *memStore) Insert(_ context.Context, c *Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.byID[c.ID] = c.Clone()
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *memStore) Find(_ context.Context, scope access.Scope, filter Filter) ([]*Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Complaint{}
	for _, c := range m.byID {
		if !scope.Matches(c.Resource()) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Save(_ context.Context, c *Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byID[c.ID] = c.Clone()
	return nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

func (m *memStore) CountByStatus(_ context.Context) (map[Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[Status]int64{}
	for _, c := range m.byID {
		counts[c.Status]++
	}
	return counts, nil
}

type memUsers map[primitive.ObjectID]*auth.User

func (m memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*auth.User, error) {
	return m[id], nil
}

type recordedEvent struct {
	kind     string
	c        *Complaint
	previous Status
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) record(e recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) ComplaintCreated(_ context.Context, c *Complaint) {
	r.record(recordedEvent{kind: "created", c: c})
}

func (r *recordingEvents) StatusChanged(_ context.Context, c *Complaint, previous Status) {
	r.record(recordedEvent{kind: "status", c: c, previous: previous})
}

func (r *recordingEvents) ComplaintAssigned(_ context.Context, c *Complaint) {
	r.record(recordedEvent{kind: "assigned", c: c})
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(task worker.Task) error {
	task(context.Background())
	return nil
}

type fixture struct {
	svc    *Service
	store  *memStore
	users  memUsers
	events *recordingEvents
	clock  *time.Time
}

func newFixture() *fixture {
	store := newMemStore()
	users := memUsers{}
	events := &recordingEvents{}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{store: store, users: users, events: events, clock: &now}

	f.svc = NewService(store, users, events, inlineDispatcher{})
	f.svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *fixture) tick(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) addUser(role auth.Role, school, department string) *auth.User {
	u := &auth.User{
		ID:         primitive.NewObjectID(),
		FirstName:  string(role),
		Role:       role,
		School:     school,
		Department: department,
	}
	f.users[u.ID] = u
	return u
}
