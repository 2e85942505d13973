package notification

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/notifier"
	"ComplaintDesk/internal/pkg/worker"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendEmail(ctx context.Context, address, subject, html string) notifier.Outcome {
	args := m.Called(ctx, address, subject, html)
	return args.Get(0).(notifier.Outcome)
}

func (m *mockNotifier) SendSMS(ctx context.Context, phone, text string) notifier.Outcome {
	args := m.Called(ctx, phone, text)
	return args.Get(0).(notifier.Outcome)
}

type memDirectory struct {
	users []*auth.User
}

func (d *memDirectory) add(role auth.Role, school, dept, email, phone string) *auth.User {
	u := &auth.User{
		ID: primitive.NewObjectID(), Role: role, School: school, Department: dept,
		Email: email, Phone: phone,
	}
	d.users = append(d.users, u)
	return u
}

func (d *memDirectory) FindByID(_ context.Context, id primitive.ObjectID) (*auth.User, error) {
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (d *memDirectory) FindByRole(_ context.Context, role auth.Role) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *memDirectory) FindStaffInScope(_ context.Context, school, dept string) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range d.users {
		if u.Role == auth.RoleStaff &&
			auth.NormalizeScope(u.School) == auth.NormalizeScope(school) &&
			auth.NormalizeScope(u.Department) == auth.NormalizeScope(dept) {
			out = append(out, u)
		}
	}
	return out, nil
}

type memInbox struct {
	mu        sync.Mutex
	items     []*Notification
	insertErr error
}

func (m *memInbox) Insert(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memInbox) FindByID(_ context.Context, id primitive.ObjectID) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memInbox) ListByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInbox) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (m *memInbox) MarkRead(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id {
			n.Read = true
		}
	}
	return nil
}

func (m *memInbox) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (m *memInbox) forUser(id primitive.ObjectID) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.items {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out
}

type memDeliveries struct {
	mu    sync.Mutex
	items []*Delivery
}

func (m *memDeliveries) Insert(_ context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	cp := *d
	m.items = append(m.items, &cp)
	return nil
}

func (m *memDeliveries) Due(_ context.Context, now time.Time, limit int64) ([]*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Delivery
	for _, d := range m.items {
		if d.Status == DeliveryPending && !d.NextAttemptAt.After(now) {
			cp := *d
			out = append(out, &cp)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDeliveries) Update(_ context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == d.ID {
			cp := *d
			m.items[i] = &cp
		}
	}
	return nil
}

func (m *memDeliveries) all() []*Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Delivery(nil), m.items...)
}

func newDeliveryPool(t *testing.T) *worker.Pool {
	t.Helper()
	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{EventPoolSize: 1, DeliveryPoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { pools.Shutdown(time.Second) })
	return pools.Delivery
}

func sent(ch notifier.Channel) notifier.Outcome {
	return notifier.Outcome{Channel: ch}
}
