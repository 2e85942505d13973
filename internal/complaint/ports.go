package complaint

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/access"
	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/pkg/worker"
)

// Store persists complaints. FindByID returns nil, nil when the complaint
// does not exist.
type Store interface {
	Insert(ctx context.Context, c *Complaint) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Complaint, error)
	Find(ctx context.Context, scope access.Scope, filter Filter) ([]*Complaint, error)
	Save(ctx context.Context, c *Complaint) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

// UserDirectory resolves assignees.
type UserDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*auth.User, error)
}

// Events receives committed complaint changes. Implementations must not
// fail the caller; they log and record their own failures.
type Events interface {
	ComplaintCreated(ctx context.Context, c *Complaint)
	StatusChanged(ctx context.Context, c *Complaint, previous Status)
	ComplaintAssigned(ctx context.Context, c *Complaint)
}

// Dispatcher runs a task after the request has been answered.
type Dispatcher interface {
	Dispatch(task worker.Task) error
}
