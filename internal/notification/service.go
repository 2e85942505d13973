package notification

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
)

// ListLimit is the number of notifications a user sees.
const ListLimit = 50

// Store is the notification persistence the service needs.
type Store interface {
	Inbox
	FindByID(ctx context.Context, id primitive.ObjectID) (*Notification, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// NotificationService serves a user's own notifications.
type NotificationService struct {
	store Store
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store Store) *NotificationService {
	return &NotificationService{store: store}
}

// ListForUser returns the newest notifications of identity.
func (s *NotificationService) ListForUser(ctx context.Context, identity auth.Identity) ([]*Notification, error) {
	list, err := s.store.ListByUser(ctx, identity.ID, ListLimit)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	return list, nil
}

// UnreadCount counts the unread notifications of identity.
func (s *NotificationService) UnreadCount(ctx context.Context, identity auth.Identity) (int64, error) {
	n, err := s.store.CountUnread(ctx, identity.ID)
	if err != nil {
		return 0, apperrors.ErrPersistence(err)
	}
	return n, nil
}

// MarkRead flags one notification as read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, identity auth.Identity, id string) (*Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.Invalid(apperrors.CodeInvalidID, "invalid notification id")
	}
	n, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	if n == nil {
		return nil, apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found")
	}
	if n.UserID != identity.ID {
		return nil, apperrors.ErrAccessDenied()
	}
	if n.Read {
		return n, nil
	}
	if err := s.store.MarkRead(ctx, oid); err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	n.Read = true
	return n, nil
}

// MarkAllRead flags every notification of identity as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, identity auth.Identity) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, identity.ID)
	if err != nil {
		return 0, apperrors.ErrPersistence(err)
	}
	return n, nil
}
