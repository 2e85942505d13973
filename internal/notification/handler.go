package notification

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	service *NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid or missing token")
	}
	return id, nil
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListForUser(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	n, err := h.service.UnreadCount(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

// MarkRead handles PUT /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkAllRead(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"updated": n,
	})
}
