package complaint

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
)

// Handler handles HTTP requests for complaints.
type Handler struct {
	service *Service
}

// NewHandler creates a new complaint Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, apperrors.Unauthenticated(apperrors.CodeTokenInvalid, "invalid or missing token")
	}
	return id, nil
}

func badBody() error {
	return apperrors.Invalid(apperrors.CodeValidationFailed, "invalid request body")
}

// Create handles POST /api/complaints.
func (h *Handler) Create(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	complaint, err := h.service.Create(c.Request().Context(), who, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, complaint)
}

// List handles GET /api/complaints?status=&category=.
func (h *Handler) List(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	filter := Filter{
		Status:   Status(c.QueryParam("status")),
		Category: Category(c.QueryParam("category")),
	}
	complaints, err := h.service.List(c.Request().Context(), who, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaints)
}

// Get handles GET /api/complaints/:id.
func (h *Handler) Get(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	complaint, err := h.service.Get(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// UpdateStatus handles PUT /api/complaints/:id/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in StatusUpdate
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	complaint, err := h.service.UpdateStatus(c.Request().Context(), who, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// Assign handles PUT /api/complaints/:id/assign.
func (h *Handler) Assign(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	complaint, err := h.service.Assign(c.Request().Context(), who, c.Param("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// Update handles PUT /api/complaints/:id.
func (h *Handler) Update(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return badBody()
	}
	complaint, err := h.service.Update(c.Request().Context(), who, c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// Delete handles DELETE /api/complaints/:id.
func (h *Handler) Delete(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), who, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Complaint deleted successfully"})
}

// SubmitFeedback handles POST /api/complaints/:id/feedback.
func (h *Handler) SubmitFeedback(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in FeedbackInput
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	complaint, err := h.service.SubmitFeedback(c.Request().Context(), who, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// Stats handles GET /api/complaints/stats/summary.
func (h *Handler) Stats(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
