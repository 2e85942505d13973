package complaint

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ComplaintDesk/internal/access"
	"ComplaintDesk/internal/auth"
	apperrors "ComplaintDesk/internal/pkg/errors"
	"ComplaintDesk/internal/pkg/logger"
)

// Service implements the complaint operations. Every read and write goes
// through the access resolver; side effects run after the write commits.
type Service struct {
	store      Store
	users      UserDirectory
	events     Events
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService creates a new complaint Service.
func NewService(store Store, users UserDirectory, events Events, dispatcher Dispatcher) *Service {
	return &Service{
		store:      store,
		users:      users,
		events:     events,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new complaint on behalf of identity. The complaint keeps
// a copy of the creator's school and department.
func (s *Service) Create(ctx context.Context, identity auth.Identity, in CreateInput) (*Complaint, error) {
	if identity.Role != auth.RoleStudent && identity.Role != auth.RoleStaff {
		return nil, apperrors.Forbidden(apperrors.CodeRoleForbidden, "only students and staff can file complaints")
	}
	school := strings.TrimSpace(identity.School)
	department := strings.TrimSpace(identity.Department)
	if school == "" {
		return nil, apperrors.ErrValidation("school", apperrors.FieldRequired, "profile has no school")
	}
	if department == "" {
		return nil, apperrors.ErrValidation("department", apperrors.FieldRequired, "profile has no department")
	}

	c := &Complaint{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Subcategory: strings.TrimSpace(in.Subcategory),
		Priority:    in.Priority,
		Status:      StatusPending,
		UserID:      identity.ID,
		School:      school,
		Department:  department,
		Attachments: Attachments{
			Photos: orEmpty(in.Photos),
			Video:  orEmpty(in.Video),
			Voice:  orEmpty(in.Voice),
		},
	}
	if c.Category == "" {
		c.Category = CategoryOthers
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if err := validateNew(c); err != nil {
		return nil, err
	}

	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.store.Insert(ctx, c); err != nil {
		logger.Error("complaint insert failed", zap.String("user_id", identity.ID.Hex()), zap.Error(err))
		return nil, apperrors.ErrPersistence(err)
	}
	logger.Info("complaint created",
		zap.String("complaint_id", c.ID.Hex()),
		zap.String("school", c.School),
		zap.String("department", c.Department),
	)

	s.dispatch("created", c, func(ctx context.Context, snap *Complaint) {
		s.events.ComplaintCreated(ctx, snap)
	})
	return c, nil
}

// List returns the complaints identity may read, newest first.
func (s *Service) List(ctx context.Context, identity auth.Identity, filter Filter) ([]*Complaint, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.ErrValidation("status", apperrors.FieldInvalid, "unknown status")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperrors.ErrValidation("category", apperrors.FieldInvalid, "unknown category")
	}

	complaints, err := s.store.Find(ctx, access.ScopeFor(identity), filter)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	return complaints, nil
}

// Get returns one complaint if identity may read it.
func (s *Service) Get(ctx context.Context, identity auth.Identity, id string) (*Complaint, error) {
	return s.load(ctx, identity, id, access.Read)
}

// UpdateStatus sets the status and, when given, the admin notes. The owner
// is notified only when the status actually changes.
func (s *Service) UpdateStatus(ctx context.Context, identity auth.Identity, id string, in StatusUpdate) (*Complaint, error) {
	if in.Status == "" {
		return nil, apperrors.ErrValidation("status", apperrors.FieldRequired, "status is required")
	}
	if !in.Status.Valid() {
		return nil, apperrors.ErrValidation("status", apperrors.FieldInvalid, "unknown status")
	}

	c, err := s.load(ctx, identity, id, access.Write)
	if err != nil {
		return nil, err
	}
	fields := access.WritableFields(identity, c.Resource())
	if !fields.Has(access.FieldStatus) {
		return nil, apperrors.ErrAccessDenied()
	}
	if in.AdminNotes != "" && !fields.Has(access.FieldAdminNotes) {
		return nil, apperrors.ErrValidation(string(access.FieldAdminNotes), apperrors.FieldNotWritable, "")
	}

	previous := c.Status
	c.Status = in.Status
	if in.AdminNotes != "" {
		c.AdminNotes = in.AdminNotes
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	if previous != c.Status {
		s.dispatch("status_changed", c, func(ctx context.Context, snap *Complaint) {
			s.events.StatusChanged(ctx, snap, previous)
		})
	}
	return c, nil
}

// Assign hands the complaint to a staff member or admin. Admin only.
func (s *Service) Assign(ctx context.Context, identity auth.Identity, id, assigneeID string) (*Complaint, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeRoleForbidden, "admin access required")
	}
	if strings.TrimSpace(assigneeID) == "" {
		return nil, apperrors.ErrValidation(string(access.FieldAssignedTo), apperrors.FieldRequired, "assignee is required")
	}
	c, err := s.load(ctx, identity, id, access.Write)
	if err != nil {
		return nil, err
	}
	assignee, err := s.resolveAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	c.AssignedTo = &assignee
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.dispatch("assigned", c, func(ctx context.Context, snap *Complaint) {
		s.events.ComplaintAssigned(ctx, snap)
	})
	return c, nil
}

// Update applies a partial change. Every field set in the patch must be
// writable by identity; otherwise nothing is changed.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id string, p Patch) (*Complaint, error) {
	c, err := s.load(ctx, identity, id, access.Write)
	if err != nil {
		return nil, err
	}

	fields := access.WritableFields(identity, c.Resource())
	var denied []apperrors.FieldError
	for _, f := range p.fields() {
		if !fields.Has(f) {
			denied = append(denied, apperrors.FieldError{Field: string(f), Code: apperrors.FieldNotWritable})
		}
	}
	if len(denied) > 0 {
		return nil, apperrors.Invalid(apperrors.CodeValidationFailed, "validation failed").WithFields(denied...)
	}
	if len(p.fields()) == 0 {
		return c, nil
	}

	previousStatus := c.Status
	previousAssignee := c.AssignedTo
	if err := s.apply(ctx, c, p); err != nil {
		return nil, err
	}
	if err := validateNew(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	if previousStatus != c.Status {
		s.dispatch("status_changed", c, func(ctx context.Context, snap *Complaint) {
			s.events.StatusChanged(ctx, snap, previousStatus)
		})
	}
	if c.AssignedTo != nil && (previousAssignee == nil || *previousAssignee != *c.AssignedTo) {
		s.dispatch("assigned", c, func(ctx context.Context, snap *Complaint) {
			s.events.ComplaintAssigned(ctx, snap)
		})
	}
	return c, nil
}

// Delete removes a complaint. Admin only.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if !identity.IsAdmin() {
		return apperrors.Forbidden(apperrors.CodeRoleForbidden, "admin access required")
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	found, err := s.store.Delete(ctx, oid)
	if err != nil {
		return apperrors.ErrPersistence(err)
	}
	if !found {
		return errNotFound()
	}
	logger.Info("complaint deleted", zap.String("complaint_id", id), zap.String("by", identity.ID.Hex()))
	return nil
}

// SubmitFeedback records the owner's rating. Feedback is accepted in any
// status and only once.
func (s *Service) SubmitFeedback(ctx context.Context, identity auth.Identity, id string, in FeedbackInput) (*Complaint, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.ErrValidation("rating", apperrors.FieldOutOfRange, "rating must be between 1 and 5")
	}
	c, err := s.load(ctx, identity, id, access.Read)
	if err != nil {
		return nil, err
	}
	if !access.CanWriteField(identity, c.Resource(), access.FieldFeedback) {
		return nil, apperrors.ErrAccessDenied()
	}
	if c.HasFeedback() {
		return nil, apperrors.Invalid(apperrors.CodeFeedbackExists, "feedback already submitted").
			WithFields(apperrors.FieldError{Field: string(access.FieldFeedback), Code: apperrors.FieldAlreadySet})
	}

	c.Feedback = &Feedback{
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
		SubmittedAt: s.now(),
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Stats counts complaints per status. Admin only.
func (s *Service) Stats(ctx context.Context, identity auth.Identity) (*Stats, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeRoleForbidden, "admin access required")
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}

	stats := &Stats{
		Pending:    counts[StatusPending],
		Progressed: counts[StatusProgressed],
		InProgress: counts[StatusInProgress],
		Resolved:   counts[StatusResolved],
		Completed:  counts[StatusCompleted],
		Rejected:   counts[StatusRejected],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, identity auth.Identity, id string, mode access.Mode) (*Complaint, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, oid)
	if err != nil {
		return nil, err
	}
	// A complaint the caller cannot see is reported exactly like a missing one.
	if !access.CanAccess(identity, c.Resource(), access.Read) {
		logger.Debug("complaint hidden from caller",
			zap.String("complaint_id", id),
			zap.String("user_id", identity.ID.Hex()),
		)
		return nil, errNotFound()
	}
	if !access.CanAccess(identity, c.Resource(), mode) {
		logger.Debug("complaint access denied",
			zap.String("complaint_id", id),
			zap.String("user_id", identity.ID.Hex()),
			zap.Stringer("mode", mode),
		)
		return nil, apperrors.ErrAccessDenied()
	}
	return c, nil
}

func (s *Service) find(ctx context.Context, id primitive.ObjectID) (*Complaint, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrPersistence(err)
	}
	if c == nil {
		return nil, errNotFound()
	}
	return c, nil
}

// save stamps the timestamps and persists. resolvedAt is set on the first
// entry into resolved and kept from then on.
func (s *Service) save(ctx context.Context, c *Complaint) error {
	now := s.now()
	c.UpdatedAt = now
	if c.Status == StatusResolved && c.ResolvedAt == nil {
		c.ResolvedAt = &now
	}
	if err := s.store.Save(ctx, c); err != nil {
		logger.Error("complaint save failed", zap.String("complaint_id", c.ID.Hex()), zap.Error(err))
		return apperrors.ErrPersistence(err)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, c *Complaint, p Patch) error {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Subcategory != nil {
		c.Subcategory = strings.TrimSpace(*p.Subcategory)
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AdminNotes != nil {
		c.AdminNotes = *p.AdminNotes
	}
	if p.ResolutionNotes != nil {
		c.ResolutionNotes = *p.ResolutionNotes
	}
	if p.AssignedTo != nil {
		if strings.TrimSpace(*p.AssignedTo) == "" {
			c.AssignedTo = nil
		} else {
			assignee, err := s.resolveAssignee(ctx, *p.AssignedTo)
			if err != nil {
				return err
			}
			c.AssignedTo = &assignee
		}
	}
	return nil
}

func (s *Service) resolveAssignee(ctx context.Context, hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrValidation(string(access.FieldAssignedTo), apperrors.FieldInvalid, "assignee id is malformed")
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrPersistence(err)
	}
	if user == nil {
		return primitive.NilObjectID, apperrors.NotFound(apperrors.CodeUserNotFound, "assignee not found")
	}
	if user.Role != auth.RoleStaff && user.Role != auth.RoleAdmin {
		return primitive.NilObjectID, apperrors.ErrValidation(string(access.FieldAssignedTo), apperrors.FieldInvalid, "assignee must be staff or admin")
	}
	return oid, nil
}

// dispatch hands a snapshot of the committed complaint to the event sink.
// A failed dispatch is logged; the write stands.
func (s *Service) dispatch(event string, c *Complaint, fn func(ctx context.Context, snap *Complaint)) {
	snap := c.Clone()
	err := s.dispatcher.Dispatch(func(ctx context.Context) {
		fn(ctx, snap)
	})
	if err != nil {
		logger.Warn("complaint event not dispatched",
			zap.String("event", event),
			zap.String("complaint_id", c.ID.Hex()),
			zap.Error(err),
		)
	}
}

func (p Patch) fields() []access.Field {
	var out []access.Field
	add := func(set bool, f access.Field) {
		if set {
			out = append(out, f)
		}
	}
	add(p.Title != nil, access.FieldTitle)
	add(p.Description != nil, access.FieldDescription)
	add(p.Category != nil, access.FieldCategory)
	add(p.Subcategory != nil, access.FieldSubcategory)
	add(p.Priority != nil, access.FieldPriority)
	add(p.Status != nil, access.FieldStatus)
	add(p.AdminNotes != nil, access.FieldAdminNotes)
	add(p.ResolutionNotes != nil, access.FieldResolutionNotes)
	add(p.AssignedTo != nil, access.FieldAssignedTo)
	return out
}

func validateNew(c *Complaint) error {
	switch {
	case c.Title == "":
		return apperrors.ErrValidation("title", apperrors.FieldRequired, "title is required")
	case c.Description == "":
		return apperrors.ErrValidation("description", apperrors.FieldRequired, "description is required")
	case !c.Category.Valid():
		return apperrors.ErrValidation("category", apperrors.FieldInvalid, "unknown category")
	case !c.Priority.Valid():
		return apperrors.ErrValidation("priority", apperrors.FieldInvalid, "unknown priority")
	case !c.Status.Valid():
		return apperrors.ErrValidation("status", apperrors.FieldInvalid, "unknown status")
	case len(c.Photos) > MaxPhotos:
		return apperrors.ErrValidation("photos", apperrors.FieldTooManyItems, "at most 5 photos")
	case len(c.Video) > MaxVideos:
		return apperrors.ErrValidation("video", apperrors.FieldTooManyItems, "at most 1 video")
	case len(c.Voice) > MaxVoice:
		return apperrors.ErrValidation("voice", apperrors.FieldTooManyItems, "at most 1 voice note")
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.Invalid(apperrors.CodeInvalidID, "invalid complaint id")
	}
	return oid, nil
}

func errNotFound() *apperrors.AppError {
	return apperrors.NotFound(apperrors.CodeComplaintNotFound, "complaint not found")
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
