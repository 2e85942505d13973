package notification

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/complaint"
	"ComplaintDesk/internal/notifier"
	"ComplaintDesk/internal/pkg/logger"
	"ComplaintDesk/internal/pkg/worker"
)

// Directory finds the recipients of a fanout.
type Directory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*auth.User, error)
	FindByRole(ctx context.Context, role auth.Role) ([]*auth.User, error)
	FindStaffInScope(ctx context.Context, school, department string) ([]*auth.User, error)
}

// Inbox stores in-app notifications.
type Inbox interface {
	Insert(ctx context.Context, n *Notification) error
}

// DeliveryStore keeps failed sends for the retry scheduler.
type DeliveryStore interface {
	Insert(ctx context.Context, d *Delivery) error
	Due(ctx context.Context, now time.Time, limit int64) ([]*Delivery, error)
	Update(ctx context.Context, d *Delivery) error
}

// Runner runs a batch of tasks with bounded concurrency and waits for all
// of them. *worker.Pool satisfies it.
type Runner interface {
	RunAll(ctx context.Context, tasks []worker.Task) error
}

// Fanout turns complaint events into in-app notifications, emails and SMS.
// Every delivery is its own task; one failing recipient never stops the
// others, and nothing here fails the complaint write that triggered it.
type Fanout struct {
	dir        Directory
	inbox      Inbox
	deliveries DeliveryStore
	notifier   notifier.Notifier
	runner     Runner
	retryAfter time.Duration
	now        func() time.Time
}

// NewFanout creates a Fanout. retryAfter is the delay before the first
// retry of a failed send.
func NewFanout(dir Directory, inbox Inbox, deliveries DeliveryStore, n notifier.Notifier, runner Runner, retryAfter time.Duration) *Fanout {
	return &Fanout{
		dir:        dir,
		inbox:      inbox,
		deliveries: deliveries,
		notifier:   n,
		runner:     runner,
		retryAfter: retryAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// batch collects the deliveries of one event and their results.
type batch struct {
	f       *Fanout
	c       *complaint.Complaint
	tasks   []worker.Task
	mu      sync.Mutex
	report  Report
	pending []*Delivery
}

func (f *Fanout) newBatch(c *complaint.Complaint) *batch {
	return &batch{f: f, c: c}
}

func (b *batch) inApp(userID primitive.ObjectID, text string, typ Type) {
	b.tasks = append(b.tasks, func(ctx context.Context) {
		n := &Notification{
			UserID:      userID,
			ComplaintID: b.c.ID,
			Message:     text,
			Type:        typ,
			CreatedAt:   b.f.now(),
		}
		err := b.f.inbox.Insert(ctx, n)
		b.done(ChannelInApp, userID.Hex(), err, &Delivery{
			Channel: ChannelInApp, Recipient: userID.Hex(), Body: text, UserID: userID, Type: typ,
		})
	})
}

func (b *batch) email(u *auth.User, m message) {
	if u.Email == "" {
		return
	}
	b.tasks = append(b.tasks, func(ctx context.Context) {
		out := b.f.notifier.SendEmail(ctx, u.Email, m.Subject, m.HTML)
		b.done(ChannelEmail, u.Email, out.Err, &Delivery{
			Channel: ChannelEmail, Recipient: u.Email, Subject: m.Subject, Body: m.HTML, UserID: u.ID,
		})
	})
}

func (b *batch) sms(u *auth.User, m message) {
	if u.Phone == "" {
		return
	}
	b.tasks = append(b.tasks, func(ctx context.Context) {
		out := b.f.notifier.SendSMS(ctx, u.Phone, m.SMS)
		b.done(ChannelSMS, u.Phone, out.Err, &Delivery{
			Channel: ChannelSMS, Recipient: u.Phone, Body: m.SMS, UserID: u.ID,
		})
	})
}

func (b *batch) done(ch Channel, recipient string, err error, retry *Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch ch {
	case ChannelInApp:
		b.report.Notifications++
	case ChannelEmail:
		b.report.Emails++
	case ChannelSMS:
		b.report.SMS++
	}
	if err != nil {
		b.report.Failures = append(b.report.Failures, Failure{Channel: ch, Recipient: recipient, Err: err})
		retry.LastError = err.Error()
		b.pending = append(b.pending, retry)
	}
}

// run executes the batch and records failed sends for retry.
func (b *batch) run(ctx context.Context) Report {
	if err := b.f.runner.RunAll(ctx, b.tasks); err != nil {
		logger.Warn("fanout batch incomplete", zap.String("complaint_id", b.c.ID.Hex()), zap.Error(err))
	}

	now := b.f.now()
	for _, d := range b.pending {
		d.ComplaintID = b.c.ID
		d.Status = DeliveryPending
		d.Attempts = 1
		d.NextAttemptAt = now.Add(b.f.retryAfter)
		d.CreatedAt = now
		d.UpdatedAt = now
		if err := b.f.deliveries.Insert(ctx, d); err != nil {
			logger.Error("failed delivery not recorded",
				zap.String("channel", string(d.Channel)),
				zap.String("complaint_id", b.c.ID.Hex()),
				zap.Error(err),
			)
		}
	}
	return b.report
}

// OnCreated notifies admins in-app, matching staff in-app and by email and
// SMS, and the creator by email and SMS.
func (f *Fanout) OnCreated(ctx context.Context, c *complaint.Complaint) Report {
	b := f.newBatch(c)

	admins, err := f.dir.FindByRole(ctx, auth.RoleAdmin)
	if err != nil {
		logger.Error("admin lookup failed", zap.String("complaint_id", c.ID.Hex()), zap.Error(err))
	}
	for _, admin := range admins {
		b.inApp(admin.ID, adminCreatedText(c), TypeStatusUpdate)
	}

	staff, err := f.dir.FindStaffInScope(ctx, c.School, c.Department)
	if err != nil {
		logger.Error("staff lookup failed", zap.String("complaint_id", c.ID.Hex()), zap.Error(err))
	}
	staffMsg := staffCreatedMessage(c)
	for _, member := range staff {
		if member.ID == c.UserID {
			continue
		}
		b.inApp(member.ID, staffCreatedText(c), TypeStatusUpdate)
		b.email(member, staffMsg)
		b.sms(member, staffMsg)
	}

	creator, err := f.dir.FindByID(ctx, c.UserID)
	if err != nil {
		logger.Error("creator lookup failed", zap.String("complaint_id", c.ID.Hex()), zap.Error(err))
	}
	if creator != nil {
		ownerMsg := ownerCreatedMessage(c)
		b.email(creator, ownerMsg)
		b.sms(creator, ownerMsg)
	}

	return b.run(ctx)
}

// OnStatusChanged notifies the owner of a status change. Nothing is sent
// when the status did not change.
func (f *Fanout) OnStatusChanged(ctx context.Context, c *complaint.Complaint, previous complaint.Status) Report {
	if previous == c.Status {
		return Report{}
	}
	b := f.newBatch(c)
	at := c.UpdatedAt
	if at.IsZero() {
		at = f.now()
	}

	typ := TypeStatusUpdate
	if c.Status.IsResolution() {
		typ = TypeResolution
	}
	b.inApp(c.UserID, statusText(c, at), typ)

	owner, err := f.dir.FindByID(ctx, c.UserID)
	if err != nil {
		logger.Error("owner lookup failed", zap.String("complaint_id", c.ID.Hex()), zap.Error(err))
	}
	if owner != nil {
		msg := statusMessage(c, at)
		b.email(owner, msg)
		b.sms(owner, msg)
	}
	return b.run(ctx)
}

// OnAssigned tells the owner in-app that the complaint was assigned.
func (f *Fanout) OnAssigned(ctx context.Context, c *complaint.Complaint) Report {
	b := f.newBatch(c)
	b.inApp(c.UserID, assignedText(c), TypeAssignment)
	return b.run(ctx)
}

// ComplaintCreated implements complaint.Events.
func (f *Fanout) ComplaintCreated(ctx context.Context, c *complaint.Complaint) {
	logReport("created", c, f.OnCreated(ctx, c))
}

// StatusChanged implements complaint.Events.
func (f *Fanout) StatusChanged(ctx context.Context, c *complaint.Complaint, previous complaint.Status) {
	logReport("status_changed", c, f.OnStatusChanged(ctx, c, previous))
}

// ComplaintAssigned implements complaint.Events.
func (f *Fanout) ComplaintAssigned(ctx context.Context, c *complaint.Complaint) {
	logReport("assigned", c, f.OnAssigned(ctx, c))
}

func logReport(event string, c *complaint.Complaint, r Report) {
	fields := []zap.Field{
		zap.String("event", event),
		zap.String("complaint_id", c.ID.Hex()),
		zap.Int("notifications", r.Notifications),
		zap.Int("emails", r.Emails),
		zap.Int("sms", r.SMS),
		zap.Int("failed", len(r.Failures)),
	}
	if len(r.Failures) > 0 {
		logger.Warn("fanout finished with failures", fields...)
		return
	}
	logger.Info("fanout finished", fields...)
}
