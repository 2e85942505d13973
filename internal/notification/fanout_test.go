package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/complaint"
	"ComplaintDesk/internal/notifier"
)

type fanoutFixture struct {
	fanout     *Fanout
	dir        *memDirectory
	inbox      *memInbox
	deliveries *memDeliveries
	notifier   *mockNotifier
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	f := &fanoutFixture{
		dir:        &memDirectory{},
		inbox:      &memInbox{},
		deliveries: &memDeliveries{},
		notifier:   &mockNotifier{},
	}
	f.fanout = NewFanout(f.dir, f.inbox, f.deliveries, f.notifier, newDeliveryPool(t), time.Minute)
	return f
}

func newComplaint(owner *auth.User) *complaint.Complaint {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &complaint.Complaint{
		ID:          primitive.NewObjectID(),
		Title:       "Broken projector",
		Description: "Room 204",
		Category:    complaint.CategoryClassroom,
		Priority:    complaint.PriorityHigh,
		Status:      complaint.StatusPending,
		UserID:      owner.ID,
		School:      owner.School,
		Department:  owner.Department,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOnCreatedRecipients(t *testing.T) {
	f := newFanoutFixture(t)
	admin1 := f.dir.add(auth.RoleAdmin, "", "", "admin1@uni.edu", "")
	admin2 := f.dir.add(auth.RoleAdmin, "", "", "admin2@uni.edu", "9000000002")
	staff1 := f.dir.add(auth.RoleStaff, "SOMS", "BBA", "s1@uni.edu", "9000000003")
	staff2 := f.dir.add(auth.RoleStaff, " soms", "bba ", "s2@uni.edu", "")
	other := f.dir.add(auth.RoleStaff, "SOMS", "MBA", "s3@uni.edu", "9000000004")
	schoolWide := f.dir.add(auth.RoleStaff, "SOMS", "", "s4@uni.edu", "")
	student := f.dir.add(auth.RoleStudent, "SOMS", "BBA", "stu@uni.edu", "9000000005")

	f.notifier.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sent(notifier.ChannelEmail))
	f.notifier.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(sent(notifier.ChannelSMS))

	c := newComplaint(student)
	report := f.fanout.OnCreated(context.Background(), c)

	assert.Equal(t, 4, report.Notifications)
	assert.Empty(t, report.Failures)

	for _, u := range []*auth.User{admin1, admin2, staff1, staff2} {
		got := f.inbox.forUser(u.ID)
		require.Len(t, got, 1, "user %s", u.Email)
		assert.Equal(t, TypeStatusUpdate, got[0].Type)
		assert.Equal(t, c.ID, got[0].ComplaintID)
	}
	for _, u := range []*auth.User{other, schoolWide, student} {
		assert.Empty(t, f.inbox.forUser(u.ID), "user %s", u.Email)
	}
	assert.Contains(t, f.inbox.forUser(admin1.ID)[0].Message, `New complaint "Broken projector" has been submitted from SOMS - BBA`)
	assert.Contains(t, f.inbox.forUser(staff1.ID)[0].Message, "Category: classroom")

	// Staff are emailed and texted, the creator gets a confirmation, admins
	// only get in-app entries.
	f.notifier.AssertCalled(t, "SendEmail", mock.Anything, "s1@uni.edu", "Notification: New Complaint Received", mock.Anything)
	f.notifier.AssertCalled(t, "SendEmail", mock.Anything, "s2@uni.edu", "Notification: New Complaint Received", mock.Anything)
	f.notifier.AssertCalled(t, "SendSMS", mock.Anything, "9000000003", mock.Anything)
	f.notifier.AssertCalled(t, "SendEmail", mock.Anything, "stu@uni.edu", "Notification: Complaint Submitted", mock.Anything)
	f.notifier.AssertCalled(t, "SendSMS", mock.Anything, "9000000005", mock.Anything)
	f.notifier.AssertNotCalled(t, "SendEmail", mock.Anything, "admin1@uni.edu", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendSMS", mock.Anything, "9000000002", mock.Anything)
	f.notifier.AssertNotCalled(t, "SendEmail", mock.Anything, "s3@uni.edu", mock.Anything, mock.Anything)
	assert.Equal(t, 3, report.Emails)
	assert.Equal(t, 2, report.SMS)
}

func TestOnCreatedByStaffSkipsSelf(t *testing.T) {
	f := newFanoutFixture(t)
	creator := f.dir.add(auth.RoleStaff, "SOE", "CS", "me@uni.edu", "")
	peer := f.dir.add(auth.RoleStaff, "SOE", "CS", "peer@uni.edu", "")
	f.notifier.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sent(notifier.ChannelEmail))

	report := f.fanout.OnCreated(context.Background(), newComplaint(creator))

	assert.Empty(t, f.inbox.forUser(creator.ID))
	assert.Len(t, f.inbox.forUser(peer.ID), 1)
	assert.Equal(t, 1, report.Notifications)
	f.notifier.AssertCalled(t, "SendEmail", mock.Anything, "me@uni.edu", "Notification: Complaint Submitted", mock.Anything)
}

func TestOnStatusChangedNoop(t *testing.T) {
	f := newFanoutFixture(t)
	owner := f.dir.add(auth.RoleStudent, "SOE", "CS", "o@uni.edu", "9000000001")
	c := newComplaint(owner)

	report := f.fanout.OnStatusChanged(context.Background(), c, complaint.StatusPending)

	assert.Zero(t, report.Attempts())
	assert.Empty(t, f.inbox.forUser(owner.ID))
	f.notifier.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOnStatusChangedResolvedAttemptsEveryChannel(t *testing.T) {
	f := newFanoutFixture(t)
	owner := f.dir.add(auth.RoleStudent, "SOE", "CS", "o@uni.edu", "9000000001")
	c := newComplaint(owner)
	c.Status = complaint.StatusResolved
	c.AdminNotes = "Replaced the lamp"

	f.notifier.On("SendEmail", mock.Anything, "o@uni.edu", "Notification: Complaint Resolved", mock.Anything).
		Return(notifier.Outcome{Channel: notifier.ChannelEmail, Err: errors.New("smtp down")})
	f.notifier.On("SendSMS", mock.Anything, "9000000001", mock.Anything).
		Return(notifier.Outcome{Channel: notifier.ChannelSMS, Err: errors.New("gateway down")})

	report := f.fanout.OnStatusChanged(context.Background(), c, complaint.StatusInProgress)

	got := f.inbox.forUser(owner.ID)
	require.Len(t, got, 1)
	assert.Equal(t, TypeResolution, got[0].Type)
	assert.Contains(t, got[0].Message, "has been resolved")
	assert.Contains(t, got[0].Message, "Admin Note: Replaced the lamp")

	assert.Equal(t, 1, report.Emails)
	assert.Equal(t, 1, report.SMS)
	assert.Len(t, report.Failures, 2)
	f.notifier.AssertExpectations(t)

	recorded := f.deliveries.all()
	require.Len(t, recorded, 2)
	for _, d := range recorded {
		assert.Equal(t, DeliveryPending, d.Status)
		assert.Equal(t, 1, d.Attempts)
		assert.Equal(t, c.ID, d.ComplaintID)
		assert.NotEmpty(t, d.LastError)
	}
}

func TestOnStatusChangedGenericCopy(t *testing.T) {
	f := newFanoutFixture(t)
	owner := f.dir.add(auth.RoleStudent, "SOE", "CS", "", "")
	c := newComplaint(owner)
	c.Status = complaint.StatusInProgress

	report := f.fanout.OnStatusChanged(context.Background(), c, complaint.StatusPending)

	got := f.inbox.forUser(owner.ID)
	require.Len(t, got, 1)
	assert.Equal(t, TypeStatusUpdate, got[0].Type)
	assert.Contains(t, got[0].Message, "status has been updated to in-progress")
	assert.Equal(t, 0, report.Emails+report.SMS)
}

func TestInAppFailureIsRecorded(t *testing.T) {
	f := newFanoutFixture(t)
	owner := f.dir.add(auth.RoleStudent, "SOE", "CS", "", "")
	f.inbox.insertErr = errors.New("write conflict")

	report := f.fanout.OnAssigned(context.Background(), newComplaint(owner))

	require.Len(t, report.Failures, 1)
	assert.Equal(t, ChannelInApp, report.Failures[0].Channel)
	recorded := f.deliveries.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, TypeAssignment, recorded[0].Type)
	assert.Equal(t, owner.ID, recorded[0].UserID)
}

func TestOnAssigned(t *testing.T) {
	f := newFanoutFixture(t)
	owner := f.dir.add(auth.RoleStudent, "SOE", "CS", "o@uni.edu", "9000000001")
	c := newComplaint(owner)

	report := f.fanout.OnAssigned(context.Background(), c)

	got := f.inbox.forUser(owner.ID)
	require.Len(t, got, 1)
	assert.Equal(t, TypeAssignment, got[0].Type)
	assert.Equal(t, `Your complaint "Broken projector" has been assigned`, got[0].Message)
	assert.Equal(t, 1, report.Attempts())
	f.notifier.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEmailBodyIsEscaped(t *testing.T) {
	owner := &auth.User{ID: primitive.NewObjectID(), School: "SOE", Department: "CS"}
	c := newComplaint(owner)
	c.Title = `<script>alert("x")</script>`

	m := staffCreatedMessage(c)
	assert.NotContains(t, m.HTML, "<script>")
	assert.Contains(t, m.HTML, "&lt;script&gt;")
}
