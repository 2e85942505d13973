package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Type classifies an in-app notification.
type Type string

const (
	TypeStatusUpdate Type = "status_update"
	TypeAssignment   Type = "assignment"
	TypeNewComment   Type = "new_comment" // reserved, nothing emits it yet
	TypeResolution   Type = "resolution"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	ComplaintID primitive.ObjectID `bson:"complaint_id" json:"complaintId"`
	Message     string             `bson:"message" json:"message"`
	Type        Type               `bson:"type" json:"type"`
	Read        bool               `bson:"read" json:"read"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// Channel of a Delivery.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// DeliveryStatus is the retry state of a failed delivery.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryAbandoned DeliveryStatus = "abandoned"
)

// Delivery is a send that failed during fanout and waits for a retry.
// In-app deliveries carry the notification to insert; email and SMS carry
// the rendered message.
type Delivery struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Channel       Channel            `bson:"channel"`
	Recipient     string             `bson:"recipient"` // address, phone, or user id hex
	Subject       string             `bson:"subject,omitempty"`
	Body          string             `bson:"body"`
	UserID        primitive.ObjectID `bson:"user_id"`
	ComplaintID   primitive.ObjectID `bson:"complaint_id"`
	Type          Type               `bson:"type,omitempty"`
	Status        DeliveryStatus     `bson:"status"`
	Attempts      int                `bson:"attempts"`
	LastError     string             `bson:"last_error"`
	NextAttemptAt time.Time          `bson:"next_attempt_at"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// Failure is one failed send in a fanout.
type Failure struct {
	Channel   Channel
	Recipient string
	Err       error
}

// Report summarizes one fanout.
type Report struct {
	Notifications int
	Emails        int
	SMS           int
	Failures      []Failure
}

// Attempts is the number of sends tried, successful or not.
func (r Report) Attempts() int {
	return r.Notifications + r.Emails + r.SMS
}
