package complaint

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ComplaintDesk/internal/access"
)

// Category is the area of campus a complaint is about.
type Category string

const (
	CategoryHostel         Category = "hostel"
	CategoryClassroom      Category = "classroom"
	CategoryWashrooms      Category = "washrooms"
	CategorySecurity       Category = "security"
	CategoryParking        Category = "parking"
	CategoryCampus         Category = "campus"
	CategoryAcademics      Category = "academics"
	CategoryCanteen        Category = "canteen"
	CategoryFoodCourt      Category = "food-court"
	CategoryTransportation Category = "transportation"
	CategoryLibrary        Category = "library"
	CategoryOthers         Category = "others"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryHostel, CategoryClassroom, CategoryWashrooms, CategorySecurity,
		CategoryParking, CategoryCampus, CategoryAcademics, CategoryCanteen,
		CategoryFoodCourt, CategoryTransportation, CategoryLibrary, CategoryOthers:
		return true
	}
	return false
}

// Priority is how urgent the complaint is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status is the lifecycle state of a complaint. Any status may follow any
// other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProgressed Status = "progressed"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusPending, StatusProgressed, StatusInProgress,
	StatusResolved, StatusCompleted, StatusRejected,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsResolution reports whether s closes the complaint in the owner's favour.
func (s Status) IsResolution() bool {
	return s == StatusResolved || s == StatusCompleted
}

// Attachment limits per complaint.
const (
	MaxPhotos = 5
	MaxVideos = 1
	MaxVoice  = 1
)

// Attachments are stored file paths. Uploading happens elsewhere.
type Attachments struct {
	Photos []string `bson:"photos" json:"photos"`
	Video  []string `bson:"video" json:"video"`
	Voice  []string `bson:"voice" json:"voice"`
}

// Feedback is the owner's rating of how the complaint was handled.
// It is written once.
type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"`
	Comment     string    `bson:"comment" json:"comment"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
}

// Complaint is an issue filed by a student or staff member.
type Complaint struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    Category           `bson:"category" json:"category"`
	Subcategory string             `bson:"subcategory" json:"subcategory"`
	Priority    Priority           `bson:"priority" json:"priority"`
	Status      Status             `bson:"status" json:"status"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`

	// School and Department are copied from the creator when the complaint
	// is filed and never recomputed.
	School     string `bson:"school" json:"school"`
	Department string `bson:"department" json:"department"`

	AssignedTo *primitive.ObjectID `bson:"assigned_to" json:"assignedTo"`

	Attachments `bson:",inline"`

	AdminNotes      string     `bson:"admin_notes" json:"adminNotes"`
	ResolutionNotes string     `bson:"resolution_notes" json:"resolutionNotes"`
	Feedback        *Feedback  `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updatedAt"`
	ResolvedAt      *time.Time `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}

// Resource returns what the visibility resolver needs to see.
func (c *Complaint) Resource() access.Resource {
	return access.Resource{
		OwnerID:    c.UserID,
		School:     c.School,
		Department: c.Department,
		AssignedTo: c.AssignedTo,
	}
}

// HasFeedback reports whether the owner already rated the complaint.
func (c *Complaint) HasFeedback() bool {
	return c.Feedback != nil && c.Feedback.Rating != 0
}

// Clone returns a deep copy, safe to hand to a goroutine.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.AssignedTo != nil {
		id := *c.AssignedTo
		out.AssignedTo = &id
	}
	if c.Feedback != nil {
		fb := *c.Feedback
		out.Feedback = &fb
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	out.Photos = append([]string(nil), c.Photos...)
	out.Video = append([]string(nil), c.Video...)
	out.Voice = append([]string(nil), c.Voice...)
	return &out
}

// CreateInput is the body of a new complaint.
type CreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`
	Priority    Priority `json:"priority"`
	Attachments
}

// Filter narrows a listing. Empty fields do not filter.
type Filter struct {
	Status   Status
	Category Category
}

// StatusUpdate changes the status and optionally the admin notes.
type StatusUpdate struct {
	Status     Status `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// Patch is a general update. Nil fields are left untouched. An empty
// AssignedTo clears the assignment.
type Patch struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Category        *Category `json:"category"`
	Subcategory     *string   `json:"subcategory"`
	Priority        *Priority `json:"priority"`
	Status          *Status   `json:"status"`
	AdminNotes      *string   `json:"adminNotes"`
	ResolutionNotes *string   `json:"resolutionNotes"`
	AssignedTo      *string   `json:"assignedTo"`
}

// FeedbackInput is the body of a feedback submission.
type FeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Stats is the per-status complaint count.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Progressed int64 `json:"progressed"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
}
