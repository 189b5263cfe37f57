package store

import "time"

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         string
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Complaint statuses. received is the only unassigned state; resolved and
// closed accept no further status updates.
const (
	StatusReceived  = "received"
	StatusInReview  = "in_review"
	StatusResolved  = "resolved"
	StatusResponded = "responded"
	StatusClosed    = "closed"
)

type Complaint struct {
	ID               string
	Code             string
	Title            string
	Description      string
	Category         string
	Location         string
	PhotoRef         string
	Status           string
	CreatedBy        string
	AssignedTo       *string
	OfficialResponse string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ComplaintEvent is one row of a complaint's append-only history. Kind
// separates formal status transitions from free-text progress notes that do
// not move the state machine.
const (
	EventKindTransition = "transition"
	EventKindNote       = "note"
)

type ComplaintEvent struct {
	ID          int64
	ComplaintID string
	Kind        string
	Status      string
	Notes       string
	UpdatedBy   string
	CreatedAt   time.Time
}

type Poll struct {
	ID             string
	Title          string
	Options        []string
	CreatedBy      string
	TargetLocation string
	CreatedAt      time.Time
}

type Vote struct {
	ID             string
	PollID         string
	UserID         string
	SelectedOption string
	CreatedAt      time.Time
}

const (
	NotifySent   = "sent"
	NotifyFailed = "failed"
)

type NotificationLogEntry struct {
	ID          int64
	Recipient   string
	Channel     string
	EventKind   string
	Subject     string
	Body        string
	Status      string
	ErrorDetail string
	CreatedAt   time.Time
}

// ComplaintFilter narrows list queries. Zero values mean "no filter";
// Location matches as a case-insensitive substring.
type ComplaintFilter struct {
	Status   string
	Category string
	Location string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}
