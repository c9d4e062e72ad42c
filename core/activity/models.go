package activity

import "time"

// Activity types
const (
	BatchCreated       = "batch_created"
	BatchUpdated       = "batch_updated"
	BatchDeleted       = "batch_deleted"
	CourseCreated      = "course_created"
	CourseUpdated      = "course_updated"
	CourseDeleted      = "course_deleted"
	MonthCreated       = "month_created"
	MonthUpdated       = "month_updated"
	MonthDeleted       = "month_deleted"
	InstitutionCreated = "institution_created"
	InstitutionUpdated = "institution_updated"
	InstitutionDeleted = "institution_deleted"
	StudentAdded       = "student_added"
	StudentUpdated     = "student_updated"
	StudentDeleted     = "student_deleted"
	PaymentReceived    = "payment_received"
	UserCreated        = "user_created"
	UserUpdated        = "user_updated"
	UserDeleted        = "user_deleted"
)

// DefaultLimit is the number of activities kept in the log.
const DefaultLimit = 100

// Activity is an entry of the audit trail. The log is kept newest first.
type Activity struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data"`
	Timestamp   time.Time              `json:"timestamp"`
	User        string                 `json:"user"`
}
