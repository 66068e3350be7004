package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeWorkCreated   ActivityType = "work_created"
	TypeWorkStatusSet ActivityType = "work_status_set"
	TypeWorkDeleted   ActivityType = "work_deleted"
	TypeTopicAdded    ActivityType = "topic_added"
	TypeMaterialAdded ActivityType = "material_added"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           string       `json:"id"`
	ActivityType ActivityType `json:"type"`
	SubjectID    string       `json:"subjectId,omitempty"`
	Actor        string       `json:"actor,omitempty"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"createdAt"`
}
