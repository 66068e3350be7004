package portion

import "time"

// Portion is the syllabus ledger for one (subject, staff) pair.
type Portion struct {
	ID              string    `json:"id"`
	Subject         string    `json:"subject"`
	Staff           string    `json:"staff"`
	CompletedTopics []string  `json:"completedTopics"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasTopic reports whether topic is already recorded, compared exactly.
func (p *Portion) HasTopic(topic string) bool {
	for _, t := range p.CompletedTopics {
		if t == topic {
			return true
		}
	}
	return false
}
