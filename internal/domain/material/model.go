package material

import "time"

// Material is a study-material link published to the catalogue.
type Material struct {
	ID          string    `json:"id"`
	Link        string    `json:"link"`
	DisplayName string    `json:"displayName"`
	Subject     string    `json:"subject"`
	Format      string    `json:"format"`
	UploadDate  time.Time `json:"uploadDate"`
	UploadedBy  string    `json:"uploadedBy"`
}
