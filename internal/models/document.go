package models

import (
	"time"

	"github.com/google/uuid"
)

// ForkliftDocument is an attachment stored in object storage.
type ForkliftDocument struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ForkliftID    uuid.UUID `json:"forklift_id" db:"forklift_id"`
	CompanyID     uuid.UUID `json:"company_id" db:"company_id"`
	IntervalHours int       `json:"interval_hours" db:"interval_hours"`
	ObjectKey     string    `json:"-" db:"object_key"`
	ContentType   string    `json:"content_type" db:"content_type"`
	SizeBytes     int64     `json:"size_bytes" db:"size_bytes"`
	FileName      string    `json:"file_name" db:"file_name"`
	UploadedBy    uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	URL           string    `json:"url,omitempty" db:"-"`
}
