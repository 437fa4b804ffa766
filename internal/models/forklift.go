package models

import (
	"time"

	"github.com/google/uuid"
)

// Service status values derived from the next service date.
const (
	ServiceStatusOverdue = "overdue"
	ServiceStatusDueSoon = "due_soon"
	ServiceStatusOK      = "ok"
	ServiceStatusUnknown = "unknown"
)

// DueSoonDays is the window in which a service counts as due soon.
const DueSoonDays = 7

// ServiceIntervals lists the supported service intervals in hours.
var ServiceIntervals = []int{500, 1000, 1500, 2000}

// IsServiceInterval reports whether hours is one of ServiceIntervals.
func IsServiceInterval(hours int) bool {
	for _, h := range ServiceIntervals {
		if h == hours {
			return true
		}
	}
	return false
}

type Forklift struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`

	Customer        string     `json:"customer" db:"customer"`
	Brand           string     `json:"brand" db:"brand"`
	ModelType       string     `json:"model_type" db:"model_type"`
	SerialNumber    *string    `json:"serial_number" db:"serial_number"`
	EngineSpecs     *string    `json:"engine_specs" db:"engine_specs"`
	Transmission    *string    `json:"transmission" db:"transmission"`
	TireSpecs       *string    `json:"tire_specs" db:"tire_specs"`
	ServiceNotes    *string    `json:"service_notes" db:"service_notes"`
	LastServiceDate *time.Time `json:"last_service_date" db:"last_service_date"`
	NextServiceDate *time.Time `json:"next_service_date" db:"next_service_date"`
	ServiceHours    *int       `json:"service_hours" db:"service_hours"`

	Filters500h     *string `json:"filters_500h" db:"filters_500h"`
	Lubricants500h  *string `json:"lubricants_500h" db:"lubricants_500h"`
	Filters1000h    *string `json:"filters_1000h" db:"filters_1000h"`
	Lubricants1000h *string `json:"lubricants_1000h" db:"lubricants_1000h"`
	Filters1500h    *string `json:"filters_1500h" db:"filters_1500h"`
	Lubricants1500h *string `json:"lubricants_1500h" db:"lubricants_1500h"`
	Filters2000h    *string `json:"filters_2000h" db:"filters_2000h"`
	Lubricants2000h *string `json:"lubricants_2000h" db:"lubricants_2000h"`

	Documents500h  []*ForkliftDocument `json:"documents_500h"`
	Documents1000h []*ForkliftDocument `json:"documents_1000h"`
	Documents1500h []*ForkliftDocument `json:"documents_1500h"`
	Documents2000h []*ForkliftDocument `json:"documents_2000h"`

	ServiceStatus    string `json:"service_status"`
	DaysUntilService *int   `json:"days_until_service"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ServiceInterval is the filters, lubricants and documents of one interval.
type ServiceInterval struct {
	Hours      int
	Filters    *string
	Lubricants *string
	Documents  []*ForkliftDocument
}

// Interval returns the fields of the given service interval.
func (f *Forklift) Interval(hours int) ServiceInterval {
	si := ServiceInterval{Hours: hours}
	switch hours {
	case 500:
		si.Filters, si.Lubricants, si.Documents = f.Filters500h, f.Lubricants500h, f.Documents500h
	case 1000:
		si.Filters, si.Lubricants, si.Documents = f.Filters1000h, f.Lubricants1000h, f.Documents1000h
	case 1500:
		si.Filters, si.Lubricants, si.Documents = f.Filters1500h, f.Lubricants1500h, f.Documents1500h
	case 2000:
		si.Filters, si.Lubricants, si.Documents = f.Filters2000h, f.Lubricants2000h, f.Documents2000h
	}
	return si
}

// SetIntervalText sets the filters and lubricants of an interval.
func (f *Forklift) SetIntervalText(hours int, filters, lubricants *string) {
	switch hours {
	case 500:
		f.Filters500h, f.Lubricants500h = filters, lubricants
	case 1000:
		f.Filters1000h, f.Lubricants1000h = filters, lubricants
	case 1500:
		f.Filters1500h, f.Lubricants1500h = filters, lubricants
	case 2000:
		f.Filters2000h, f.Lubricants2000h = filters, lubricants
	}
}

// SetDocuments groups docs into the per-interval document lists.
func (f *Forklift) SetDocuments(docs []*ForkliftDocument) {
	f.Documents500h, f.Documents1000h, f.Documents1500h, f.Documents2000h = []*ForkliftDocument{}, []*ForkliftDocument{}, []*ForkliftDocument{}, []*ForkliftDocument{}
	for _, d := range docs {
		switch d.IntervalHours {
		case 500:
			f.Documents500h = append(f.Documents500h, d)
		case 1000:
			f.Documents1000h = append(f.Documents1000h, d)
		case 1500:
			f.Documents1500h = append(f.Documents1500h, d)
		case 2000:
			f.Documents2000h = append(f.Documents2000h, d)
		}
	}
}

// ApplyServiceStatus fills ServiceStatus and DaysUntilService relative to now.
func (f *Forklift) ApplyServiceStatus(now time.Time) {
	f.ServiceStatus, f.DaysUntilService = ServiceStatus(f.NextServiceDate, now)
}

// ServiceStatus classifies a next service date. Days are counted in whole
// calendar days in UTC.
func ServiceStatus(next *time.Time, now time.Time) (string, *int) {
	if next == nil {
		return ServiceStatusUnknown, nil
	}
	today := truncateDay(now)
	due := truncateDay(*next)
	days := int(due.Sub(today).Hours() / 24)

	switch {
	case days < 0:
		return ServiceStatusOverdue, &days
	case days < DueSoonDays:
		return ServiceStatusDueSoon, &days
	default:
		return ServiceStatusOK, &days
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ServiceDueItem is a forklift whose next service is overdue or close.
type ServiceDueItem struct {
	ForkliftID      uuid.UUID `json:"forklift_id"`
	CompanyID       uuid.UUID `json:"company_id"`
	Customer        string    `json:"customer"`
	Brand           string    `json:"brand"`
	ModelType       string    `json:"model_type"`
	SerialNumber    *string   `json:"serial_number"`
	NextServiceDate time.Time `json:"next_service_date"`
	ServiceStatus   string    `json:"service_status"`
	DaysUntil       int       `json:"days_until_service"`
}

// ServiceDueSummary is the cached result of a service-due scan.
type ServiceDueSummary struct {
	CompanyID   uuid.UUID         `json:"company_id"`
	WithinDays  int               `json:"within_days"`
	Overdue     int               `json:"overdue"`
	DueSoon     int               `json:"due_soon"`
	// Upcoming counts items past the due-soon window but inside WithinDays.
	Upcoming    int               `json:"upcoming"`
	Items       []*ServiceDueItem `json:"items"`
	GeneratedAt time.Time         `json:"generated_at"`
}
