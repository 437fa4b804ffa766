package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types pushed to websocket clients and the message broker.
const (
	EventForkliftCreated       = "forklift.created"
	EventForkliftUpdated       = "forklift.updated"
	EventForkliftDeleted       = "forklift.deleted"
	EventForkliftServiceDue    = "forklift.service_due"
	EventCompanyDeleted        = "company.deleted"
	EventCompanyMembersChanged = "company.members_changed"
)

type Event struct {
	Type       string     `json:"type"`
	CompanyID  uuid.UUID  `json:"company_id"`
	ForkliftID *uuid.UUID `json:"forklift_id,omitempty"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	At         time.Time  `json:"at"`
	// Recipients overrides the company member lookup when set.
	Recipients []uuid.UUID `json:"-"`
}

func NewEvent(eventType string, companyID uuid.UUID) *Event {
	return &Event{Type: eventType, CompanyID: companyID, At: time.Now().UTC()}
}
