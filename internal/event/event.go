package event

import "time"

const (
	RoutingKeyFlagRequested = "contact.flag.requested"
	RoutingKeyFlagApplied   = "contact.flag.applied"
	publisherAppID          = "crm-bridge"
)

// FlagRequestedEvent asks the bridge to set a yes/no field on the CRM contact
// registered for Email.
type FlagRequestedEvent struct {
	Email     string    `json:"email"`
	Field     string    `json:"field"`
	Value     bool      `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type FlagAppliedEvent struct {
	Email     string    `json:"email"`
	ContactID string    `json:"contactId"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
