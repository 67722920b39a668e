package contact

import "context"

// Repository resolves CRM contact identifiers stored next to local users.
type Repository interface {
	FetchContactID(ctx context.Context, email string) (string, error)
}

// Gateway pushes field updates to the CRM.
type Gateway interface {
	UpdateContact(ctx context.Context, contactID string, fields []FieldUpdate, replace bool) (*Contact, error)
}

type EventPublisher interface {
	PublishFlagApplied(ctx context.Context, result FlagResult) error
}
