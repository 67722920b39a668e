package contact

import "fmt"

const (
	FlagYes = "yes"
	FlagNo  = "no"
)

// FieldUpdate describes one field to set on a CRM contact. Value is either a
// string or a bool.
type FieldUpdate struct {
	Key      string `json:"key"`
	Value    any    `json:"value"`
	Modifier string `json:"modifier"`
}

type FieldValue struct {
	Value    any    `json:"value"`
	Modifier string `json:"modifier,omitempty"`
}

// Contact is the CRM's view of a person record as returned from an update.
type Contact struct {
	ID         string                  `json:"id"`
	RecordType string                  `json:"record_type,omitempty"`
	Fields     map[string][]FieldValue `json:"fields"`
}

// FirstValue returns the current value of field, assuming one value per field.
func (c *Contact) FirstValue(field string) (any, bool) {
	if c == nil {
		return nil, false
	}
	values, ok := c.Fields[field]
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values[0].Value, true
}

func FlagValue(on bool) string {
	if on {
		return FlagYes
	}
	return FlagNo
}

func NewFlagUpdate(fieldName string, on bool) FieldUpdate {
	return FieldUpdate{
		Key:      fieldName,
		Value:    FlagValue(on),
		Modifier: "",
	}
}

// FlagResult is the outcome of SetFlag. When Registered is false the email had
// no CRM contact and only Message is meaningful.
type FlagResult struct {
	Email      string
	Registered bool
	ContactID  string
	Field      string
	Value      string
	Message    string
}

func newFlaggedResult(email, crmName, field string, c *Contact, echoed any) *FlagResult {
	value := fmt.Sprint(echoed)
	return &FlagResult{
		Email:      email,
		Registered: true,
		ContactID:  c.ID,
		Field:      field,
		Value:      value,
		Message:    fmt.Sprintf("Flagged in %s: %s", crmName, value),
	}
}

func newNotRegisteredResult(email, crmName, field string) *FlagResult {
	return &FlagResult{
		Email:   email,
		Field:   field,
		Message: fmt.Sprintf("%s does not exist in %s", email, crmName),
	}
}

// Map renders a registered result as {"id": <contact id>, <field>: <message>}.
// It returns nil for an unregistered result.
func (r *FlagResult) Map() map[string]string {
	if r == nil || !r.Registered {
		return nil
	}
	return map[string]string{
		"id":    r.ContactID,
		r.Field: r.Message,
	}
}

func (r *FlagResult) String() string {
	if r == nil {
		return ""
	}
	return r.Message
}
