package supplier

import "time"

// Supplier statuses. An inactive supplier is kept for history but no longer
// sourced from.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Supplier represents a sourcing partner that stock is purchased from.
type Supplier struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ContactName   *string    `json:"contact_name"`
	ContactEmail  *string    `json:"contact_email"`
	ContactNumber *string    `json:"contact_number"`
	Address       *string    `json:"address"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"` // soft-delete tracker
}

// Filter holds the parameters for a paginated supplier search.
type Filter struct {
	Query  string // Matched against name and contact name
	Status string
}

const (
	FieldName         = "name"
	FieldContactName  = "contact_name"
	FieldContactEmail = "contact_email"
	FieldStatus       = "status"
)
