package brand

import "time"

// Brand represents a product manufacturer or label carried in the catalog.
type Brand struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	LogoURL     *string    `json:"logo_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"` // soft-delete tracker
}

// Filter holds the parameters for a paginated brand search.
type Filter struct {
	Query string // Matched against name
}

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldLogoURL     = "logo_url"
)
