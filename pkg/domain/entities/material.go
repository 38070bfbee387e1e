package entities

import "strings"

// Category classifies a material into an aggregation bucket
type Category int

const (
	CategoryRaw Category = iota
	CategoryPackaging
)

// String method for Category enum
func (c Category) String() string {
	switch c {
	case CategoryRaw:
		return "raw"
	case CategoryPackaging:
		return "packaging"
	default:
		return "unknown"
	}
}

// MarshalText encodes the category as its lowercase name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category, defaulting unknown values to raw
func (c *Category) UnmarshalText(text []byte) error {
	*c, _ = ParseCategory(string(text))
	return nil
}

// ParseCategory maps an external category string onto a Category.
// The comparison is case-insensitive. Anything that is not recognised is
// routed to CategoryRaw and reported through the second return value.
func ParseCategory(raw string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "packaging":
		return CategoryPackaging, true
	case "raw", "raw_material", "raw material":
		return CategoryRaw, true
	default:
		return CategoryRaw, false
	}
}

// Material represents a raw material or packaging component
type Material struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Category         Category `json:"category" yaml:"category"`
	IsClientMaterial bool     `json:"is_client_material" yaml:"is_client_material"`
}

// Key returns the identity used for aggregation, falling back to the display name
func (m Material) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return strings.ToLower(strings.TrimSpace(m.Name))
}
