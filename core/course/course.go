package course

import "github.com/shopspring/decimal"

// Course is the read-only display record of a course as served by the
// backend catalog.
type Course struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Instructor    string           `json:"instructor"`
	Category      string           `json:"category,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	ImageURL      string           `json:"imageUrl"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	CourseCount int    `json:"courseCount"`
}

type Instructor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Headline    string `json:"headline,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	CourseCount int    `json:"courseCount"`
}
