package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Country is a travel destination country
type Country struct {
	ID        string    `json:"id"`
	ISO       string    `json:"iso"`
	Name      string    `json:"name"`
	Flag      string    `json:"flag,omitempty"`
	PhoneCode string    `json:"phone_code,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// State is a province or region within a country
type State struct {
	ID        string   `json:"id"`
	CountryID string   `json:"country_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Category tags destinations, e.g. beach or temple
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Language codes a destination can be translated into
const (
	LanguageEN = "en"
	LanguageID = "id"
)

// IsValidLanguage reports whether code is supported
func IsValidLanguage(code string) bool {
	return code == LanguageEN || code == LanguageID
}

// Destination is a bookable place, priced in its country's currency
type Destination struct {
	ID           string                   `json:"id"`
	CategoryID   string                   `json:"category_id"`
	StateID      string                   `json:"state_id"`
	CountryID    string                   `json:"country_id"`
	Price        decimal.Decimal          `json:"price"`
	Translations []DestinationTranslation `json:"translations,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	DeletedAt    *time.Time               `json:"deleted_at,omitempty"`
}

// DestinationTranslation holds the localized content of a destination
type DestinationTranslation struct {
	ID            string   `json:"id"`
	DestinationID string   `json:"destination_id"`
	LanguageCode  string   `json:"language_code"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Images        []string `json:"images,omitempty"`
	DetailTour    []string `json:"detail_tour,omitempty"`
	Facilities    []string `json:"facilities,omitempty"`
}

// NewDestination creates a destination in stateID
func NewDestination(categoryID, stateID, countryID string, price decimal.Decimal, now time.Time) *Destination {
	return &Destination{
		ID:         uuid.New().String(),
		CategoryID: categoryID,
		StateID:    stateID,
		CountryID:  countryID,
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Name returns the translated name in lang, falling back to the first translation
func (d *Destination) Name(lang string) string {
	for _, t := range d.Translations {
		if t.LanguageCode == lang {
			return t.Name
		}
	}
	if len(d.Translations) > 0 {
		return d.Translations[0].Name
	}
	return ""
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its words with hyphens
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
