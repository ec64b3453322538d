package dto

import (
	"github.com/shopspring/decimal"
)

// CreateCountryRequest represents request to create a country
type CreateCountryRequest struct {
	ISO       string `json:"iso" binding:"required,len=2"`
	Name      string `json:"name" binding:"required"`
	Flag      string `json:"flag,omitempty"`
	PhoneCode string `json:"phone_code,omitempty"`
	Currency  string `json:"currency" binding:"required,len=3"`
}

// CreateStateRequest represents request to create a state
type CreateStateRequest struct {
	CountryID string   `json:"country_id" yaml:"country_id"`
	Name      string   `json:"name" yaml:"name"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude"`
}

// CreateCategoryRequest represents request to create a category
type CreateCategoryRequest struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// TranslationRequest is the localized content of a destination
type TranslationRequest struct {
	LanguageCode string   `json:"language_code" yaml:"language_code" binding:"required"`
	Name         string   `json:"name" yaml:"name" binding:"required"`
	// Slug defaults to the slugified name
	Slug        string   `json:"slug,omitempty" yaml:"slug"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Thumbnail   string   `json:"thumbnail,omitempty" yaml:"thumbnail"`
	Images      []string `json:"images,omitempty" yaml:"images"`
	DetailTour  []string `json:"detail_tour,omitempty" yaml:"detail_tour"`
	Facilities  []string `json:"facilities,omitempty" yaml:"facilities"`
}

// CreateDestinationRequest represents request to create a destination
type CreateDestinationRequest struct {
	CategoryID   string               `json:"category_id" yaml:"category_id" binding:"required"`
	StateID      string               `json:"state_id" yaml:"state_id" binding:"required"`
	Price        decimal.Decimal      `json:"price" yaml:"-"`
	Translations []TranslationRequest `json:"translations" yaml:"translations" binding:"required,min=1,dive"`
}

// UpdateDestinationRequest represents request to update a destination.
// Empty fields are left unchanged.
type UpdateDestinationRequest struct {
	CategoryID string           `json:"category_id,omitempty"`
	StateID    string           `json:"state_id,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

// ListDestinationsQuery holds destination list filters
type ListDestinationsQuery struct {
	CountryID  string `form:"country_id"`
	CategoryID string `form:"category_id"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}
