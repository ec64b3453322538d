package dto

import (
	"github.com/bentansusanto/travel-api/internal/domain"
)

// TouristRequest carries one traveller's details
type TouristRequest struct {
	Name        string `json:"name" binding:"required"`
	Gender      string `json:"gender" binding:"required"`
	Phone       string `json:"phone,omitempty"`
	Nationality string `json:"nationality" binding:"required"`
	PassportNo  string `json:"passport_no" binding:"required"`
}

// Fields converts the request to domain fields
func (r TouristRequest) Fields() domain.TouristFields {
	return domain.TouristFields{
		Name:        r.Name,
		Gender:      domain.Gender(r.Gender),
		Phone:       r.Phone,
		Nationality: r.Nationality,
		PassportNo:  r.PassportNo,
	}
}

// CreateTouristRequest represents request to add one tourist
type CreateTouristRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	TouristRequest
}

// CreateTouristsRequest represents request to add tourists in one batch
type CreateTouristsRequest struct {
	BookingID string           `json:"booking_id" binding:"required"`
	Tourists  []TouristRequest `json:"tourists" binding:"required,min=1,dive"`
}
