package dto

// AddDestinationRequest represents request to add a destination to a booking
type AddDestinationRequest struct {
	DestinationID string `json:"destination_id" binding:"required"`
	// VisitDate is a calendar date, YYYY-MM-DD
	VisitDate string `json:"visit_date" binding:"required"`
}

// UpdateBookingStatusRequest represents request to change a booking status
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
