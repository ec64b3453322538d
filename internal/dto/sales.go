package dto

import (
	"github.com/bentansusanto/travel-api/internal/domain"
)

// SalesReportResponse is a period report
type SalesReportResponse struct {
	Period  string               `json:"period"`
	Buckets []domain.SalesBucket `json:"buckets"`
}
