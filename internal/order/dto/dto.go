package dto

import "github.com/fekuna/omnipos-inventory-service/internal/model"

type OrderFilters struct {
	BranchID *int64
	Status   model.OrderStatus
	// Search matches order numbers case-insensitively.
	Search   string
	Page     int
	PageSize int
}
