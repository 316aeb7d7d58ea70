package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status            *enums.OrderStatus
	PaymentStatus     *enums.PaymentStatus
	FulfillmentStatus *enums.FulfillmentStatus
	CustomerID        *uuid.UUID
	Search            string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// OrderList is a page of orders.
type OrderList struct {
	Orders     []models.Order  `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}
