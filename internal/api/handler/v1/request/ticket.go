package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PurchaseTicketsRequest struct {
	OwnerID  uint `json:"owner_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// Validate checks the structural shape of the request. The quantity range is
// deployment configuration and enforced by the purchase service.
func (req *PurchaseTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.OwnerID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}
