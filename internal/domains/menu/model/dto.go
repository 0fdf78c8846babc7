package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// CreateMenuItemRequest creates a new dish (admin)
type CreateMenuItemRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	Category    string          `json:"category"`
	IsAvailable *bool           `json:"is_available"`
}

func (r CreateMenuItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Price, validation.By(positiveDecimal)),
	)
}

// UpdateMenuItemRequest edits a dish (admin), nil fields are unchanged
type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	Category    *string          `json:"category"`
	IsAvailable *bool            `json:"is_available"`
}

func (r UpdateMenuItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Category, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Price, validation.By(optionalPositiveDecimal)),
	)
}

func positiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_invalid", "must be a decimal number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return validation.NewError("validation_positive", "must be greater than zero")
	}
	return nil
}

func optionalPositiveDecimal(value interface{}) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil {
		return nil
	}
	return positiveDecimal(*d)
}
