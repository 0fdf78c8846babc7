package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// AdmitRequest seats the caller at a table
type AdmitRequest struct {
	TableID  uuid.UUID `json:"table_id"`
	CodeType string    `json:"code_type"`
	SoftCode string    `json:"soft_code"`
}

func (r AdmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TableID, validation.Required, validation.By(nonNilUUID)),
		validation.Field(&r.CodeType, validation.Required, validation.In(CodeTypeHard, CodeTypeSoft)),
		validation.Field(&r.SoftCode, validation.Required.When(r.CodeType == CodeTypeSoft)),
	)
}

// SetLockStateRequest opens or locks a table (staff)
type SetLockStateRequest struct {
	State string `json:"state"`
}

func (r SetLockStateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.State, validation.Required, validation.In(LockStateOpen, LockStateLocked)),
	)
}

// CreateTableRequest creates a new table (admin)
type CreateTableRequest struct {
	TableNumber int `json:"table_number"`
}

func (r CreateTableRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TableNumber, validation.Required, validation.Min(1)),
	)
}

// UpdateTableRequest renumbers a table (admin)
type UpdateTableRequest struct {
	TableNumber int `json:"table_number"`
}

func (r UpdateTableRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TableNumber, validation.Required, validation.Min(1)),
	)
}

// SoftCodeResponse carries a freshly minted session code
type SoftCodeResponse struct {
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

func nonNilUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_required", "must be a valid id")
	}
	return nil
}
