package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FailRecord is a row of the append-only fail table.
type FailRecord struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	ApplicationID   uuid.UUID      `json:"application_id" gorm:"type:uuid;not null"`
	SerhubRequestID uuid.UUID      `json:"serhub_request_id" gorm:"type:uuid;not null;index"`
	ServiceID       int32          `json:"service_id" gorm:"not null"`
	SystemID        int32          `json:"system_id" gorm:"not null"`
	ErrorType       *string        `json:"error_type"`
	ErrorMessage    *string        `json:"error_message"`
	ErrorTraceback  *string        `json:"error_traceback"`
	Data            datatypes.JSON `json:"data" gorm:"type:jsonb"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (FailRecord) TableName() string { return "fail_table" }

func NewFailRecord(e *MappedError) (*FailRecord, error) {
	appID, reqID, err := parseIDs(e.ApplicationID, e.SerhubRequestID)
	if err != nil {
		return nil, err
	}
	return &FailRecord{
		ApplicationID:   appID,
		SerhubRequestID: reqID,
		ServiceID:       e.ServiceID,
		SystemID:        e.SystemID,
		ErrorType:       e.ErrorType,
		ErrorMessage:    e.ErrorMessage,
		ErrorTraceback:  e.ErrorTraceback,
		Data:            datatypes.JSON(e.Data),
	}, nil
}
