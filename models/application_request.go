package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApplicationRequest is the audit row written for every dispatched request.
type ApplicationRequest struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	ApplicationID   uuid.UUID      `json:"application_id" gorm:"type:uuid;not null"`
	SerhubRequestID uuid.UUID      `json:"serhub_request_id" gorm:"type:uuid;not null;index"`
	ServiceID       int32          `json:"service_id" gorm:"not null"`
	SystemID        int32          `json:"system_id" gorm:"not null"`
	ApplicationData datatypes.JSON `json:"application_data" gorm:"type:jsonb"`
	CreatedAt       time.Time      `json:"created_at"`
}

func NewApplicationRequest(req *Request) (*ApplicationRequest, error) {
	appID, reqID, err := parseIDs(req.Application.ApplicationID, req.ServiceInfo.SerhubRequestID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	return &ApplicationRequest{
		ApplicationID:   appID,
		SerhubRequestID: reqID,
		ServiceID:       req.Application.ServiceID,
		SystemID:        req.Application.SystemID,
		ApplicationData: datatypes.JSON(data),
	}, nil
}

func parseIDs(applicationID, serhubRequestID string) (uuid.UUID, uuid.UUID, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("application_id: %w", err)
	}
	reqID, err := uuid.Parse(serhubRequestID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("serhub_request_id: %w", err)
	}
	return appID, reqID, nil
}
