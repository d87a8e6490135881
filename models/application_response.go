package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApplicationResponse is the terminal outcome of one request. The unique
// index on serhub_request_id makes the first insert the only one.
type ApplicationResponse struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ApplicationID     uuid.UUID      `json:"application_id" gorm:"type:uuid;not null"`
	SerhubRequestID   uuid.UUID      `json:"serhub_request_id" gorm:"type:uuid;not null;uniqueIndex"`
	ServiceID         int32          `json:"service_id" gorm:"not null"`
	SystemID          int32          `json:"system_id" gorm:"not null"`
	IsCache           bool           `json:"is_cache" gorm:"not null;default:false"`
	Status            string         `json:"status" gorm:"size:64;not null"`
	StatusDescription datatypes.JSON `json:"status_description" gorm:"type:jsonb"`
	Response          datatypes.JSON `json:"response" gorm:"type:jsonb"`
	Target            datatypes.JSON `json:"target" gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"created_at"`
}

func NewApplicationResponse(resp *ServiceResponse) (*ApplicationResponse, error) {
	appID, reqID, err := parseIDs(resp.ApplicationID, resp.SerhubRequestID)
	if err != nil {
		return nil, err
	}
	description := resp.StatusDescription
	if description == nil {
		description = []string{}
	}
	descJSON, err := json.Marshal(description)
	if err != nil {
		return nil, fmt.Errorf("status_description: %w", err)
	}
	targetJSON, err := json.Marshal(resp.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	return &ApplicationResponse{
		ApplicationID:     appID,
		SerhubRequestID:   reqID,
		ServiceID:         resp.ServiceID,
		SystemID:          resp.SystemID,
		IsCache:           resp.IsCache,
		Status:            resp.Status,
		StatusDescription: datatypes.JSON(descJSON),
		Response:          datatypes.JSON(resp.Response),
		Target:            datatypes.JSON(targetJSON),
	}, nil
}
