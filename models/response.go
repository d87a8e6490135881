package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusValidationError = "RequestValidationError"
	StatusPublishError    = "RMQPublishError"
	StatusServiceTimeout  = "ServiceTimeout"
)

// ServiceResponse is the answer relayed to the caller, produced either by a
// service or by the hub itself.
type ServiceResponse struct {
	ApplicationID       string          `json:"application_id"`
	SerhubRequestID     string          `json:"serhub_request_id"`
	ServiceID           int32           `json:"service_id"`
	SystemID            int32           `json:"system_id"`
	IsCache             bool            `json:"is_cache"`
	Status              string          `json:"status"`
	StatusDescription   []string        `json:"status_description"`
	ResponseCreatedTime string          `json:"response_created_time"`
	Response            json.RawMessage `json:"response,omitempty"`
	Target              ReplyTarget     `json:"target"`
}

func createdAt(now time.Time) string {
	return now.Format(time.RFC3339Nano)
}

// NewServiceResponse builds a hub-generated response for req, created at now.
func NewServiceResponse(req *Request, status string, description []string, now time.Time) *ServiceResponse {
	return &ServiceResponse{
		ApplicationID:       req.Application.ApplicationID,
		SerhubRequestID:     req.ServiceInfo.SerhubRequestID,
		ServiceID:           req.Application.ServiceID,
		SystemID:            req.Application.SystemID,
		IsCache:             false,
		Status:              status,
		StatusDescription:   description,
		ResponseCreatedTime: createdAt(now),
		Target:              req.Target,
	}
}

// NewRejection answers a request that never got a correlation id; a fresh
// one is minted so the caller can still tell replies apart.
func NewRejection(app Application, target ReplyTarget, description []string, now time.Time) *ServiceResponse {
	return &ServiceResponse{
		ApplicationID:       app.ApplicationID,
		SerhubRequestID:     uuid.NewString(),
		ServiceID:           app.ServiceID,
		SystemID:            app.SystemID,
		Status:              StatusValidationError,
		StatusDescription:   description,
		ResponseCreatedTime: createdAt(now),
		Target:              target,
	}
}

// CheckIDs reports a response whose ids are not UUIDs.
func (r *ServiceResponse) CheckIDs() error {
	_, _, err := parseIDs(r.ApplicationID, r.SerhubRequestID)
	return err
}

// MappedError is an append-only failure record.
type MappedError struct {
	ApplicationID   string          `json:"application_id"`
	SerhubRequestID string          `json:"serhub_request_id"`
	ServiceID       int32           `json:"service_id"`
	SystemID        int32           `json:"system_id"`
	ErrorType       *string         `json:"error_type,omitempty"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	ErrorTraceback  *string         `json:"error_traceback,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
}

func NewMappedError(req *Request, errorType, message string) *MappedError {
	return &MappedError{
		ApplicationID:   req.Application.ApplicationID,
		SerhubRequestID: req.ServiceInfo.SerhubRequestID,
		ServiceID:       req.Application.ServiceID,
		SystemID:        req.Application.SystemID,
		ErrorType:       &errorType,
		ErrorMessage:    &message,
	}
}

// CheckIDs reports a failure record whose ids are not UUIDs.
func (e *MappedError) CheckIDs() error {
	_, _, err := parseIDs(e.ApplicationID, e.SerhubRequestID)
	return err
}
