package models

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"servicehub/utils"

	"github.com/google/uuid"
)

// InboundRequest is the loosely typed client request as it arrives on the
// request queue. The application block is decoded separately so that a
// malformed one can still be answered at the caller's reply target.
type InboundRequest struct {
	Application json.RawMessage `json:"application"`
	Person      json.RawMessage `json:"person"`
	ServiceInfo json.RawMessage `json:"service_info,omitempty"`
	Target      ReplyTarget     `json:"target"`
}

var (
	errNoApplication = errors.New("application: field is required")
	errNoPerson      = errors.New("person: field is required")
)

// DecodeApplication decodes the application block. On a type mismatch the
// returned value still holds every field that did decode.
func (in *InboundRequest) DecodeApplication() (Application, error) {
	var app Application
	if len(in.Application) == 0 || string(in.Application) == "null" {
		return app, errNoApplication
	}
	if err := json.Unmarshal(in.Application, &app); err != nil {
		return app, err
	}
	if len(in.Person) == 0 {
		return app, errNoPerson
	}
	return app, nil
}

// ServiceInfo is the dispatch metadata serialized into every dispatched
// request and its delayed copy.
type ServiceInfo struct {
	TimestampReceived float64  `json:"timestamp_received"`
	ServiceTimeout    int32    `json:"service_timeout" validate:"gte=0"`
	SerhubRequestID   string   `json:"serhub_request_id" validate:"required,valid_uuid"`
	CacheFields       []string `json:"cache_fields"`
	CacheExpiration   *string  `json:"cache_expiration,omitempty"`
	Exchange          string   `json:"exchange" validate:"not_blank"`
	RoutingKey        string   `json:"routing_key" validate:"not_blank"`
}

// RemainingMillis is how long the broker may still hold the service-bound
// message: receipt time plus timeout minus now, never negative.
func (s ServiceInfo) RemainingMillis(now time.Time) int64 {
	deadline := s.TimestampReceived + float64(s.ServiceTimeout)
	nowSec := float64(now.UnixMilli()) / 1000
	ms := int64(math.Floor((deadline - nowSec) * 1000))
	if ms < 0 {
		return 0
	}
	return ms
}

// DelayMillis is the x-delay for the timeout copy.
func (s ServiceInfo) DelayMillis() int64 {
	return int64(s.ServiceTimeout) * 1000
}

// DispatchInfo is the per-request enrichment of a registry snapshot. It is
// minted once at ingress and never changed.
type DispatchInfo struct {
	Service       Service
	CorrelationID string
	ReceivedAt    time.Time
	CacheFields   []string
}

// NewDispatchInfo mints a fresh correlation id for svc.
func NewDispatchInfo(svc Service, now time.Time) DispatchInfo {
	return DispatchInfo{
		Service:       svc,
		CorrelationID: uuid.NewString(),
		ReceivedAt:    now,
		CacheFields:   utils.SplitCSV(svc.CacheFields),
	}
}

func (d DispatchInfo) ServiceInfo() ServiceInfo {
	return ServiceInfo{
		TimestampReceived: float64(d.ReceivedAt.UnixMilli()) / 1000,
		ServiceTimeout:    d.Service.Timeout,
		SerhubRequestID:   d.CorrelationID,
		CacheFields:       d.CacheFields,
		CacheExpiration:   d.Service.CacheExpiration,
		Exchange:          d.Service.Exchange,
		RoutingKey:        d.Service.RoutingKey,
	}
}

// Request is the canonical in-flight unit. The same value is published to
// the service and to the delayed timeout exchange.
type Request struct {
	Application Application     `json:"application"`
	Person      json.RawMessage `json:"person"`
	ServiceInfo ServiceInfo     `json:"service_info"`
	Target      ReplyTarget     `json:"target"`
}

func NewRequest(app Application, person json.RawMessage, info ServiceInfo, target ReplyTarget) *Request {
	return &Request{
		Application: app,
		Person:      person,
		ServiceInfo: info,
		Target:      target,
	}
}

func (r *Request) CorrelationID() string {
	return r.ServiceInfo.SerhubRequestID
}

// CheckIDs reports a request whose ids are not UUIDs.
func (r *Request) CheckIDs() error {
	_, _, err := parseIDs(r.Application.ApplicationID, r.ServiceInfo.SerhubRequestID)
	return err
}
