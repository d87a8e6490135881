package models

// Application identifies the caller and the target service of a request.
type Application struct {
	ApplicationID string `json:"application_id" validate:"required,valid_uuid"`
	ServiceID     int32  `json:"service_id" validate:"allowed_service"`
	SystemID      int32  `json:"system_id" validate:"allowed_system"`
	MultiRequest  bool   `json:"multi_request"`
}

// ReplyTarget is where the caller expects the final answer. It is carried
// through every hop untouched.
type ReplyTarget struct {
	VHost      string  `json:"vhost"`
	Exchange   string  `json:"exchange"`
	RoutingKey string  `json:"routing_key"`
	Queue      *string `json:"queue,omitempty"`
}
