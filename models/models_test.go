package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testRequest(t *testing.T) *Request {
	t.Helper()
	queue := "client.q"
	expiration := "1d"
	return &Request{
		Application: Application{
			ApplicationID: uuid.NewString(),
			ServiceID:     7,
			SystemID:      1,
			MultiRequest:  true,
		},
		Person: json.RawMessage(`{"name":"Ann","inn":"7700"}`),
		ServiceInfo: ServiceInfo{
			TimestampReceived: 1760000000.25,
			ServiceTimeout:    5,
			SerhubRequestID:   uuid.NewString(),
			CacheFields:       []string{"name", "inn"},
			CacheExpiration:   &expiration,
			Exchange:          "billing",
			RoutingKey:        "billing.create",
		},
		Target: ReplyTarget{VHost: "/", Exchange: "client.ex", RoutingKey: "client.rk", Queue: &queue},
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := testRequest(t)

	payload, err := Encode(req)
	require.NoError(t, err)

	decoded, err := Decode[Request](payload)
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestDecodeErrorIsDecodeKind(t *testing.T) {
	_, err := Decode[ServiceResponse]([]byte(`{"status": 12`))
	require.Error(t, err)
	require.True(t, IsKind(err, KindDecode))
	require.Contains(t, err.Error(), "ServiceResponse")
}

func TestServiceResponseDefaults(t *testing.T) {
	resp, err := Decode[ServiceResponse]([]byte(`{"status":"OK"}`))
	require.NoError(t, err)
	require.Equal(t, "OK", resp.Status)
	require.False(t, resp.IsCache)
	require.Nil(t, resp.Response)
}

func TestDecodeApplication(t *testing.T) {
	in, err := Decode[InboundRequest]([]byte(`{"application":{"application_id":"abc","service_id":"7","system_id":1},"person":{},"target":{"vhost":"/","exchange":"e","routing_key":"k"}}`))
	require.NoError(t, err)

	app, err := in.DecodeApplication()
	require.Error(t, err)
	require.Equal(t, "abc", app.ApplicationID)
	require.Equal(t, int32(1), app.SystemID)
	require.Equal(t, "k", in.Target.RoutingKey)

	in, err = Decode[InboundRequest]([]byte(`{"application":{"application_id":"abc","service_id":7,"system_id":1},"target":{}}`))
	require.NoError(t, err)
	_, err = in.DecodeApplication()
	require.ErrorIs(t, err, errNoPerson)

	in, err = Decode[InboundRequest]([]byte(`{"person":{},"target":{}}`))
	require.NoError(t, err)
	_, err = in.DecodeApplication()
	require.ErrorIs(t, err, errNoApplication)
}

func TestDispatchInfo(t *testing.T) {
	expiration := "1h"
	svc := Service{
		ID:              7,
		Name:            "billing",
		Exchange:        "billing",
		Queue:           "billing.q",
		RoutingKey:      "billing.create",
		CacheFields:     " name, ,inn ,",
		CacheExpiration: &expiration,
		Timeout:         5,
	}
	now := time.UnixMilli(1760000000500)

	first := NewDispatchInfo(svc, now)
	second := NewDispatchInfo(svc, now)
	require.NotEqual(t, first.CorrelationID, second.CorrelationID)

	info := first.ServiceInfo()
	require.Equal(t, []string{"name", "inn"}, info.CacheFields)
	require.Equal(t, 1760000000.5, info.TimestampReceived)
	require.Equal(t, int32(5), info.ServiceTimeout)
	require.Equal(t, "billing", info.Exchange)
	require.Equal(t, "billing.create", info.RoutingKey)
	require.Equal(t, &expiration, info.CacheExpiration)
	_, err := uuid.Parse(info.SerhubRequestID)
	require.NoError(t, err)
}

func TestRemainingMillis(t *testing.T) {
	received := time.UnixMilli(1760000000000)
	info := ServiceInfo{TimestampReceived: float64(received.UnixMilli()) / 1000, ServiceTimeout: 5}

	require.Equal(t, int64(5000), info.RemainingMillis(received))
	require.Equal(t, int64(3500), info.RemainingMillis(received.Add(1500*time.Millisecond)))
	require.Equal(t, int64(0), info.RemainingMillis(received.Add(5*time.Second)))
	require.Equal(t, int64(0), info.RemainingMillis(received.Add(time.Minute)))
	require.Equal(t, int64(5000), info.DelayMillis())
}

func TestHubResponses(t *testing.T) {
	req := testRequest(t)

	resp := NewServiceResponse(req, StatusServiceTimeout, []string{"service_timeout"}, time.Now())
	require.Equal(t, req.CorrelationID(), resp.SerhubRequestID)
	require.Equal(t, req.Target, resp.Target)
	require.False(t, resp.IsCache)

	rej := NewRejection(req.Application, req.Target, []string{"bad"}, time.Now())
	require.Equal(t, StatusValidationError, rej.Status)
	require.NotEqual(t, req.CorrelationID(), rej.SerhubRequestID)

	me := NewMappedError(req, "Service", "ServiceTimeout")
	require.Equal(t, "Service", *me.ErrorType)
	require.Equal(t, "ServiceTimeout", *me.ErrorMessage)
}

func TestRows(t *testing.T) {
	req := testRequest(t)

	row, err := NewApplicationRequest(req)
	require.NoError(t, err)
	require.Equal(t, req.CorrelationID(), row.SerhubRequestID.String())
	require.JSONEq(t, mustJSON(t, req), string(row.ApplicationData))

	resp := NewServiceResponse(req, StatusPublishError, nil, time.Now())
	respRow, err := NewApplicationResponse(resp)
	require.NoError(t, err)
	require.Equal(t, "[]", string(respRow.StatusDescription))
	require.Nil(t, []byte(respRow.Response))

	resp.SerhubRequestID = "not-a-uuid"
	_, err = NewApplicationResponse(resp)
	require.ErrorContains(t, err, "serhub_request_id")

	fail, err := NewFailRecord(NewMappedError(req, "Service", "ServiceTimeout"))
	require.NoError(t, err)
	require.Equal(t, "fail_table", fail.TableName())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
