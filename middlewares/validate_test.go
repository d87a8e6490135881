package middlewares

import (
	"errors"
	"strings"
	"testing"

	"servicehub/config"
	"servicehub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testValidator() *Validator {
	return NewValidator(&config.Config{
		AvailableServices: []int32{1, 7, 42},
		AvailableSystems:  []int32{1, 2},
	})
}

func TestApplicationValid(t *testing.T) {
	v := testValidator()
	app := models.Application{ApplicationID: uuid.NewString(), ServiceID: 7, SystemID: 1}
	require.NoError(t, v.ValidateStruct(app))
}

func TestApplicationRejectsNonUUID(t *testing.T) {
	v := testValidator()
	app := models.Application{ApplicationID: "Foo", ServiceID: 7, SystemID: 1}

	err := v.ValidateStruct(app)
	require.Error(t, err)
	require.Equal(t, []string{"application_id: must be a valid UUID"}, Messages(err))
}

func TestServiceAllowList(t *testing.T) {
	v := testValidator()
	allowed := map[int32]bool{1: true, 7: true, 42: true}

	for sid := int32(-5); sid <= 100; sid++ {
		app := models.Application{ApplicationID: uuid.NewString(), ServiceID: sid, SystemID: 1}
		err := v.ValidateStruct(app)
		if allowed[sid] {
			require.NoError(t, err, "service %d", sid)
			continue
		}
		require.Error(t, err, "service %d", sid)
		require.Equal(t, []string{"service_id: service id is not available"}, Messages(err))
	}
}

func TestSystemAllowList(t *testing.T) {
	v := testValidator()
	app := models.Application{ApplicationID: uuid.NewString(), ServiceID: 1, SystemID: 999}

	err := v.ValidateStruct(app)
	require.Equal(t, []string{"system_id: system id is not available"}, Messages(err))
}

func TestServiceInfoNotBlank(t *testing.T) {
	v := testValidator()
	info := models.ServiceInfo{
		SerhubRequestID: uuid.NewString(),
		ServiceTimeout:  5,
		Exchange:        "billing",
		RoutingKey:      "   ",
	}

	err := v.ValidateStruct(info)
	require.Equal(t, []string{"routing_key: value not given"}, Messages(err))

	info.RoutingKey = "billing.create"
	require.NoError(t, v.ValidateStruct(info))
}

func TestMessagesPlainError(t *testing.T) {
	require.Nil(t, Messages(nil))
	require.Equal(t, []string{"boom"}, Messages(errors.New("boom")))
}

func TestApplicationAcceptsUppercaseUUID(t *testing.T) {
	v := testValidator()
	app := models.Application{ApplicationID: strings.ToUpper(uuid.NewString()), ServiceID: 7, SystemID: 1}
	require.NoError(t, v.ValidateStruct(app))

	info := models.ServiceInfo{
		SerhubRequestID: strings.ToUpper(uuid.NewString()),
		Exchange:        "billing",
		RoutingKey:      "billing.create",
	}
	require.NoError(t, v.ValidateStruct(info))
}
