package broker

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type passiveStub struct {
	declareErr error
	closeErr   error
	closed     int
}

func (p *passiveStub) ExchangeDeclarePassive(string, string, bool, bool, bool, bool, amqp.Table) error {
	return p.declareErr
}

func (p *passiveStub) Close() error {
	p.closed++
	return p.closeErr
}

func TestCheckExchangeClosesChannel(t *testing.T) {
	tests := []struct {
		name    string
		ch      *passiveStub
		wantErr error
	}{
		{name: "exists", ch: &passiveStub{}},
		{
			name:    "not found",
			ch:      &passiveStub{declareErr: &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND"}, closeErr: amqp.ErrClosed},
			wantErr: ErrExchangeNotFound,
		},
		{
			name: "other broker error",
			ch:   &passiveStub{declareErr: &amqp.Error{Code: amqp.AccessRefused, Reason: "ACCESS_REFUSED"}},
		},
		{
			name: "close fails",
			ch:   &passiveStub{declareErr: errors.New("frame error"), closeErr: errors.New("broken pipe")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExchange(tt.ch, "billing", zaptest.NewLogger(t))
			switch {
			case tt.ch.declareErr == nil:
				require.NoError(t, err)
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrExchangeNotFound)
			}
			assert.Equal(t, 1, tt.ch.closed)
		})
	}
}
