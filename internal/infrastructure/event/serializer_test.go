package event

import (
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer(t *testing.T) {
	t.Run("round trips registered events", func(t *testing.T) {
		s := NewEventSerializer()
		s.Register("TestEvent", &testEvent{})
		original := newTestEvent("TestEvent")

		data, err := s.Serialize(original)
		require.NoError(t, err)

		decoded, err := s.Deserialize("TestEvent", data)
		require.NoError(t, err)
		got, ok := decoded.(*testEvent)
		require.True(t, ok)
		assert.Equal(t, original.EventID(), got.EventID())
		assert.Equal(t, original.AggregateID(), got.AggregateID())
		assert.Equal(t, "test data", got.Data)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		_, err := NewEventSerializer().Deserialize("Nope", []byte(`{}`))
		assert.ErrorContains(t, err, "unknown event type: Nope")
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		s := NewEventSerializer()
		s.Register("TestEvent", &testEvent{})
		_, err := s.Deserialize("TestEvent", []byte(`{"data":`))
		assert.ErrorContains(t, err, "failed to unmarshal")
	})

	t.Run("lists registered types sorted", func(t *testing.T) {
		s := NewEventSerializer()
		s.Register("B", &testEvent{})
		s.Register("A", &testEvent{})
		assert.Equal(t, []string{"A", "B"}, s.RegisteredTypes())
	})
}

func TestRegisterInvoicingEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterInvoicingEvents(s)

	for _, eventType := range []string{
		invoicing.EventTypeQuoteCreated,
		invoicing.EventTypeQuoteConverted,
		invoicing.EventTypeInvoiceOverdue,
		invoicing.EventTypeInvoicePaymentRecorded,
		invoicing.EventTypeRecurringScheduleDeactivated,
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}

	original := &invoicing.PaymentEvent{}
	original.ID = uuid.New()
	original.Type = invoicing.EventTypeInvoicePaymentRecorded
	original.Amount = decimal.RequireFromString("125.50")

	data, err := s.Serialize(original)
	require.NoError(t, err)
	decoded, err := s.Deserialize(invoicing.EventTypeInvoicePaymentRecorded, data)
	require.NoError(t, err)

	payment, ok := decoded.(*invoicing.PaymentEvent)
	require.True(t, ok)
	assert.Equal(t, original.ID, payment.EventID())
	assert.True(t, payment.Amount.Equal(original.Amount))
}
