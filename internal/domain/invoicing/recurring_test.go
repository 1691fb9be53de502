package invoicing

import (
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testScheduleInput(start time.Time, freq Frequency) RecurringScheduleInput {
	return RecurringScheduleInput{
		Name:      "Monthly retainer",
		Frequency: freq,
		StartDate: start,
		Template: RecurringTemplate{
			Content:      testContent(),
			PaymentTerms: PaymentTermsNet15,
		},
	}
}

func TestCalculateNextRunDate(t *testing.T) {
	tests := []struct {
		name     string
		current  time.Time
		freq     Frequency
		interval int
		want     time.Time
	}{
		{"daily", date(2024, 1, 1), FrequencyDaily, 1, date(2024, 1, 2)},
		{"every 3 days", date(2024, 1, 30), FrequencyDaily, 3, date(2024, 2, 2)},
		{"weekly", date(2024, 1, 1), FrequencyWeekly, 1, date(2024, 1, 8)},
		{"biweekly", date(2024, 1, 1), FrequencyBiweekly, 1, date(2024, 1, 15)},
		{"monthly", date(2024, 1, 15), FrequencyMonthly, 1, date(2024, 2, 15)},
		{"monthly clamps to leap february", date(2024, 1, 31), FrequencyMonthly, 1, date(2024, 2, 29)},
		{"monthly clamps to february", date(2023, 1, 31), FrequencyMonthly, 1, date(2023, 2, 28)},
		{"monthly clamps to 30 day month", date(2024, 3, 31), FrequencyMonthly, 1, date(2024, 4, 30)},
		{"quarterly", date(2024, 11, 30), FrequencyQuarterly, 1, date(2025, 2, 28)},
		{"semi annual", date(2024, 8, 31), FrequencySemiAnnual, 1, date(2025, 2, 28)},
		{"annual from leap day", date(2024, 2, 29), FrequencyAnnual, 1, date(2025, 2, 28)},
		{"every 2 months", date(2024, 12, 15), FrequencyMonthly, 2, date(2025, 2, 15)},
		{"zero interval treated as one", date(2024, 1, 1), FrequencyWeekly, 0, date(2024, 1, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateNextRunDate(tt.current, tt.freq, tt.interval))
		})
	}
}

func TestCalculateNextRunDateAnchored(t *testing.T) {
	// Jan 31 -> Feb 29 -> Mar 31: the anchor survives the short month
	feb := CalculateNextRunDateAnchored(date(2024, 1, 31), FrequencyMonthly, 1, 31)
	assert.Equal(t, date(2024, 2, 29), feb)
	assert.Equal(t, date(2024, 3, 31), CalculateNextRunDateAnchored(feb, FrequencyMonthly, 1, 31))

	for _, freq := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAnnual} {
		cur := date(2024, 5, 31)
		assert.True(t, CalculateNextRunDateAnchored(cur, freq, 1, 31).After(cur), freq)
	}
}

func TestNewRecurringSchedule(t *testing.T) {
	t.Run("first run on start date", func(t *testing.T) {
		start := date(2024, 1, 31)
		s, err := NewRecurringSchedule(uuid.New(), testScheduleInput(start, FrequencyMonthly))
		require.NoError(t, err)
		assert.True(t, s.IsActive)
		assert.Equal(t, start, s.NextRunDate)
		assert.Equal(t, 31, s.AnchorDay)
		assert.Equal(t, 1, s.IntervalCount)
	})

	t.Run("validation", func(t *testing.T) {
		in := testScheduleInput(date(2024, 1, 1), Frequency("hourly"))
		_, err := NewRecurringSchedule(uuid.New(), in)
		assert.True(t, shared.IsValidation(err))

		in = testScheduleInput(date(2024, 1, 1), FrequencyMonthly)
		in.Template.Content.Items = nil
		_, err = NewRecurringSchedule(uuid.New(), in)
		assert.True(t, shared.IsValidation(err))

		in = testScheduleInput(date(2024, 1, 1), FrequencyMonthly)
		end := date(2023, 12, 1)
		in.EndDate = &end
		_, err = NewRecurringSchedule(uuid.New(), in)
		assert.True(t, shared.IsValidation(err))

		in = testScheduleInput(date(2024, 1, 1), FrequencyMonthly)
		zero := 0
		in.MaxOccurrences = &zero
		_, err = NewRecurringSchedule(uuid.New(), in)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestRecurringSchedule_Advance(t *testing.T) {
	t.Run("walks month ends", func(t *testing.T) {
		s, err := NewRecurringSchedule(uuid.New(), testScheduleInput(date(2024, 1, 31), FrequencyMonthly))
		require.NoError(t, err)

		want := []time.Time{date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30), date(2024, 5, 31)}
		for i, w := range want {
			now := s.NextRunDate
			input := s.BuildInvoiceInput(now)
			require.NotNil(t, input.RecurringRunDate)
			assert.Equal(t, now, *input.RecurringRunDate)

			s.Advance(uuid.New(), now)
			assert.Equal(t, w, s.NextRunDate)
			assert.Equal(t, i+1, s.OccurrencesGenerated)
		}
		assert.True(t, s.IsActive)
	})

	t.Run("deactivates at max occurrences", func(t *testing.T) {
		in := testScheduleInput(date(2024, 1, 1), FrequencyWeekly)
		limit := 2
		in.MaxOccurrences = &limit
		s, err := NewRecurringSchedule(uuid.New(), in)
		require.NoError(t, err)

		s.Advance(uuid.New(), date(2024, 1, 1))
		assert.True(t, s.IsActive)
		s.Advance(uuid.New(), date(2024, 1, 8))
		assert.False(t, s.IsActive)
		assert.False(t, s.IsDue(date(2024, 2, 1)))

		last := s.GetDomainEvents()[len(s.GetDomainEvents())-1]
		assert.Equal(t, EventTypeRecurringScheduleDeactivated, last.EventType())
	})

	t.Run("deactivates when next run passes end date", func(t *testing.T) {
		in := testScheduleInput(date(2024, 1, 1), FrequencyMonthly)
		end := date(2024, 1, 20)
		in.EndDate = &end
		s, err := NewRecurringSchedule(uuid.New(), in)
		require.NoError(t, err)

		s.Advance(uuid.New(), date(2024, 1, 1))
		assert.False(t, s.IsActive)
		assert.Equal(t, 1, s.OccurrencesGenerated)
	})
}

func TestRecurringSchedule_IsDue(t *testing.T) {
	s, err := NewRecurringSchedule(uuid.New(), testScheduleInput(date(2024, 3, 1), FrequencyMonthly))
	require.NoError(t, err)

	assert.False(t, s.IsDue(date(2024, 2, 29)))
	assert.True(t, s.IsDue(date(2024, 3, 1)))
	assert.True(t, s.IsDue(date(2024, 3, 5)))

	s.Deactivate(date(2024, 3, 1), "paused")
	assert.False(t, s.IsDue(date(2024, 3, 5)))
}

func TestRecurringSchedule_Resume(t *testing.T) {
	s, err := NewRecurringSchedule(uuid.New(), testScheduleInput(date(2024, 3, 1), FrequencyMonthly))
	require.NoError(t, err)

	assert.True(t, shared.IsInvalidState(s.Resume(date(2024, 3, 1))))

	s.Deactivate(date(2024, 3, 1), "paused")
	require.NoError(t, s.Resume(date(2024, 3, 2)))
	assert.True(t, s.IsActive)

	end := date(2024, 3, 10)
	s.EndDate = &end
	s.Deactivate(date(2024, 3, 2), "paused")
	assert.True(t, shared.IsInvalidState(s.Resume(date(2024, 4, 1))))
}

func TestRecurringSchedule_Update(t *testing.T) {
	s, err := NewRecurringSchedule(uuid.New(), testScheduleInput(date(2024, 3, 1), FrequencyMonthly))
	require.NoError(t, err)

	in := testScheduleInput(date(2024, 3, 15), FrequencyWeekly)
	require.NoError(t, s.Update(in, date(2024, 2, 1)))
	assert.Equal(t, date(2024, 3, 15), s.NextRunDate)
	assert.Equal(t, 15, s.AnchorDay)

	s.Advance(uuid.New(), date(2024, 3, 15))
	in.StartDate = date(2024, 5, 1)
	require.NoError(t, s.Update(in, date(2024, 3, 16)))
	assert.Equal(t, date(2024, 3, 22), s.NextRunDate, "start date is fixed after the first run")
}
