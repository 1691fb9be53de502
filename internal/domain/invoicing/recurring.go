package invoicing

import (
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// Frequency is the cadence of a recurring schedule
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyBiweekly   Frequency = "biweekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiAnnual Frequency = "semi_annual"
	FrequencyAnnual     Frequency = "annual"
)

// IsValid checks if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual:
		return true
	}
	return false
}

// step returns the day and month increments for one interval of the frequency
func (f Frequency) step() (days, months int) {
	switch f {
	case FrequencyDaily:
		return 1, 0
	case FrequencyWeekly:
		return 7, 0
	case FrequencyBiweekly:
		return 14, 0
	case FrequencyMonthly:
		return 0, 1
	case FrequencyQuarterly:
		return 0, 3
	case FrequencySemiAnnual:
		return 0, 6
	case FrequencyAnnual:
		return 0, 12
	}
	return 0, 0
}

// CalculateNextRunDate advances current by intervalCount periods of frequency.
// Day-based frequencies add days. Month-based frequencies use calendar months anchored on current's day,
// clamped to the last day of a shorter month (Jan 31 + 1 month = Feb 28/29).
func CalculateNextRunDate(current time.Time, frequency Frequency, intervalCount int) time.Time {
	return CalculateNextRunDateAnchored(current, frequency, intervalCount, current.Day())
}

// CalculateNextRunDateAnchored is CalculateNextRunDate with an explicit day-of-month anchor,
// so a schedule that started on the 31st returns to the 31st after passing through a short month.
func CalculateNextRunDateAnchored(current time.Time, frequency Frequency, intervalCount int, anchorDay int) time.Time {
	if intervalCount < 1 {
		intervalCount = 1
	}
	days, months := frequency.step()
	if months == 0 {
		return current.AddDate(0, 0, days*intervalCount)
	}
	return addMonthsClamped(current, months*intervalCount, anchorDay)
}

// addMonthsClamped moves t forward by n calendar months, landing on anchorDay or the month's last day
func addMonthsClamped(t time.Time, n int, anchorDay int) time.Time {
	if anchorDay < 1 {
		anchorDay = t.Day()
	}
	// Normalize to the first of the month so time.AddDate does not overflow into the next month.
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := anchorDay
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RecurringTemplate is the payload stamped onto every invoice a schedule generates
type RecurringTemplate struct {
	Content      DocumentContent `json:"content"`
	PaymentTerms PaymentTerms    `json:"payment_terms"`
	AutoSend     bool            `json:"auto_send"`
}

// Validate checks that the template can produce an invoice
func (t RecurringTemplate) Validate() error {
	if len(t.Content.Items) == 0 {
		return shared.NewValidationError("recurring template must contain at least one line item")
	}
	if t.PaymentTerms != "" && !t.PaymentTerms.IsValid() {
		return shared.NewValidationError("invalid payment terms: " + string(t.PaymentTerms))
	}
	_, _, err := t.Content.build()
	return err
}

// RecurringSchedule is a template plus cadence that materializes invoices
type RecurringSchedule struct {
	shared.OwnedAggregateRoot
	Name                 string
	Frequency            Frequency
	IntervalCount        int
	StartDate            time.Time
	NextRunDate          time.Time
	AnchorDay            int
	EndDate              *time.Time
	MaxOccurrences       *int
	OccurrencesGenerated int
	LastRunDate          *time.Time
	LastInvoiceID        *uuid.UUID
	IsActive             bool
	Template             RecurringTemplate
}

// RecurringScheduleInput carries the fields needed to create or update a schedule
type RecurringScheduleInput struct {
	Name           string
	Frequency      Frequency
	IntervalCount  int
	StartDate      time.Time
	EndDate        *time.Time
	MaxOccurrences *int
	Template       RecurringTemplate
}

func (in RecurringScheduleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.NewValidationError("schedule name cannot be empty")
	}
	if !in.Frequency.IsValid() {
		return shared.NewValidationError("invalid frequency: " + string(in.Frequency))
	}
	if in.IntervalCount < 0 {
		return shared.NewValidationError("interval count cannot be negative")
	}
	if in.StartDate.IsZero() {
		return shared.NewValidationError("start date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return shared.NewValidationError("end date cannot be before start date")
	}
	if in.MaxOccurrences != nil && *in.MaxOccurrences < 1 {
		return shared.NewValidationError("max occurrences must be at least 1")
	}
	return in.Template.Validate()
}

// NewRecurringSchedule creates an active schedule whose first run is on the start date
func NewRecurringSchedule(userID uuid.UUID, input RecurringScheduleInput) (*RecurringSchedule, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("owner user ID cannot be empty")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	interval := input.IntervalCount
	if interval == 0 {
		interval = 1
	}

	s := &RecurringSchedule{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Name:               strings.TrimSpace(input.Name),
		Frequency:          input.Frequency,
		IntervalCount:      interval,
		StartDate:          input.StartDate,
		NextRunDate:        input.StartDate,
		AnchorDay:          input.StartDate.Day(),
		EndDate:            input.EndDate,
		MaxOccurrences:     input.MaxOccurrences,
		IsActive:           true,
		Template:           input.Template,
	}
	return s, nil
}

// Update replaces the cadence and template. Changing the start date of a schedule
// that has not fired yet moves its first run.
func (s *RecurringSchedule) Update(input RecurringScheduleInput, now time.Time) error {
	if err := input.validate(); err != nil {
		return err
	}
	interval := input.IntervalCount
	if interval == 0 {
		interval = 1
	}
	s.Name = strings.TrimSpace(input.Name)
	s.Frequency = input.Frequency
	s.IntervalCount = interval
	s.EndDate = input.EndDate
	s.MaxOccurrences = input.MaxOccurrences
	s.Template = input.Template
	if s.OccurrencesGenerated == 0 && !input.StartDate.Equal(s.StartDate) {
		s.StartDate = input.StartDate
		s.NextRunDate = input.StartDate
		s.AnchorDay = input.StartDate.Day()
	}
	s.UpdatedAt = now
	return nil
}

// IsDue reports whether the schedule should fire at now
func (s *RecurringSchedule) IsDue(now time.Time) bool {
	return s.IsActive && !s.NextRunDate.After(now)
}

// IsExhausted reports whether the occurrence cap is reached or the end date has passed
func (s *RecurringSchedule) IsExhausted(now time.Time) bool {
	if s.MaxOccurrences != nil && s.OccurrencesGenerated >= *s.MaxOccurrences {
		return true
	}
	if s.EndDate != nil && (s.EndDate.Before(now) || s.EndDate.Before(s.NextRunDate)) {
		return true
	}
	return false
}

// Deactivate stops the schedule from firing
func (s *RecurringSchedule) Deactivate(now time.Time, reason string) {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.UpdatedAt = now
	s.AddDomainEvent(NewRecurringScheduleDeactivatedEvent(s, reason))
}

// Resume reactivates a paused schedule. A schedule that has already run out cannot resume.
func (s *RecurringSchedule) Resume(now time.Time) error {
	if s.IsActive {
		return shared.NewInvalidStateError("schedule is already active")
	}
	if s.IsExhausted(now) {
		return shared.NewInvalidStateError("schedule has reached its end date or occurrence limit")
	}
	s.IsActive = true
	s.UpdatedAt = now
	return nil
}

// BuildInvoiceInput turns the template into invoice-creation input for the current run date
func (s *RecurringSchedule) BuildInvoiceInput(now time.Time) InvoiceInput {
	runDate := s.NextRunDate
	scheduleID := s.ID
	return InvoiceInput{
		Content:             s.Template.Content,
		IssueDate:           now,
		PaymentTerms:        s.Template.PaymentTerms,
		RecurringScheduleID: &scheduleID,
		RecurringRunDate:    &runDate,
	}
}

// Advance records a successful firing: moves next_run_date strictly forward, counts the occurrence
// and deactivates the schedule once it is exhausted.
func (s *RecurringSchedule) Advance(invoiceID uuid.UUID, now time.Time) {
	s.NextRunDate = CalculateNextRunDateAnchored(s.NextRunDate, s.Frequency, s.IntervalCount, s.AnchorDay)
	s.OccurrencesGenerated++
	s.LastRunDate = &now
	s.LastInvoiceID = &invoiceID
	s.UpdatedAt = now
	s.AddDomainEvent(NewRecurringInvoiceGeneratedEvent(s, invoiceID))
	if s.IsExhausted(now) {
		s.Deactivate(now, "completed")
	}
}
