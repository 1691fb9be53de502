package invoicing

import (
	"context"
	"fmt"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NumberingConfig controls how document numbers are formatted
type NumberingConfig struct {
	InvoicePrefix string
	QuotePrefix   string
	PadWidth      int
}

// DefaultNumberingConfig returns INV/QUO prefixes with four digit padding
func DefaultNumberingConfig() NumberingConfig {
	return NumberingConfig{
		InvoicePrefix: "INV",
		QuotePrefix:   "QUO",
		PadWidth:      4,
	}
}

func (c NumberingConfig) prefix(docType invoicing.DocumentType) string {
	if docType == invoicing.DocumentTypeQuote {
		return c.QuotePrefix
	}
	return c.InvoicePrefix
}

// FallbackRecorder counts numbering degradations
type FallbackRecorder interface {
	RecordNumberFallback(ctx context.Context, docType string)
}

// FormatDocumentNumber renders PREFIX-YEAR-SEQ with SEQ zero padded to width
func FormatDocumentNumber(prefix string, year int, seq int64, width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s-%d-%0*d", strings.ToUpper(prefix), year, width, seq)
}

// NumberingService assigns per-user, per-year document numbers from an atomic sequence.
// When the sequence is unavailable it degrades to a timestamp number instead of failing.
type NumberingService struct {
	sequence invoicing.DocumentSequence
	cfg      NumberingConfig
	logger   *zap.Logger
	fallback FallbackRecorder
	clock    Clock
}

// NewNumberingService creates a NumberingService
func NewNumberingService(sequence invoicing.DocumentSequence, cfg NumberingConfig, logger *zap.Logger) *NumberingService {
	defaults := DefaultNumberingConfig()
	if cfg.InvoicePrefix == "" {
		cfg.InvoicePrefix = defaults.InvoicePrefix
	}
	if cfg.QuotePrefix == "" {
		cfg.QuotePrefix = defaults.QuotePrefix
	}
	if cfg.PadWidth < 1 {
		cfg.PadWidth = defaults.PadWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NumberingService{
		sequence: sequence,
		cfg:      cfg,
		logger:   logger,
		clock:    systemClock,
	}
}

// SetFallbackRecorder sets the recorder notified on timestamp fallbacks
func (s *NumberingService) SetFallbackRecorder(r FallbackRecorder) {
	s.fallback = r
}

// SetClock overrides the time source used for fallback numbers
func (s *NumberingService) SetClock(clock Clock) {
	s.clock = clock
}

// Next returns the next number for the user's documents of docType in year.
// It never fails: a sequence error yields PREFIX-YEAR-<unix millis> and a warning.
func (s *NumberingService) Next(ctx context.Context, userID uuid.UUID, docType invoicing.DocumentType, year int) string {
	ctx, span := telemetry.StartServiceSpan(ctx, "numbering", "next")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrDocType, string(docType),
	)

	prefix := s.cfg.prefix(docType)

	var seq int64
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(telemetry.OperationNextNumber, string(docType)), func(c context.Context) {
		if s.sequence == nil {
			err = fmt.Errorf("no document sequence configured")
			return
		}
		seq, err = s.sequence.Next(c, userID, docType, year)
	})
	if err == nil && seq > 0 {
		return FormatDocumentNumber(prefix, year, seq, s.cfg.PadWidth)
	}
	if err == nil {
		err = fmt.Errorf("sequence returned non-positive value %d", seq)
	}

	telemetry.RecordError(span, err)
	s.logger.Warn("Document sequence unavailable, using timestamp number",
		zap.String("user_id", userID.String()),
		zap.String("doc_type", string(docType)),
		zap.Int("year", year),
		zap.Error(err),
	)
	if s.fallback != nil {
		s.fallback.RecordNumberFallback(ctx, string(docType))
	}
	return fmt.Sprintf("%s-%d-%d", strings.ToUpper(prefix), year, s.clock().UnixMilli())
}

