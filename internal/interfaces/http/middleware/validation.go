package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	setupOnce sync.Once
	hundred   = decimal.NewFromInt(100)
)

// enumValidators maps a binding tag to the domain check it runs
var enumValidators = map[string]func(string) bool{
	"invoice_status": func(s string) bool { return invoicing.InvoiceStatus(s).IsValid() },
	"quote_status":   func(s string) bool { return invoicing.QuoteStatus(s).IsValid() },
	"frequency":      func(s string) bool { return invoicing.Frequency(s).IsValid() },
	"payment_method": func(s string) bool { return invoicing.PaymentMethod(s).IsValid() },
	"payment_terms":  func(s string) bool { return invoicing.PaymentTerms(s).IsValid() },
	"discount_type":  func(s string) bool { return invoicing.DiscountType(s).IsValid() },
}

// SetupValidator configures gin's validator: JSON field names in errors,
// decimal.Decimal support and the invoicing enum tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})

		// decimals are validated through their string form
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("decimal_gt0", decimalRule(func(d decimal.Decimal) bool { return d.IsPositive() }))
		_ = v.RegisterValidation("decimal_gte0", decimalRule(func(d decimal.Decimal) bool { return !d.IsNegative() }))
		_ = v.RegisterValidation("decimal_percent", decimalRule(func(d decimal.Decimal) bool {
			return !d.IsNegative() && d.LessThanOrEqual(hundred)
		}))

		for tag, check := range enumValidators {
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			})
		}
	})
}

func decimalRule(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d)
	}
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: getValidationMessage(e),
				Tag:     e.Tag(),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError answers 400 with per-field details
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(logger.RequestIDContextKey)))
}

// fieldPath turns "QuoteBody.ContentBody.items[0].quantity" into "items[0].quantity".
// JSON names are lower case, so upper case segments are the root or embedded structs.
func fieldPath(e validator.FieldError) string {
	segments := strings.Split(e.Namespace(), ".")
	kept := segments[:0]
	for _, seg := range segments {
		if seg != "" && !unicode.IsUpper(rune(seg[0])) {
			kept = append(kept, seg)
		}
	}
	if len(kept) == 0 {
		return e.Field()
	}
	return strings.Join(kept, ".")
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " entries"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " entries"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must be a date in YYYY-MM-DD format"
	case "decimal_gt0":
		return "Must be greater than 0"
	case "decimal_gte0":
		return "Must not be negative"
	case "decimal_percent":
		return "Must be between 0 and 100"
	case "invoice_status":
		return "Must be one of: draft, sent, viewed, partial, overdue, paid, void"
	case "quote_status":
		return "Must be one of: draft, sent, accepted, declined, expired"
	case "frequency":
		return "Must be one of: daily, weekly, biweekly, monthly, quarterly, semi_annual, annual"
	case "payment_method":
		return "Must be one of: cash, check, bank_transfer, credit_card, debit_card, paypal, other"
	case "payment_terms":
		return "Must be one of: due_on_receipt, net_7, net_15, net_30, net_45, net_60"
	case "discount_type":
		return "Must be one of: fixed, percentage"
	default:
		return "Invalid value"
	}
}
