package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelDocType    = "doc_type"
)

// Operation names used in profiling labels for invoicing work.
const (
	OperationCreateQuote      = "create_quote"
	OperationConvertQuote     = "convert_quote"
	OperationCreateInvoice    = "create_invoice"
	OperationRecordPayment    = "record_payment"
	OperationDeletePayment    = "delete_payment"
	OperationNextNumber       = "next_number"
	OperationProcessRecurring = "process_recurring"
	OperationReconcile        = "reconcile"
	OperationRenderPDF        = "render_pdf"
)

// MaxLabelValueLength caps label values to keep profile cardinality bounded.
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped by sanitizeLabels. Do not modify at runtime.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"invoice_id": true,
	"quote_id":   true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached, so CPU and allocation
// profiles can be sliced by operation in the Pyroscope UI.
//
//	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels(
//	    telemetry.OperationRecordPayment, "invoice",
//	), func(c context.Context) {
//	    err = s.recordPayment(c, userID, invoiceID, input)
//	})
//
// The labels map is copied, so callers may reuse it afterwards.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := copyAndSanitize(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

func copyAndSanitize(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	labelsCopy := make(map[string]string, len(labels))
	maps.Copy(labelsCopy, labels)
	return sanitizeLabels(labelsCopy)
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long values and
// returns key/value pairs sorted by key.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}
		pairs = append(pairs, sanitizedKey, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}

// HTTPRequestLabels builds the labels attached to every profiled HTTP request.
func HTTPRequestLabels(controller, route, method string) map[string]string {
	labels := make(map[string]string, 3)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// DocumentOperationLabels builds labels for an invoicing operation on a document type.
func DocumentOperationLabels(operation, docType string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if docType != "" {
		labels[ProfilingLabelDocType] = docType
	}
	return labels
}
