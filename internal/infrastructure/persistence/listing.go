package persistence

import (
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns is the ORDER BY allow list of one table. Requested columns outside it fall
// back to the default, so user input never reaches the SQL text.
type sortColumns struct {
	fallback string
	allowed  map[string]struct{}
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	s := sortColumns{fallback: fallback, allowed: make(map[string]struct{}, len(columns)+1)}
	s.allowed[fallback] = struct{}{}
	for _, c := range columns {
		s.allowed[c] = struct{}{}
	}
	return s
}

var (
	quoteSort = newSortColumns("created_at",
		"id", "updated_at", "quote_number", "client_name", "status", "issue_date", "expiry_date", "total")
	invoiceSort = newSortColumns("created_at",
		"id", "updated_at", "invoice_number", "client_name", "status", "issue_date", "due_date", "total", "balance_due")
	scheduleSort = newSortColumns("next_run_date",
		"id", "created_at", "updated_at", "name", "frequency", "is_active")
)

// order renders "column ASC|DESC" for filter. Anything but "asc" sorts descending.
func (s sortColumns) order(filter shared.Filter) string {
	column := strings.TrimSpace(filter.OrderBy)
	if _, ok := s.allowed[column]; !ok {
		column = s.fallback
	}
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}

// list orders query by filter and applies its page window. A non-positive page size returns every row.
func (s sortColumns) list(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Order(s.order(filter))
	if filter.PageSize <= 0 {
		return query
	}
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}
