package dashboard

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/bookingadmin/internal/domain"
)

// FieldSet selects which booking fields the search box matches and which
// columns the table shows.
type FieldSet string

const (
	FieldSetFull    FieldSet = "full"
	FieldSetCompact FieldSet = "compact"
)

func ParseFieldSet(s string) (FieldSet, error) {
	switch FieldSet(s) {
	case FieldSetFull, FieldSetCompact:
		return FieldSet(s), nil
	}
	return "", fmt.Errorf("unknown field set %q", s)
}

// Descriptive reports whether the optional ticket category and affiliation
// columns are shown.
func (f FieldSet) Descriptive() bool {
	return f == FieldSetCompact
}

func (f FieldSet) searchable(b domain.Booking) []string {
	if f == FieldSetCompact {
		return []string{domain.Value(b.FullName), domain.Value(b.Email), domain.Value(b.OrderID)}
	}
	return []string{
		domain.Value(b.FullName),
		domain.Value(b.Email),
		domain.Value(b.Phone),
		domain.Value(b.OrderID),
		domain.Value(b.PaymentID),
	}
}

// Filter keeps the rows whose searchable fields, joined by spaces, contain
// search case-insensitively. A blank search keeps every row. Only the rows
// passed in are considered.
func Filter(rows []domain.Booking, search string, fields FieldSet) []domain.Booking {
	if strings.TrimSpace(search) == "" {
		return rows
	}

	q := strings.ToLower(search)
	out := make([]domain.Booking, 0, len(rows))
	for _, b := range rows {
		haystack := strings.ToLower(strings.Join(fields.searchable(b), " "))
		if strings.Contains(haystack, q) {
			out = append(out, b)
		}
	}
	return out
}
