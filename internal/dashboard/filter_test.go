package dashboard

import (
	"testing"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/stretchr/testify/assert"
)

func booking(id, name, email, phone, order, payment string) domain.Booking {
	b := domain.Booking{ID: id}
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return domain.StringPtr(v)
	}
	b.FullName = set(name)
	b.Email = set(email)
	b.Phone = set(phone)
	b.OrderID = set(order)
	b.PaymentID = set(payment)
	return b
}

func ids(rows []domain.Booking) []string {
	out := make([]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, b.ID)
	}
	return out
}

var sampleRows = []domain.Booking{
	booking("1", "Asha Rao", "asha@example.com", "+91 98450", "order_AAA", "pay_111"),
	booking("2", "Ben Okafor", "ben@example.org", "", "order_BBB", "pay_222"),
	booking("3", "", "", "+44 7700", "", ""),
}

func TestFilter_BlankReturnsAll(t *testing.T) {
	assert.Equal(t, sampleRows, Filter(sampleRows, "", FieldSetFull))
	assert.Equal(t, sampleRows, Filter(sampleRows, "   ", FieldSetFull))
}

func TestFilter_CaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"1"}, ids(Filter(sampleRows, "ASHA", FieldSetFull)))
	assert.Equal(t, []string{"2"}, ids(Filter(sampleRows, "Example.ORG", FieldSetFull)))
}

func TestFilter_FullFieldSet(t *testing.T) {
	assert.Equal(t, []string{"3"}, ids(Filter(sampleRows, "7700", FieldSetFull)))
	assert.Equal(t, []string{"2"}, ids(Filter(sampleRows, "pay_222", FieldSetFull)))
	assert.Equal(t, []string{"1", "2"}, ids(Filter(sampleRows, "order_", FieldSetFull)))
}

func TestFilter_CompactFieldSetIgnoresPhoneAndPayment(t *testing.T) {
	assert.Empty(t, Filter(sampleRows, "7700", FieldSetCompact))
	assert.Empty(t, Filter(sampleRows, "pay_222", FieldSetCompact))
	assert.Equal(t, []string{"2"}, ids(Filter(sampleRows, "order_bbb", FieldSetCompact)))
}

func TestFilter_MatchesAcrossJoinedFields(t *testing.T) {
	assert.Equal(t, []string{"1"}, ids(Filter(sampleRows, "rao asha@", FieldSetFull)))
}

func TestFilter_IsSubsetOfInput(t *testing.T) {
	for _, q := range []string{"a", "example", "+", "zzz", "_"} {
		got := Filter(sampleRows, q, FieldSetFull)
		assert.LessOrEqual(t, len(got), len(sampleRows))
		for _, b := range got {
			assert.Contains(t, sampleRows, b)
		}
	}
}

func TestParseFieldSet(t *testing.T) {
	fs, err := ParseFieldSet("compact")
	assert.NoError(t, err)
	assert.True(t, fs.Descriptive())

	fs, err = ParseFieldSet("full")
	assert.NoError(t, err)
	assert.False(t, fs.Descriptive())

	_, err = ParseFieldSet("wide")
	assert.Error(t, err)
}
