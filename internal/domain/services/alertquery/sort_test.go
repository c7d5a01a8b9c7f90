package alertquery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

func rule(attr entities.SortAttribute, dir entities.SortDirection) entities.SortRule {
	return entities.SortRule{Attribute: attr, Direction: dir}
}

func TestSortRecords_AllNonePreservesOrder(t *testing.T) {
	records := sampleAlerts()
	rules := []entities.SortRule{
		rule(entities.SortByNone, entities.SortAscending),
		rule(entities.SortByNone, entities.SortDescending),
	}
	assert.Equal(t, ids(records), ids(SortRecords(records, rules)))
	assert.Equal(t, ids(records), ids(SortRecords(records, nil)))
}

func TestSortRecords_UnknownAttributeSkipped(t *testing.T) {
	records := sampleAlerts()
	rules := []entities.SortRule{
		rule("Risk Score", entities.SortDescending),
		rule(entities.SortByAmount, entities.SortAscending),
	}
	assert.Equal(t, []string{"AL-3", "AL-0", "AL-1", "AL-2"}, ids(SortRecords(records, rules)))
}

func TestSortRecords_DoesNotMutateInput(t *testing.T) {
	records := sampleAlerts()
	before := ids(records)
	_ = SortRecords(records, []entities.SortRule{rule(entities.SortByAmount, entities.SortDescending)})
	assert.Equal(t, before, ids(records))
}

func TestSortRecords_CascadeTieBreak(t *testing.T) {
	records := []entities.Alert{
		{ID: "X", Country: "Jordan", Amount: decimal.NewFromInt(300)},
		{ID: "Y", Country: "jordan", Amount: decimal.NewFromInt(100)},
		{ID: "Z", Country: "Egypt", Amount: decimal.NewFromInt(200)},
	}
	rules := []entities.SortRule{
		rule(entities.SortByCountry, entities.SortAscending),
		rule(entities.SortByAmount, entities.SortAscending),
	}
	// Jordan and jordan tie case-insensitively so amount decides
	assert.Equal(t, []string{"Z", "Y", "X"}, ids(SortRecords(records, rules)))

	// descending on the first rule leaves the second ascending
	rules[0].Direction = entities.SortDescending
	assert.Equal(t, []string{"Y", "X", "Z"}, ids(SortRecords(records, rules)))
}

func TestSortRecords_DirectionInversion(t *testing.T) {
	records := sampleAlerts()
	attrs := []entities.SortAttribute{
		entities.SortByAmount,
		entities.SortByDateTime,
		entities.SortByType,
	}

	for _, attr := range attrs {
		t.Run(string(attr), func(t *testing.T) {
			asc := ids(SortRecords(records, []entities.SortRule{rule(attr, entities.SortAscending)}))
			desc := ids(SortRecords(records, []entities.SortRule{rule(attr, entities.SortDescending)}))
			require.Len(t, desc, len(asc))
			for i := range asc {
				assert.Equal(t, asc[i], desc[len(desc)-1-i])
			}
		})
	}
}

func TestSortRecords_DateTimeChronological(t *testing.T) {
	records := []entities.Alert{
		{ID: "late-year", Date: "02/01/2026", Time: "00:00:01"},
		{ID: "same-day-late", Date: "15/09/2025", Time: "14:00:00"},
		{ID: "same-day-early", Date: "15/09/2025", Time: "08:00:00"},
		{ID: "earlier-month", Date: "30/08/2025", Time: "23:59:59"},
	}
	got := SortRecords(records, []entities.SortRule{rule(entities.SortByDateTime, entities.SortAscending)})
	assert.Equal(t, []string{"earlier-month", "same-day-early", "same-day-late", "late-year"}, ids(got))
}

func TestSortRecords_DefaultRules(t *testing.T) {
	records := sampleAlerts()
	got := SortRecords(records, entities.DefaultSortRules())
	// status descending by raw value: PENDING > CONFIRMED_LEGITIMATE > CONFIRMED_FRAUD > unset
	assert.Equal(t, []string{"AL-0", "AL-2", "AL-1", "AL-3"}, ids(got))
}

func TestCompare(t *testing.T) {
	a := entities.Alert{ID: "a", CustomerName: "alice", Amount: decimal.NewFromInt(1)}
	b := entities.Alert{ID: "b", CustomerName: "ALICE", Amount: decimal.NewFromInt(2)}

	assert.Equal(t, 0, Compare(a, b, []entities.SortRule{rule(entities.SortByCustomerName, entities.SortAscending)}))
	assert.Equal(t, -1, Compare(a, b, []entities.SortRule{rule(entities.SortByAmount, entities.SortAscending)}))
	assert.Equal(t, 1, Compare(a, b, []entities.SortRule{rule(entities.SortByAmount, entities.SortDescending)}))
	assert.Equal(t, 0, Compare(a, b, nil))
}

func TestRegistry_With(t *testing.T) {
	byID := func(a, b entities.Alert) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
	base := DefaultRegistry()
	extended := base.With("Alert ID", byID)

	records := []entities.Alert{{ID: "b"}, {ID: "c"}, {ID: "a"}}
	rules := []entities.SortRule{rule("Alert ID", entities.SortAscending)}

	assert.Equal(t, []string{"a", "b", "c"}, ids(extended.SortRecords(records, rules)))
	assert.Equal(t, []string{"b", "c", "a"}, ids(base.SortRecords(records, rules)), "base registry is unchanged")
	assert.Contains(t, extended.Attributes(), entities.SortAttribute("Alert ID"))
}

func TestSortCascade(t *testing.T) {
	c := DefaultSortCascade()
	assert.Equal(t, entities.DefaultSortRules(), c.Rules())

	updated, err := c.WithRule(2, rule(entities.SortByAmount, entities.SortDescending))
	require.NoError(t, err)
	assert.Equal(t, entities.SortByAmount, updated.Rules()[2].Attribute)
	assert.Equal(t, entities.SortByNone, c.Rules()[2].Attribute, "original cascade unchanged")

	_, err = c.WithRule(entities.MaxSortRules, rule(entities.SortByAmount, entities.SortAscending))
	assert.Error(t, err)

	_, err = NewSortCascade(make([]entities.SortRule, entities.MaxSortRules+1)...)
	assert.Error(t, err)

	padded, err := NewSortCascade(entities.SortRule{Attribute: entities.SortByCIF, Direction: "sideways"})
	require.NoError(t, err)
	rules := padded.Rules()
	assert.Len(t, rules, entities.MaxSortRules)
	assert.Equal(t, entities.SortAscending, rules[0].Direction)
	assert.Equal(t, entities.SortByNone, rules[4].Attribute)
}

func TestParseSortRules(t *testing.T) {
	attrs := DefaultRegistry().Attributes()

	rules, err := ParseSortRules([]string{"transaction amount:desc", "Customer Name"}, attrs)
	require.NoError(t, err)
	require.Len(t, rules, entities.MaxSortRules)
	assert.Equal(t, rule(entities.SortByAmount, entities.SortDescending), rules[0])
	assert.Equal(t, rule(entities.SortByCustomerName, entities.SortAscending), rules[1])
	assert.Equal(t, rule(entities.SortByNone, entities.SortAscending), rules[4])

	rules, err = ParseSortRules(nil, attrs)
	require.NoError(t, err)
	assert.Nil(t, rules)

	for _, bad := range [][]string{
		{"Risk Score:Ascending"},
		{"Country:Sideways"},
		{"Country", "Country", "Country", "Country", "Country", "Country"},
	} {
		_, err := ParseSortRules(bad, attrs)
		assert.Error(t, err, bad)
	}
}
