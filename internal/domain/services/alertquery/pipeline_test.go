package alertquery

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/pagination"
)

func TestPipeline_FilterSortWindowPaginate(t *testing.T) {
	p := NewPipeline(nil, 2)
	records := sampleAlerts()

	res, err := p.Run(records, Query{
		Criteria:     entities.FilterCriteria{Countries: []string{"Jordan", "Saudi Arabia", "UAE"}},
		Rules:        []entities.SortRule{{Attribute: entities.SortByAmount, Direction: entities.SortDescending}},
		Period:       entities.PeriodFilter{Kind: entities.PeriodLast7Days},
		ReferenceNow: referenceNow,
	})
	require.NoError(t, err)

	// AL-2 falls outside the window; the rest ordered by amount descending
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, []string{"AL-1", "AL-0"}, ids(res.Records))
	assert.Equal(t, pagination.PageInfo{
		CurrentPage: 1, PageSize: 2, TotalPages: 2, TotalRecords: 3, HasNext: true,
	}, res.PageInfo)

	res, err = p.Run(records, Query{
		Criteria:     entities.FilterCriteria{Countries: []string{"Jordan", "Saudi Arabia", "UAE"}},
		Rules:        []entities.SortRule{{Attribute: entities.SortByAmount, Direction: entities.SortDescending}},
		Period:       entities.PeriodFilter{Kind: entities.PeriodLast7Days},
		Page:         pagination.Pagination{Page: 2},
		ReferenceNow: referenceNow,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AL-3"}, ids(res.Records))
	assert.True(t, res.PageInfo.HasPrevious)
}

func TestPipeline_DefaultsToDefaultRules(t *testing.T) {
	p := NewPipeline(nil, 0)

	res, err := p.Run(sampleAlerts(), Query{ReferenceNow: referenceNow})
	require.NoError(t, err)
	assert.Equal(t, []string{"AL-0", "AL-2", "AL-1", "AL-3"}, ids(res.Records))
	assert.Equal(t, pagination.DefaultPageSize, res.PageInfo.PageSize)
}

func TestPipeline_EmptyRulesKeepOrder(t *testing.T) {
	p := NewPipeline(nil, 10)

	res, err := p.Run(sampleAlerts(), Query{Rules: []entities.SortRule{}, ReferenceNow: referenceNow})
	require.NoError(t, err)
	assert.Equal(t, []string{"AL-0", "AL-1", "AL-2", "AL-3"}, ids(res.Records))
}

func TestPipeline_MissingIDFailsFast(t *testing.T) {
	p := NewPipeline(nil, 10)
	records := append(sampleAlerts(), entities.Alert{Amount: decimal.NewFromInt(1)})

	_, err := p.Run(records, Query{ReferenceNow: referenceNow})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrMissingAlertID))
}

func TestPipeline_LargeSetPaging(t *testing.T) {
	p := NewPipeline(nil, 10)
	records := make([]entities.Alert, 0, 95)
	for i := 0; i < 95; i++ {
		records = append(records, entities.Alert{
			ID:     fmt.Sprintf("AL-%d", i),
			Amount: decimal.NewFromInt(int64(i)),
			Date:   "15/09/2025",
		})
	}

	res, err := p.Run(records, Query{
		Rules:        []entities.SortRule{{Attribute: entities.SortByAmount, Direction: entities.SortAscending}},
		Page:         pagination.Pagination{Page: 10},
		ReferenceNow: referenceNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 95, res.Matched)
	assert.Equal(t, 10, res.PageInfo.TotalPages)
	assert.Len(t, res.Records, 5)
	assert.Equal(t, "AL-90", res.Records[0].ID)
	assert.False(t, res.PageInfo.HasNext)
}
