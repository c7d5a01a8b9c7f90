package alertquery

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

// MonthlyWindow is the number of months reported by MonthlyCounts
const MonthlyWindow = 12

// CountStatuses tallies records by disposition; unset statuses count as pending
func CountStatuses(records []entities.Alert) entities.StatusCounts {
	var c entities.StatusCounts
	for _, r := range records {
		switch r.EffectiveStatus() {
		case entities.AlertStatusConfirmedFraud:
			c.Fraud++
		case entities.AlertStatusConfirmedLegitimate:
			c.Legit++
		default:
			c.Pending++
		}
	}
	return c
}

// Summarize aggregates the dashboard header figures
func Summarize(records []entities.Alert) entities.SummaryStats {
	stats := entities.SummaryStats{
		TotalAlerts: len(records),
		TotalValue:  decimal.Zero,
		BySource: map[entities.AlertSource]int{
			entities.AlertSourceAI:          0,
			entities.AlertSourceRuleBased:   0,
			entities.AlertSourceInboundCall: 0,
		},
		ByType: make(map[string]int, len(entities.TransactionTypes)),
		Counts: CountStatuses(records),
	}
	for _, t := range entities.TransactionTypes {
		stats.ByType[t] = 0
	}

	customers := make(map[string]struct{})
	for _, r := range records {
		customers[r.CIF] = struct{}{}
		stats.TotalValue = stats.TotalValue.Add(r.Amount)
		stats.BySource[r.Source]++
		stats.ByType[r.Type]++
	}
	stats.UniqueCustomers = len(customers)

	return stats
}

// MonthlyCounts returns alert counts for the MonthlyWindow months ending with
// the month of referenceNow, oldest first
func MonthlyCounts(records []entities.Alert, referenceNow time.Time) []entities.MonthlyCount {
	anchor := time.Date(referenceNow.Year(), referenceNow.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]entities.MonthlyCount, MonthlyWindow)
	index := make(map[[2]int]int, MonthlyWindow)
	for i := 0; i < MonthlyWindow; i++ {
		m := anchor.AddDate(0, i-(MonthlyWindow-1), 0)
		out[i] = entities.MonthlyCount{
			Label: m.Format("Jan 06"),
			Year:  m.Year(),
			Month: int(m.Month()),
		}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, r := range records {
		d, ok := ParseDate(r.Date)
		if !ok {
			continue
		}
		if i, ok := index[[2]int{d.Year(), int(d.Month())}]; ok {
			out[i].Count++
		}
	}
	return out
}

var statusPriority = map[entities.AlertStatus]int{
	entities.AlertStatusPending:             0,
	entities.AlertStatusConfirmedFraud:      1,
	entities.AlertStatusConfirmedLegitimate: 2,
}

// DefaultOrder returns a copy ordered for the review queue: alerts dated on the
// reference day first, then pending before fraud before legitimate, then newest first
func DefaultOrder(records []entities.Alert, referenceNow time.Time) []entities.Alert {
	today := civil(referenceNow)
	out := make([]entities.Alert, len(records))
	copy(out, records)

	isToday := func(a entities.Alert) bool {
		d, ok := ParseDate(a.Date)
		return ok && sameDay(d, today)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ta, tb := isToday(a), isToday(b)
		if ta != tb {
			return ta
		}
		pa, pb := statusPriority[a.EffectiveStatus()], statusPriority[b.EffectiveStatus()]
		if pa != pb {
			return pa < pb
		}
		return dateTimeKey(a) > dateTimeKey(b)
	})
	return out
}
