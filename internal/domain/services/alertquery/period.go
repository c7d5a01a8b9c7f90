package alertquery

import (
	"fmt"
	"strings"
	"time"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

// last7DaysSpan is the inclusive day distance covered by the last-7-days window
const last7DaysSpan = 7

// ParsePeriod builds a PeriodFilter from its wire form. An empty kind is All.
// SPECIFIC without a date is no constraint; a present date must parse.
func ParsePeriod(kind, date string) (entities.PeriodFilter, error) {
	k := entities.PeriodKind(strings.ToUpper(strings.TrimSpace(kind)))
	switch k {
	case "":
		return entities.PeriodFilter{Kind: entities.PeriodAll}, nil
	case entities.PeriodLast7Days, entities.PeriodMonthToDate, entities.PeriodQuarterToDate,
		entities.PeriodYearToDate, entities.PeriodAll:
		return entities.PeriodFilter{Kind: k}, nil
	case entities.PeriodSpecificDate:
		if strings.TrimSpace(date) == "" {
			return entities.PeriodFilter{Kind: k}, nil
		}
		d, ok := ParseDate(date)
		if !ok {
			return entities.PeriodFilter{}, fmt.Errorf("invalid specific date %q", date)
		}
		return entities.PeriodFilter{Kind: k, Date: d}, nil
	default:
		return entities.PeriodFilter{}, fmt.Errorf("unknown period %q", kind)
	}
}

// InWindow reports whether the alert's date falls inside the period relative to
// referenceNow. Time of day is ignored. Records with unparseable dates are only
// inside All.
func InWindow(alert entities.Alert, filter entities.PeriodFilter, referenceNow time.Time) bool {
	if filter.Kind == "" || filter.Kind == entities.PeriodAll {
		return true
	}
	if filter.Kind == entities.PeriodSpecificDate && filter.Date.IsZero() {
		return true
	}

	date, ok := ParseDate(alert.Date)
	if !ok {
		return false
	}
	now := civil(referenceNow)

	switch filter.Kind {
	case entities.PeriodLast7Days:
		days := int(now.Sub(date).Hours() / 24)
		return !date.After(now) && days <= last7DaysSpan
	case entities.PeriodMonthToDate:
		return date.Year() == now.Year() && date.Month() == now.Month()
	case entities.PeriodQuarterToDate:
		return date.Year() == now.Year() && quarter(date) == quarter(now)
	case entities.PeriodYearToDate:
		return date.Year() == now.Year()
	case entities.PeriodSpecificDate:
		return sameDay(date, civil(filter.Date))
	default:
		return true
	}
}

// WindowRecords returns the records inside the period, preserving order
func WindowRecords(records []entities.Alert, filter entities.PeriodFilter, referenceNow time.Time) []entities.Alert {
	out := make([]entities.Alert, 0, len(records))
	for _, r := range records {
		if InWindow(r, filter, referenceNow) {
			out = append(out, r)
		}
	}
	return out
}

func quarter(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}
