package alertquery

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

// customerPickerSeparator joins name and CIF in customer picker selections
const customerPickerSeparator = " - "

// Matches reports whether alert satisfies every populated criterion
func Matches(alert entities.Alert, criteria entities.FilterCriteria) bool {
	return compile(criteria).matches(alert)
}

// FilterRecords returns the records matching criteria in their original order
func FilterRecords(records []entities.Alert, criteria entities.FilterCriteria) []entities.Alert {
	p := compile(criteria)
	out := make([]entities.Alert, 0, len(records))
	for _, r := range records {
		if p.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// predicate is FilterCriteria with its textual inputs parsed once
type predicate struct {
	customer   string
	date       string
	dateValue  *dateMatch
	time       string
	statuses   map[entities.AlertStatus]struct{}
	types      map[string]struct{}
	countries  map[string]struct{}
	currencies map[string]struct{}
	sources    map[entities.AlertSource]struct{}
	amountFrom *decimal.Decimal
	amountTo   *decimal.Decimal
}

type dateMatch struct {
	y, m, d int
}

func compile(c entities.FilterCriteria) predicate {
	p := predicate{
		customer:   customerTerm(c.Customer),
		date:       strings.TrimSpace(c.Date),
		time:       strings.ToLower(strings.TrimSpace(c.Time)),
		statuses:   setOf(c.Statuses),
		types:      setOf(c.Types),
		countries:  setOf(c.Countries),
		currencies: setOf(c.Currencies),
		sources:    setOf(c.Sources),
		amountFrom: parseAmount(c.AmountFrom),
		amountTo:   parseAmount(c.AmountTo),
	}
	if t, ok := ParseDate(p.date); ok {
		y, m, d := t.Date()
		p.dateValue = &dateMatch{y: y, m: int(m), d: d}
	}
	return p
}

func (p predicate) matches(a entities.Alert) bool {
	if p.customer != "" &&
		!strings.Contains(strings.ToLower(a.CustomerName), p.customer) &&
		!strings.Contains(strings.ToLower(a.CIF), p.customer) {
		return false
	}

	if p.date != "" && !p.matchesDate(a.Date) {
		return false
	}

	if p.time != "" && !strings.HasPrefix(strings.ToLower(a.Time), p.time) {
		return false
	}

	if !inSet(p.statuses, a.EffectiveStatus()) ||
		!inSet(p.types, a.Type) ||
		!inSet(p.countries, a.Country) ||
		!inSet(p.currencies, a.Currency) ||
		!inSet(p.sources, a.Source) {
		return false
	}

	if p.amountFrom != nil && a.Amount.LessThan(*p.amountFrom) {
		return false
	}
	if p.amountTo != nil && a.Amount.GreaterThan(*p.amountTo) {
		return false
	}

	return true
}

// matchesDate compares calendar days; an unparseable filter date only matches
// the identical raw string
func (p predicate) matchesDate(recordDate string) bool {
	if p.dateValue == nil {
		return strings.TrimSpace(recordDate) == p.date
	}
	t, ok := ParseDate(recordDate)
	if !ok {
		return false
	}
	y, m, d := t.Date()
	return y == p.dateValue.y && int(m) == p.dateValue.m && d == p.dateValue.d
}

// customerTerm lowercases the search text, reducing "Name - CIF" picker
// selections to the name
func customerTerm(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, customerPickerSeparator); i > 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// parseAmount strips grouping separators and parses a bound; malformed input is absent
func parseAmount(s string) *decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '_' || r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return nil
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

func setOf[T comparable](values []T) map[T]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func inSet[T comparable](set map[T]struct{}, v T) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[v]
	return ok
}
