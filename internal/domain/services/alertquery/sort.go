package alertquery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
)

// Comparator orders two alerts on a single attribute, returning -1, 0 or 1
type Comparator func(a, b entities.Alert) int

// Registry maps sort attribute names to comparators. Attributes missing from
// the registry are skipped.
type Registry map[entities.SortAttribute]Comparator

// DefaultRegistry returns the comparators for every built-in sort attribute
func DefaultRegistry() Registry {
	return Registry{
		entities.SortByStatus:       byRaw(func(a entities.Alert) string { return string(a.Status) }),
		entities.SortByCustomerName: byFolded(func(a entities.Alert) string { return a.CustomerName }),
		entities.SortByCIF:          byFolded(func(a entities.Alert) string { return a.CIF }),
		entities.SortByDateTime:     byRaw(dateTimeKey),
		entities.SortByType:         byFolded(func(a entities.Alert) string { return a.Type }),
		entities.SortByCountry:      byFolded(func(a entities.Alert) string { return a.Country }),
		entities.SortByAmount:       func(a, b entities.Alert) int { return a.Amount.Cmp(b.Amount) },
		entities.SortByCurrency:     byFolded(func(a entities.Alert) string { return a.Currency }),
		entities.SortBySource:       byFolded(func(a entities.Alert) string { return string(a.Source) }),
	}
}

// With returns a copy of the registry with attr bound to cmp
func (r Registry) With(attr entities.SortAttribute, cmp Comparator) Registry {
	out := make(Registry, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[attr] = cmp
	return out
}

// Attributes lists the registered attribute names in a stable order
func (r Registry) Attributes() []entities.SortAttribute {
	attrs := make([]entities.SortAttribute, 0, len(r))
	for k := range r {
		attrs = append(attrs, k)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Compare walks rules in order and returns the first non-zero comparison.
// None and unregistered attributes are skipped; Descending negates only its own rule.
func (r Registry) Compare(a, b entities.Alert, rules []entities.SortRule) int {
	for _, rule := range rules {
		if rule.Attribute == entities.SortByNone {
			continue
		}
		cmp, ok := r[rule.Attribute]
		if !ok {
			continue
		}
		c := cmp(a, b)
		if c == 0 {
			continue
		}
		if rule.Direction == entities.SortDescending {
			return -c
		}
		return c
	}
	return 0
}

// SortRecords returns a stably sorted copy of records
func (r Registry) SortRecords(records []entities.Alert, rules []entities.SortRule) []entities.Alert {
	out := make([]entities.Alert, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return r.Compare(out[i], out[j], rules) < 0
	})
	return out
}

var defaultRegistry = DefaultRegistry()

// Compare orders two alerts with the built-in registry
func Compare(a, b entities.Alert, rules []entities.SortRule) int {
	return defaultRegistry.Compare(a, b, rules)
}

// SortRecords sorts a copy of records with the built-in registry
func SortRecords(records []entities.Alert, rules []entities.SortRule) []entities.Alert {
	return defaultRegistry.SortRecords(records, rules)
}

func byRaw(key func(entities.Alert) string) Comparator {
	return func(a, b entities.Alert) int {
		return strings.Compare(key(a), key(b))
	}
}

func byFolded(key func(entities.Alert) string) Comparator {
	return func(a, b entities.Alert) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

// dateTimeKey is YYYY-MM-DD followed by the time of day so keys order chronologically
func dateTimeKey(a entities.Alert) string {
	return isoDate(a.Date) + " " + strings.TrimSpace(a.Time)
}

// SortCascade is an ordered list of at most MaxSortRules rules
type SortCascade struct {
	rules [entities.MaxSortRules]entities.SortRule
}

// NewSortCascade builds a cascade, padding unused positions with None
func NewSortCascade(rules ...entities.SortRule) (SortCascade, error) {
	if len(rules) > entities.MaxSortRules {
		return SortCascade{}, fmt.Errorf("sort cascade accepts at most %d rules, got %d", entities.MaxSortRules, len(rules))
	}
	var c SortCascade
	for i := range c.rules {
		c.rules[i] = entities.SortRule{Attribute: entities.SortByNone, Direction: entities.SortAscending}
	}
	for i, r := range rules {
		c.rules[i] = normalizeRule(r)
	}
	return c, nil
}

// DefaultSortCascade returns status descending then date/time ascending
func DefaultSortCascade() SortCascade {
	c, _ := NewSortCascade(entities.DefaultSortRules()...)
	return c
}

// Rules returns a copy of the cascade's rules
func (c SortCascade) Rules() []entities.SortRule {
	out := make([]entities.SortRule, len(c.rules))
	copy(out, c.rules[:])
	return out
}

// WithRule returns a copy of the cascade with position i replaced
func (c SortCascade) WithRule(i int, rule entities.SortRule) (SortCascade, error) {
	if i < 0 || i >= entities.MaxSortRules {
		return c, fmt.Errorf("sort rule position %d out of range", i)
	}
	c.rules[i] = normalizeRule(rule)
	return c, nil
}

func normalizeRule(r entities.SortRule) entities.SortRule {
	if r.Attribute == "" {
		r.Attribute = entities.SortByNone
	}
	if r.Direction != entities.SortDescending {
		r.Direction = entities.SortAscending
	}
	return r
}

// ParseSortRules reads "Attribute:Direction" pairs into a full cascade.
// Attribute names match case-insensitively against attrs and None; the
// direction defaults to Ascending. No input yields nil, the default cascade.
func ParseSortRules(raw []string, attrs []entities.SortAttribute) ([]entities.SortRule, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	known := make(map[string]entities.SortAttribute, len(attrs)+1)
	known[strings.ToLower(string(entities.SortByNone))] = entities.SortByNone
	for _, a := range attrs {
		known[strings.ToLower(string(a))] = a
	}

	rules := make([]entities.SortRule, 0, len(raw))
	for _, r := range raw {
		name, dir, _ := strings.Cut(r, ":")
		attr, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown sort attribute %q", name)
		}
		direction, err := parseDirection(dir)
		if err != nil {
			return nil, err
		}
		rules = append(rules, entities.SortRule{Attribute: attr, Direction: direction})
	}

	cascade, err := NewSortCascade(rules...)
	if err != nil {
		return nil, err
	}
	return cascade.Rules(), nil
}

func parseDirection(s string) (entities.SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return entities.SortAscending, nil
	case "desc", "descending":
		return entities.SortDescending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}
