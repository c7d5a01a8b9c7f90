// Package alertquery filters, sorts, windows and paginates alert records.
// Every function is a pure transform over its arguments.
package alertquery

import (
	"fmt"
	"time"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/pagination"
)

// Query carries the whole state of one list view
type Query struct {
	Criteria     entities.FilterCriteria
	Rules        []entities.SortRule
	Period       entities.PeriodFilter
	Page         pagination.Pagination
	ReferenceNow time.Time
}

// Result is one page of the query output
type Result struct {
	Records  []entities.Alert
	Matched  int
	PageInfo pagination.PageInfo
}

// Pipeline composes filter, sort, window and pagination
type Pipeline struct {
	registry        Registry
	defaultPageSize int
}

// NewPipeline creates a pipeline; a nil registry uses the built-in comparators
func NewPipeline(registry Registry, defaultPageSize int) *Pipeline {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if defaultPageSize < 1 {
		defaultPageSize = pagination.DefaultPageSize
	}
	return &Pipeline{registry: registry, defaultPageSize: defaultPageSize}
}

// Registry exposes the comparator registry in use
func (p *Pipeline) Registry() Registry {
	return p.registry
}

// Run evaluates q over records. It fails with entities.ErrMissingAlertID when
// any record lacks an identifier.
func (p *Pipeline) Run(records []entities.Alert, q Query) (Result, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return Result{}, fmt.Errorf("record %d: %w", i, err)
		}
	}

	rules := q.Rules
	if rules == nil {
		rules = entities.DefaultSortRules()
	}

	matched := FilterRecords(records, q.Criteria)
	matched = p.registry.SortRecords(matched, rules)
	matched = WindowRecords(matched, q.Period, q.ReferenceNow)

	page := q.Page
	page.Validate(p.defaultPageSize)

	return Result{
		Records:  pagination.Slice(matched, page),
		Matched:  len(matched),
		PageInfo: pagination.NewPageInfo(page, len(matched)),
	}, nil
}
