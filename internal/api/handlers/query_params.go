package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/domain/services/alertquery"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/pagination"
)

var validate = validator.New()

// listParams is the query string of the alert list. Multi-valued filters accept
// repeated parameters or comma separated values. Amount bounds pass through
// unparsed; a malformed bound is no constraint.
type listParams struct {
	Page       int      `form:"page" validate:"omitempty,min=1"`
	PageSize   int      `form:"page_size" validate:"omitempty,min=1,max=100"`
	Customer   string   `form:"customer" validate:"max=200"`
	Date       string   `form:"date"`
	Time       string   `form:"time"`
	Statuses   []string `form:"status" validate:"dive,oneof=PENDING CONFIRMED_FRAUD CONFIRMED_LEGITIMATE"`
	Types      []string `form:"type"`
	Countries  []string `form:"country"`
	Currencies []string `form:"currency" validate:"dive,len=3"`
	Sources    []string `form:"source" validate:"dive,oneof=AI RB IC"`
	AmountFrom string   `form:"amount_from" validate:"max=64"`
	AmountTo   string   `form:"amount_to" validate:"max=64"`
	Sort       []string `form:"sort"`
	Period     string   `form:"period"`
	PeriodDate string   `form:"period_date"`
}

// historyParams is the query string of the customer history view
type historyParams struct {
	Page       int    `form:"page" validate:"omitempty,min=1"`
	Period     string `form:"period"`
	PeriodDate string `form:"period_date"`
}

func bindQuery(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return apperrors.ErrInvalidQuery.WithCause(err).WithDetail("reason", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		return apperrors.ErrInvalidQuery.WithCause(err).WithDetail("fields", strings.Join(fields, ","))
	}
	return nil
}

func parseListQuery(c *gin.Context, sortable []entities.SortAttribute) (listParams, entities.FilterCriteria, []entities.SortRule, entities.PeriodFilter, error) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return p, entities.FilterCriteria{}, nil, entities.PeriodFilter{}, apperrors.ErrInvalidQuery.WithCause(err).WithDetail("reason", err.Error())
	}
	p.Statuses = splitValues(p.Statuses)
	p.Types = splitValues(p.Types)
	p.Countries = splitValues(p.Countries)
	p.Currencies = splitValues(p.Currencies)
	p.Sources = splitValues(p.Sources)
	if err := validate.Struct(&p); err != nil {
		return p, entities.FilterCriteria{}, nil, entities.PeriodFilter{}, apperrors.ErrInvalidQuery.WithCause(err).WithDetail("reason", err.Error())
	}

	criteria := entities.FilterCriteria{
		Customer:   p.Customer,
		Date:       p.Date,
		Time:       p.Time,
		Types:      p.Types,
		Countries:  p.Countries,
		Currencies: p.Currencies,
		AmountFrom: p.AmountFrom,
		AmountTo:   p.AmountTo,
	}
	for _, s := range p.Statuses {
		criteria.Statuses = append(criteria.Statuses, entities.AlertStatus(s))
	}
	for _, s := range p.Sources {
		criteria.Sources = append(criteria.Sources, entities.AlertSource(s))
	}

	rules, err := alertquery.ParseSortRules(p.Sort, sortable)
	if err != nil {
		return p, criteria, nil, entities.PeriodFilter{}, apperrors.ErrInvalidQuery.WithCause(err).WithDetail("sort", strings.Join(p.Sort, ","))
	}

	period, err := alertquery.ParsePeriod(p.Period, p.PeriodDate)
	if err != nil {
		return p, criteria, rules, period, apperrors.ErrInvalidQuery.WithCause(err).WithDetail("period", p.Period)
	}
	return p, criteria, rules, period, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func pageOf(page, pageSize int) pagination.Pagination {
	return pagination.Pagination{Page: page, PageSize: pageSize}
}
