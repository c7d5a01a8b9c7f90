package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SlowQueryThreshold is the duration above which alert queries are logged
const SlowQueryThreshold = 500 * time.Millisecond

// LogSlowQuery warns when a query exceeded threshold
func LogSlowQuery(logger *zap.Logger, name string, duration, threshold time.Duration) {
	if duration > threshold {
		logger.Warn("Slow query detected",
			zap.String("query", name),
			zap.Duration("duration", duration),
			zap.Duration("threshold", threshold),
		)
	}
}

// Timed runs fn and reports it to LogSlowQuery
func Timed(ctx context.Context, logger *zap.Logger, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	LogSlowQuery(logger, name, time.Since(start), SlowQueryThreshold)
	return err
}

// QueryBuilder assembles a SELECT with positional ($n) arguments
type QueryBuilder struct {
	query      strings.Builder
	args       []interface{}
	conditions int
}

func NewQueryBuilder(base string) *QueryBuilder {
	qb := &QueryBuilder{}
	qb.query.WriteString(base)
	return qb
}

// Where appends a condition; each "?" in condition is replaced by the next positional placeholder
func (qb *QueryBuilder) Where(condition string, args ...interface{}) *QueryBuilder {
	if qb.conditions == 0 {
		qb.query.WriteString(" WHERE ")
	} else {
		qb.query.WriteString(" AND ")
	}
	qb.conditions++

	for _, arg := range args {
		qb.args = append(qb.args, arg)
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", len(qb.args)), 1)
	}
	qb.query.WriteString(condition)
	return qb
}

func (qb *QueryBuilder) OrderBy(clause string) *QueryBuilder {
	qb.query.WriteString(" ORDER BY " + clause)
	return qb
}

func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	if limit > 0 {
		qb.args = append(qb.args, limit)
		qb.query.WriteString(fmt.Sprintf(" LIMIT $%d", len(qb.args)))
	}
	return qb
}

func (qb *QueryBuilder) Build() (string, []interface{}) {
	return qb.query.String(), qb.args
}
