// Package enrichment derives deterministic display detail for alerts from
// their identity. Output depends only on the alert and the reference tables.
package enrichment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/seeded"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Synthesizer selects a reference-table variant per transaction type and fills
// an EnrichmentBundle from seeded streams. It is immutable once built and safe
// for concurrent use.
type Synthesizer struct {
	byType   map[string]variant
	byKind   map[entities.EnrichmentCategory]variant
	fallback variant
	common   table
	printer  *message.Printer
}

// NewSynthesizer compiles reference tables into variants
func NewSynthesizer(tables ReferenceTables) (*Synthesizer, error) {
	s := &Synthesizer{
		byType:  make(map[string]variant, len(tables.ByTransactionType)),
		byKind:  make(map[entities.EnrichmentCategory]variant),
		common:  compileTable(tables.Common),
		printer: message.NewPrinter(language.English),
	}

	if err := s.common.require("common", FieldAccountType, FieldAITrigger, FieldRuleTrigger); err != nil {
		return nil, err
	}
	if err := s.common.paired("common", FieldAccountType, FieldAccountShape); err != nil {
		return nil, err
	}

	// sorted so the per-kind fallback does not depend on map order
	types := make([]string, 0, len(tables.ByTransactionType))
	for t := range tables.ByTransactionType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		v, err := newVariant(t, tables.ByTransactionType[t])
		if err != nil {
			return nil, err
		}
		s.byType[normalizeKey(t)] = v
		if _, ok := s.byKind[v.category()]; !ok {
			s.byKind[v.category()] = v
		}
	}

	def := tables.Default
	if def.Kind == "" {
		def.Kind = string(entities.EnrichmentDefault)
	}
	fallback, err := newVariant("default", def)
	if err != nil {
		return nil, err
	}
	s.fallback = fallback

	return s, nil
}

// MustDefault builds a synthesizer over the built-in tables
func MustDefault() *Synthesizer {
	s, err := NewSynthesizer(DefaultTables())
	if err != nil {
		panic(err)
	}
	return s
}

// Category reports which variant handles a transaction type
func (s *Synthesizer) Category(transactionType string) entities.EnrichmentCategory {
	return s.variantFor(transactionType).category()
}

func (s *Synthesizer) variantFor(transactionType string) variant {
	if v, ok := s.byType[normalizeKey(transactionType)]; ok {
		return v
	}
	if v, ok := s.byKind[classify(transactionType)]; ok {
		return v
	}
	return s.fallback
}

// Synthesize derives the enrichment bundle for an alert. Repeated calls on an
// unchanged alert return identical bundles. It panics with
// entities.ErrMissingAlertID when the alert has no identifier.
func (s *Synthesizer) Synthesize(alert entities.Alert) entities.EnrichmentBundle {
	if err := alert.Validate(); err != nil {
		panic(err)
	}

	customer := seeded.NewStream(alert.CIF)
	event := seeded.NewStream(alert.CIF + alert.ID)

	b := entities.EnrichmentBundle{
		AlertID:     alert.ID,
		SourceLabel: alert.Source.Label(),
	}

	customer = s.account(&b, customer)

	v := s.variantFor(alert.Type)
	b.Category = v.category()
	customer, event = v.fill(&b, alert, customer, event)

	if ch := strings.TrimSpace(alert.Channel); ch != "" && ch != "N/A" {
		b.Channel = ch
	} else {
		b.Channel, event = pick(v.channels(), event)
	}

	b.TriggerLabel, _ = s.trigger(alert.Source, event)
	b.Feedback = s.feedback(alert, b)

	return b
}

// account draws the account type and number from the customer stream so every
// alert of a customer shares them
func (s *Synthesizer) account(b *entities.EnrichmentBundle, customer seeded.Stream) seeded.Stream {
	types := s.common[FieldAccountType].values
	row := customer.Pick(len(types))
	customer = customer.Next()

	b.AccountType = types[row]
	shape := at(s.common[FieldAccountShape].values, row)
	if shape == "" {
		return customer
	}
	b.AccountNo, customer = fillShape(shape, customer)
	return customer
}

func (s *Synthesizer) trigger(source entities.AlertSource, event seeded.Stream) (string, seeded.Stream) {
	switch source {
	case entities.AlertSourceAI:
		return pick(s.common[FieldAITrigger].values, event)
	case entities.AlertSourceRuleBased:
		return pick(s.common[FieldRuleTrigger].values, event)
	default:
		return InboundCallTrigger, event
	}
}

// feedback keeps analyst text and otherwise writes the standard disposition note
func (s *Synthesizer) feedback(alert entities.Alert, b entities.EnrichmentBundle) string {
	if alert.Feedback != "" {
		return alert.Feedback
	}

	amount := s.FormatAmount(alert)
	switch alert.Status {
	case entities.AlertStatusConfirmedLegitimate:
		return fmt.Sprintf("Confirmed Legitimate: Validated %s of %s %s for %s. Source: %s.",
			alert.Type, amount, alert.Currency, b.CounterpartyName(), b.SourceLabel)
	case entities.AlertStatusConfirmedFraud:
		return fmt.Sprintf("Confirmed Fraud: Unrecognized activity of %s %s. Source: %s.",
			amount, alert.Currency, b.SourceLabel)
	default:
		return ""
	}
}

// FormatAmount renders the alert amount with grouping and two decimals
func (s *Synthesizer) FormatAmount(alert entities.Alert) string {
	rounded := alert.Amount.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + whole + "." + frac
	}
	return sign + s.printer.Sprintf("%d", n) + "." + frac
}
