package enrichment

import (
	"fmt"
	"strings"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/seeded"
)

// variant fills the category-specific part of a bundle. customer is seeded from
// the CIF and event from CIF+alert id; both are returned advanced past the
// states they consumed.
type variant interface {
	category() entities.EnrichmentCategory
	fill(b *entities.EnrichmentBundle, alert entities.Alert, customer, event seeded.Stream) (seeded.Stream, seeded.Stream)
	channels() []string
}

func newVariant(scope string, t CategoryTable) (variant, error) {
	compiled := compileTable(t)
	kind := entities.EnrichmentCategory(normalizeKey(t.Kind))
	if kind == "" {
		kind = classify(scope)
	}

	switch kind {
	case entities.EnrichmentWithdrawal:
		if err := compiled.require(scope, FieldBank, FieldCity, FieldATMShape); err != nil {
			return nil, err
		}
		return withdrawalVariant{table: compiled}, nil
	case entities.EnrichmentPurchase:
		if err := compiled.require(scope, FieldMerchant, FieldCountry); err != nil {
			return nil, err
		}
		for _, f := range []string{FieldMerchantType, FieldURL} {
			if err := compiled.paired(scope, FieldMerchant, f); err != nil {
				return nil, err
			}
		}
		return purchaseVariant{table: compiled}, nil
	case entities.EnrichmentTransfer:
		if err := compiled.require(scope, FieldBeneficiary, FieldBank, FieldIBANShape); err != nil {
			return nil, err
		}
		return transferVariant{table: compiled}, nil
	case entities.EnrichmentDefault:
		if err := compiled.require(scope, FieldCounterparty, FieldReferenceShape); err != nil {
			return nil, err
		}
		if err := compiled.paired(scope, FieldCounterparty, FieldCounterpartyCat); err != nil {
			return nil, err
		}
		return defaultVariant{table: compiled}, nil
	default:
		return nil, fmt.Errorf("reference table %q: unknown kind %q", scope, t.Kind)
	}
}

// classify maps a transaction type onto a variant by keyword
func classify(transactionType string) entities.EnrichmentCategory {
	t := strings.ToLower(transactionType)
	switch {
	case strings.Contains(t, "withdraw"):
		return entities.EnrichmentWithdrawal
	case strings.Contains(t, "purchase"), strings.Contains(t, "payment"):
		return entities.EnrichmentPurchase
	case strings.Contains(t, "transfer"):
		return entities.EnrichmentTransfer
	default:
		return entities.EnrichmentDefault
	}
}

type withdrawalVariant struct{ table table }

func (withdrawalVariant) category() entities.EnrichmentCategory { return entities.EnrichmentWithdrawal }
func (v withdrawalVariant) channels() []string                 { return v.table[FieldChannel].values }

func (v withdrawalVariant) fill(b *entities.EnrichmentBundle, alert entities.Alert, customer, event seeded.Stream) (seeded.Stream, seeded.Stream) {
	w := &entities.WithdrawalEnrichment{}
	w.Bank, customer = pick(v.table[FieldBank].valuesFor(alert.Country), customer)
	w.City, customer = pick(v.table[FieldCity].valuesFor(alert.Country), customer)

	var shape string
	shape, event = pick(v.table[FieldATMShape].valuesFor(alert.Country), event)
	w.ATMNumber, event = fillShape(shape, event)

	b.Withdrawal = w
	return customer, event
}

type purchaseVariant struct{ table table }

func (purchaseVariant) category() entities.EnrichmentCategory { return entities.EnrichmentPurchase }
func (v purchaseVariant) channels() []string                 { return v.table[FieldChannel].values }

func (v purchaseVariant) fill(b *entities.EnrichmentBundle, alert entities.Alert, customer, event seeded.Stream) (seeded.Stream, seeded.Stream) {
	merchants := v.table[FieldMerchant].values
	row := event.Pick(len(merchants))
	event = event.Next()

	p := &entities.PurchaseEnrichment{
		Merchant:     merchants[row],
		MerchantType: at(v.table[FieldMerchantType].values, row),
		WebsiteURL:   at(v.table[FieldURL].values, row),
	}
	p.MerchantCountry, event = pick(v.table[FieldCountry].valuesFor(alert.Country), event)

	b.Purchase = p
	return customer, event
}

type transferVariant struct{ table table }

func (transferVariant) category() entities.EnrichmentCategory { return entities.EnrichmentTransfer }
func (v transferVariant) channels() []string                 { return v.table[FieldChannel].values }

func (v transferVariant) fill(b *entities.EnrichmentBundle, alert entities.Alert, customer, event seeded.Stream) (seeded.Stream, seeded.Stream) {
	t := &entities.TransferEnrichment{}
	t.Beneficiary, event = pick(v.table[FieldBeneficiary].valuesFor(alert.Country), event)
	t.Bank, event = pick(v.table[FieldBank].valuesFor(alert.Country), event)

	var shape string
	shape, event = pick(v.table[FieldIBANShape].valuesFor(alert.Country), event)
	t.IBAN, event = fillShape(shape, event)

	b.Transfer = t
	return customer, event
}

type defaultVariant struct{ table table }

func (defaultVariant) category() entities.EnrichmentCategory { return entities.EnrichmentDefault }
func (v defaultVariant) channels() []string                 { return v.table[FieldChannel].values }

func (v defaultVariant) fill(b *entities.EnrichmentBundle, alert entities.Alert, customer, event seeded.Stream) (seeded.Stream, seeded.Stream) {
	names := v.table[FieldCounterparty].values
	row := event.Pick(len(names))
	event = event.Next()

	c := &entities.CounterpartyEnrichment{
		Name:     names[row],
		Category: at(v.table[FieldCounterpartyCat].values, row),
	}

	var shape string
	shape, event = pick(v.table[FieldReferenceShape].values, event)
	c.ReferenceNo, event = fillShape(shape, event)

	b.Counterparty = c
	return customer, event
}

// pick returns the value at abs(state) mod len and the advanced stream
func pick(values []string, s seeded.Stream) (string, seeded.Stream) {
	if len(values) == 0 {
		return "", s
	}
	return values[s.Pick(len(values))], s.Next()
}

// fillShape replaces every '#' in shape with a digit drawn from successive states
func fillShape(shape string, s seeded.Stream) (string, seeded.Stream) {
	var sb strings.Builder
	sb.Grow(len(shape))
	for _, r := range shape {
		if r != '#' {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte(byte('0' + s.Pick(10)))
		s = s.Next()
	}
	return sb.String(), s
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
