package enrichment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column names recognised in reference tables
const (
	FieldAccountType     = "accountType"
	FieldAccountShape    = "accountShape"
	FieldAITrigger       = "aiTrigger"
	FieldRuleTrigger     = "ruleTrigger"
	FieldBank            = "bank"
	FieldCity            = "city"
	FieldATMShape        = "atmShape"
	FieldMerchant        = "merchant"
	FieldMerchantType    = "merchantType"
	FieldURL             = "url"
	FieldCountry         = "country"
	FieldBeneficiary     = "beneficiary"
	FieldIBANShape       = "ibanShape"
	FieldCounterpartyCat = "counterpartyCategory"
	FieldCounterparty    = "counterparty"
	FieldReferenceShape  = "referenceShape"
	FieldChannel         = "channel"
)

// Field is one named column of a reference table. ByCountry overrides Values
// for records whose transaction country matches a key.
type Field struct {
	Name      string              `yaml:"name" json:"name"`
	Values    []string            `yaml:"values" json:"values"`
	ByCountry map[string][]string `yaml:"byCountry,omitempty" json:"byCountry,omitempty"`
}

// CategoryTable holds the columns of one transaction category. Kind selects the
// variant (withdrawal, purchase, transfer or default) that consumes the columns.
type CategoryTable struct {
	Kind   string  `yaml:"kind,omitempty" json:"kind,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// ReferenceTables is the configuration artifact consumed by the synthesizer
type ReferenceTables struct {
	ByTransactionType map[string]CategoryTable `yaml:"byTransactionType" json:"byTransactionType"`
	Default           CategoryTable            `yaml:"default" json:"default"`
	Common            CategoryTable            `yaml:"common" json:"common"`
}

// LoadTables reads reference tables from a YAML (or JSON) file
func LoadTables(path string) (ReferenceTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceTables{}, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes reference tables. Missing sections fall back to the built-in tables.
func ParseTables(data []byte) (ReferenceTables, error) {
	var tables ReferenceTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return ReferenceTables{}, fmt.Errorf("failed to parse reference tables: %w", err)
	}

	defaults := DefaultTables()
	if len(tables.ByTransactionType) == 0 {
		tables.ByTransactionType = defaults.ByTransactionType
	}
	if len(tables.Default.Fields) == 0 {
		tables.Default = defaults.Default
	}
	if len(tables.Common.Fields) == 0 {
		tables.Common = defaults.Common
	}
	return tables, nil
}

// column is a compiled Field with country keys normalised
type column struct {
	values    []string
	byCountry map[string][]string
}

func (c column) valuesFor(country string) []string {
	if v, ok := c.byCountry[normalizeKey(country)]; ok && len(v) > 0 {
		return v
	}
	return c.values
}

func (c column) empty() bool {
	if len(c.values) > 0 {
		return false
	}
	for _, v := range c.byCountry {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

type table map[string]column

func compileTable(t CategoryTable) table {
	compiled := make(table, len(t.Fields))
	for _, f := range t.Fields {
		col := column{values: f.Values}
		if len(f.ByCountry) > 0 {
			col.byCountry = make(map[string][]string, len(f.ByCountry))
			for country, values := range f.ByCountry {
				col.byCountry[normalizeKey(country)] = values
			}
		}
		compiled[f.Name] = col
	}
	return compiled
}

// require fails when any named column is missing or has no values at all
func (t table) require(scope string, names ...string) error {
	for _, name := range names {
		if t[name].empty() {
			return fmt.Errorf("reference table %q: field %q has no values", scope, name)
		}
	}
	return nil
}

// paired fails when two row-aligned columns differ in length
func (t table) paired(scope, a, b string) error {
	if len(t[a].values) == 0 {
		return fmt.Errorf("reference table %q: field %q has no values", scope, a)
	}
	if len(t[b].values) == 0 {
		return nil
	}
	if len(t[a].values) != len(t[b].values) {
		return fmt.Errorf("reference table %q: field %q must align with %q", scope, b, a)
	}
	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
