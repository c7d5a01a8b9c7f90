package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingAlertID is returned when a record reaches the query engine without an identifier
var ErrMissingAlertID = errors.New("alert id is required")

// AlertStatus represents the analyst disposition of an alert
type AlertStatus string

const (
	AlertStatusPending             AlertStatus = "PENDING"
	AlertStatusConfirmedFraud      AlertStatus = "CONFIRMED_FRAUD"
	AlertStatusConfirmedLegitimate AlertStatus = "CONFIRMED_LEGITIMATE"
)

// IsDisposition reports whether the status is a final analyst verdict
func (s AlertStatus) IsDisposition() bool {
	return s == AlertStatusConfirmedFraud || s == AlertStatusConfirmedLegitimate
}

// AlertSource represents the engine that raised an alert
type AlertSource string

const (
	AlertSourceAI          AlertSource = "AI"
	AlertSourceRuleBased   AlertSource = "RB"
	AlertSourceInboundCall AlertSource = "IC"
)

// Label returns the display label for the source
func (s AlertSource) Label() string {
	switch s {
	case AlertSourceAI:
		return "AI-Based"
	case AlertSourceRuleBased:
		return "Rule Based"
	default:
		return "Inbound Call"
	}
}

// Transaction types known to the review desk
const (
	TransactionTypeCashWithdrawal  = "Cash Withdrawal"
	TransactionTypeDirectPurchase  = "Direct Purchase"
	TransactionTypeOnlinePurchase  = "Online Purchase"
	TransactionTypeInstantTransfer = "Instant Transfer"
)

// TransactionTypes lists the selectable transaction types in display order
var TransactionTypes = []string{
	TransactionTypeCashWithdrawal,
	TransactionTypeDirectPurchase,
	TransactionTypeOnlinePurchase,
	TransactionTypeInstantTransfer,
}

// Currencies lists the selectable currency codes
var Currencies = []string{"JOD", "SAR", "AED", "USD", "EGP", "QAR", "KWD", "BHD", "OMR"}

// Countries lists the selectable transaction countries
var Countries = []string{
	"Algeria", "Bahrain", "Comoros", "Djibouti", "Egypt", "Iraq", "Jordan", "Kuwait",
	"Lebanon", "Libya", "Mauritania", "Morocco", "Oman", "Palestine", "Qatar",
	"Saudi Arabia", "Somalia", "Sudan", "Syria", "Tunisia", "UAE", "Yemen",
}

// Alert is a flagged transaction joined with its account and customer
type Alert struct {
	ID        string      `json:"id" db:"id"`
	Source    AlertSource `json:"source" db:"source"`
	Status    AlertStatus `json:"status" db:"status"`
	Feedback  string      `json:"feedback,omitempty" db:"feedback"`
	AlertDate string      `json:"alert_date,omitempty" db:"alert_date"`

	TrnCode      string          `json:"trn_code" db:"trn_code"`
	Date         string          `json:"date" db:"date"`
	Time         string          `json:"time" db:"time"`
	Type         string          `json:"type" db:"type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Currency     string          `json:"currency" db:"currency"`
	Country      string          `json:"country" db:"country"`
	Channel      string          `json:"channel" db:"channel"`
	MerchantName string          `json:"merchant_name,omitempty" db:"merchant_name"`
	MerchantType string          `json:"merchant_type,omitempty" db:"merchant_type"`
	PosNumber    string          `json:"pos_number,omitempty" db:"pos_number"`
	AtmNumber    string          `json:"atm_number,omitempty" db:"atm_number"`
	WebsiteURL   string          `json:"website_url,omitempty" db:"website_url"`

	AccountNo    string `json:"account_no" db:"account_no"`
	AccountType  string `json:"account_type" db:"account_type"`
	CustomerName string `json:"customer_name" db:"customer_name"`
	CIF          string `json:"cif" db:"cif"`
	Segment      string `json:"segment,omitempty" db:"segment"`
	Gender       string `json:"gender,omitempty" db:"gender"`
	DOB          string `json:"dob,omitempty" db:"dob"`
	Nationality  string `json:"nationality,omitempty" db:"nationality"`
	MemberSince  string `json:"member_since,omitempty" db:"member_since"`
	Mobile       string `json:"mobile,omitempty" db:"mobile"`
	Branch       string `json:"branch,omitempty" db:"branch"`
}

// Validate checks the structural preconditions of a record
func (a Alert) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrMissingAlertID
	}
	return nil
}

// EffectiveStatus treats an unset status as pending
func (a Alert) EffectiveStatus() AlertStatus {
	if a.Status == "" {
		return AlertStatusPending
	}
	return a.Status
}

// FilterCriteria is a sparse set of conjunctive predicates; zero values impose no constraint
type FilterCriteria struct {
	Customer   string        `json:"customer,omitempty" form:"customer"`
	Date       string        `json:"date,omitempty" form:"date"`
	Time       string        `json:"time,omitempty" form:"time"`
	Statuses   []AlertStatus `json:"statuses,omitempty" form:"status"`
	Types      []string      `json:"types,omitempty" form:"type"`
	Countries  []string      `json:"countries,omitempty" form:"country"`
	Currencies []string      `json:"currencies,omitempty" form:"currency"`
	Sources    []AlertSource `json:"sources,omitempty" form:"source"`
	AmountFrom string        `json:"amount_from,omitempty" form:"amount_from"`
	AmountTo   string        `json:"amount_to,omitempty" form:"amount_to"`
}

// IsEmpty reports whether no criterion is populated
func (c FilterCriteria) IsEmpty() bool {
	return c.Customer == "" && c.Date == "" && c.Time == "" &&
		len(c.Statuses) == 0 && len(c.Types) == 0 && len(c.Countries) == 0 &&
		len(c.Currencies) == 0 && len(c.Sources) == 0 &&
		c.AmountFrom == "" && c.AmountTo == ""
}

// SortDirection represents the direction of a single sort rule
type SortDirection string

const (
	SortAscending  SortDirection = "Ascending"
	SortDescending SortDirection = "Descending"
)

// SortAttribute names a sortable alert attribute
type SortAttribute string

const (
	SortByNone         SortAttribute = "None"
	SortByStatus       SortAttribute = "Alert Status"
	SortByCustomerName SortAttribute = "Customer Name"
	SortByCIF          SortAttribute = "CIF No"
	SortByDateTime     SortAttribute = "Date / Time"
	SortByType         SortAttribute = "Transaction Type"
	SortByCountry      SortAttribute = "Country"
	SortByAmount       SortAttribute = "Transaction Amount"
	SortByCurrency     SortAttribute = "Currency Code"
	SortBySource       SortAttribute = "Alert Source"
)

// MaxSortRules is the maximum length of a sort cascade
const MaxSortRules = 5

// SortRule is one (attribute, direction) step of a sort cascade
type SortRule struct {
	Attribute SortAttribute `json:"attribute"`
	Direction SortDirection `json:"direction"`
}

// DefaultSortRules returns status descending, then date/time ascending, remaining unused
func DefaultSortRules() []SortRule {
	return []SortRule{
		{Attribute: SortByStatus, Direction: SortDescending},
		{Attribute: SortByDateTime, Direction: SortAscending},
		{Attribute: SortByNone, Direction: SortAscending},
		{Attribute: SortByNone, Direction: SortAscending},
		{Attribute: SortByNone, Direction: SortAscending},
	}
}

// PeriodKind names a relative date window
type PeriodKind string

const (
	PeriodLast7Days     PeriodKind = "7D"
	PeriodMonthToDate   PeriodKind = "MTD"
	PeriodQuarterToDate PeriodKind = "QTD"
	PeriodYearToDate    PeriodKind = "YTD"
	PeriodAll           PeriodKind = "ALL"
	PeriodSpecificDate  PeriodKind = "SPECIFIC"
)

// PeriodFilter selects records by date relative to a reference day. The zero value is All.
type PeriodFilter struct {
	Kind PeriodKind `json:"kind"`
	Date time.Time  `json:"date,omitempty"`
}

// EnrichmentCategory identifies the reference-table variant used for an alert
type EnrichmentCategory string

const (
	EnrichmentWithdrawal EnrichmentCategory = "withdrawal"
	EnrichmentPurchase   EnrichmentCategory = "purchase"
	EnrichmentTransfer   EnrichmentCategory = "transfer"
	EnrichmentDefault    EnrichmentCategory = "default"
)

// WithdrawalEnrichment carries cash-withdrawal display fields
type WithdrawalEnrichment struct {
	Bank      string `json:"bank"`
	City      string `json:"city"`
	ATMNumber string `json:"atm_number"`
}

// PurchaseEnrichment carries purchase display fields
type PurchaseEnrichment struct {
	Merchant        string `json:"merchant"`
	MerchantType    string `json:"merchant_type"`
	MerchantCountry string `json:"merchant_country"`
	WebsiteURL      string `json:"website_url"`
}

// TransferEnrichment carries instant-transfer display fields
type TransferEnrichment struct {
	Beneficiary string `json:"beneficiary"`
	Bank        string `json:"bank"`
	IBAN        string `json:"iban"`
}

// CounterpartyEnrichment carries display fields for uncategorised transactions
type CounterpartyEnrichment struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	ReferenceNo string `json:"reference_no"`
}

// EnrichmentBundle is the synthetic display detail derived from an alert's identity.
// Exactly one of the variant pointers is set, matching Category.
type EnrichmentBundle struct {
	AlertID      string             `json:"alert_id"`
	Category     EnrichmentCategory `json:"category"`
	AccountNo    string             `json:"account_no"`
	AccountType  string             `json:"account_type"`
	Channel      string             `json:"channel"`
	SourceLabel  string             `json:"source_label"`
	TriggerLabel string             `json:"trigger_label"`
	Feedback     string             `json:"feedback"`

	Withdrawal   *WithdrawalEnrichment   `json:"withdrawal,omitempty"`
	Purchase     *PurchaseEnrichment     `json:"purchase,omitempty"`
	Transfer     *TransferEnrichment     `json:"transfer,omitempty"`
	Counterparty *CounterpartyEnrichment `json:"counterparty,omitempty"`
}

// CounterpartyName returns the primary counterparty name of whichever variant is set
func (b EnrichmentBundle) CounterpartyName() string {
	switch {
	case b.Withdrawal != nil:
		return b.Withdrawal.Bank
	case b.Purchase != nil:
		return b.Purchase.Merchant
	case b.Transfer != nil:
		return b.Transfer.Beneficiary
	case b.Counterparty != nil:
		return b.Counterparty.Name
	}
	return ""
}

// DispositionRequest is the analyst verdict submitted for an alert
type DispositionRequest struct {
	Status   AlertStatus `json:"status" binding:"required"`
	Feedback string      `json:"feedback"`
}

// AlertPage is a paginated slice of the query result
type AlertPage struct {
	Alerts     []Alert       `json:"alerts"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	HasNext    bool          `json:"has_next"`
	HasPrev    bool          `json:"has_previous"`
	Counts     *StatusCounts `json:"counts,omitempty"`
	// SelectedID is the alert a client opens by default, the first of the page
	SelectedID string `json:"selected_id,omitempty"`
}

// AlertDetail is an alert with its enrichment bundle
type AlertDetail struct {
	Alert      Alert            `json:"alert"`
	Enrichment EnrichmentBundle `json:"enrichment"`
}

// HistoryPage is a page of prior alerts for one customer
type HistoryPage struct {
	CIF        string        `json:"cif"`
	Period     PeriodFilter  `json:"period"`
	Items      []AlertDetail `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// StatusCounts aggregates alerts by disposition. Unset statuses count as pending.
type StatusCounts struct {
	Pending int `json:"pending"`
	Fraud   int `json:"fraud"`
	Legit   int `json:"legit"`
}

// SummaryStats aggregates the full record set for the dashboard header
type SummaryStats struct {
	UniqueCustomers int                 `json:"unique_customers"`
	TotalAlerts     int                 `json:"total_alerts"`
	TotalValue      decimal.Decimal     `json:"total_value"`
	BySource        map[AlertSource]int `json:"by_source"`
	ByType          map[string]int      `json:"by_type"`
	Counts          StatusCounts        `json:"counts"`
}

// MonthlyCount is the number of alerts dated within one calendar month
type MonthlyCount struct {
	Label string `json:"label"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
}

// FilterOptions lists the values a client can offer for filtering and sorting
type FilterOptions struct {
	TransactionTypes []string        `json:"transaction_types"`
	Currencies       []string        `json:"currencies"`
	Countries        []string        `json:"countries"`
	Statuses         []AlertStatus   `json:"statuses"`
	Sources          []AlertSource   `json:"sources"`
	SortAttributes   []SortAttribute `json:"sort_attributes"`
	DefaultSort      []SortRule      `json:"default_sort"`
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
