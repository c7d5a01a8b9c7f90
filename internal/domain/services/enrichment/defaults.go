package enrichment

import "github.com/fraud-desk/alert_service/internal/domain/entities"

var (
	defaultMerchants     = []string{"Jarir Marketing Company", "Carrefour Hypermarket", "Noon Electronics", "Amazon Store", "Extra Stores", "Lulu Hypermarket", "Talabat", "Careem Rides"}
	defaultMerchantTypes = []string{"Electronics & Books", "Groceries", "Electronics", "General Retail", "Home Appliances", "Groceries", "Food Delivery", "Transportation"}
	defaultMerchantURLs  = []string{"www.jarir.com", "www.carrefourksa.com", "www.noon.com", "www.amazon.ae", "www.extra.com", "www.luluhypermarket.com", "www.talabat.com", "www.careem.com"}

	defaultBanks = []string{"Arab Bank", "Housing Bank", "Bank of Jordan", "Cairo Amman Bank", "Al Rajhi Bank", "Emirates NBD", "National Bank of Egypt", "Qatar National Bank"}

	defaultCitiesByCountry = map[string][]string{
		"Jordan":       {"Amman", "Irbid", "Zarqa", "Aqaba"},
		"Saudi Arabia": {"Riyadh", "Jeddah", "Dammam", "Mecca"},
		"UAE":          {"Dubai", "Abu Dhabi", "Sharjah", "Al Ain"},
		"Egypt":        {"Cairo", "Alexandria", "Giza", "Luxor"},
		"Qatar":        {"Doha", "Al Rayyan", "Al Wakrah"},
	}

	defaultIBANByCountry = map[string][]string{
		"Jordan":       {"JO## ARAB 1180 0000 0011 80## ####"},
		"Saudi Arabia": {"SA## 8000 0000 6080 1016 ####"},
		"UAE":          {"AE## 0330 0000 0197 5### ###"},
		"Egypt":        {"EG## 0019 0005 0000 0000 2631 ####"},
		"Qatar":        {"QA## QNBA 0000 0000 0693 1234 ####"},
	}

	// AITriggers are the behavioural anomaly labels attached to AI-sourced alerts
	AITriggers = []string{
		"Transaction Country Outlier",
		"Merchant Category Deviation",
		"Spending Volume Anomaly",
		"Frequency Pattern Deviation",
		"Non-Typical Channel Usage",
		"Device ID Mismatch",
		"Geographic Velocity Outlier",
		"Time of Day Deviation",
		"Large Rounded Amount",
		"New Beneficiary Anomaly",
	}

	// RuleTriggers are the rule labels attached to rule-based alerts
	RuleTriggers = []string{
		"High Velocity Rule",
		"Restricted Country Rule",
		"Amount Threshold Rule",
		"Merchant Blocklist Rule",
		"Card Status Rule",
		"Transaction Time Anomaly",
		"Authentication Failure Limit",
		"High Risk Merchant Category",
		"Unusual Instant Transfer",
		"Account Activity Spikes",
	}
)

// InboundCallTrigger labels alerts raised by a customer call
const InboundCallTrigger = "Inbound Call Received"

// DefaultTables returns the built-in reference tables
func DefaultTables() ReferenceTables {
	purchase := func(channels []string, withURL bool) CategoryTable {
		fields := []Field{
			{Name: FieldMerchant, Values: defaultMerchants},
			{Name: FieldMerchantType, Values: defaultMerchantTypes},
			{Name: FieldCountry, Values: []string{"Jordan", "Saudi Arabia", "UAE", "Egypt", "Qatar"}},
			{Name: FieldChannel, Values: channels},
		}
		if withURL {
			fields = append(fields, Field{Name: FieldURL, Values: defaultMerchantURLs})
		}
		return CategoryTable{Kind: string(entities.EnrichmentPurchase), Fields: fields}
	}

	return ReferenceTables{
		ByTransactionType: map[string]CategoryTable{
			entities.TransactionTypeCashWithdrawal: {
				Kind: string(entities.EnrichmentWithdrawal),
				Fields: []Field{
					{Name: FieldBank, Values: defaultBanks},
					{Name: FieldCity, Values: []string{"Amman", "Riyadh", "Dubai", "Cairo", "Doha"}, ByCountry: defaultCitiesByCountry},
					{Name: FieldATMShape, Values: []string{"ATM-##-#####", "ATM-####-###"}},
					{Name: FieldChannel, Values: []string{"ATM"}},
				},
			},
			entities.TransactionTypeDirectPurchase: purchase([]string{"Point of Sale (POS)"}, false),
			entities.TransactionTypeOnlinePurchase: purchase([]string{"Web App", "Mobile App"}, true),
			entities.TransactionTypeInstantTransfer: {
				Kind: string(entities.EnrichmentTransfer),
				Fields: []Field{
					{Name: FieldBeneficiary, Values: []string{"Khalid Saeed Trading Est.", "Al Noor Real Estate", "Omar Nabil Haddad", "Gulf Logistics LLC", "Sara Adel Mansour", "Desert Star Contracting"}},
					{Name: FieldBank, Values: defaultBanks},
					{Name: FieldIBANShape, Values: []string{"JO## CBJO 0010 0000 0000 0131 ####"}, ByCountry: defaultIBANByCountry},
					{Name: FieldChannel, Values: []string{"Mobile App", "Internet Banking"}},
				},
			},
		},
		Default: CategoryTable{
			Kind: string(entities.EnrichmentDefault),
			Fields: []Field{
				{Name: FieldCounterpartyCat, Values: []string{"Government", "Utilities", "Telecom", "Education"}},
				{Name: FieldCounterparty, Values: []string{"Tax Department", "Water Authority", "Zain Telecom", "University Fees Office"}},
				{Name: FieldReferenceShape, Values: []string{"TXN-######"}},
				{Name: FieldChannel, Values: []string{"Web App", "Branch"}},
			},
		},
		Common: CategoryTable{
			Fields: []Field{
				{Name: FieldAccountType, Values: []string{"Credit Card", "Debit Card", "Current Account", "Savings Account"}},
				{Name: FieldAccountShape, Values: []string{"4411-####-####-####", "4112-####-####-####", "002-880-######-00", "002-310-######-01"}},
				{Name: FieldAITrigger, Values: AITriggers},
				{Name: FieldRuleTrigger, Values: RuleTriggers},
			},
		},
	}
}
