package domain

import "github.com/shopspring/decimal"

// WhtRate is a configured withholding-tax rate for a procurement type. A rate
// of exactly zero is a valid configuration (tax-exempt procurement types), so
// presence and value are distinct concerns.
type WhtRate struct {
	ProcurementType string          `json:"procurementType"` // Normalized key
	Rate            decimal.Decimal `json:"rate"`            // Fraction, e.g. 0.05 for 5%
	Source          string          `json:"source"`          // REGISTRY or VALIDATION
	AuditFields
}
