package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MasterLogEntry is the immutable per-transaction audit record appended for
// every finalized payment. It is the unit removed by undo; everything else
// about it is write-once.
type MasterLogEntry struct {
	TransactionID   string          `json:"transactionID"` // Generated (UUID)
	BatchID         string          `json:"batchID"`
	PaymentID       string          `json:"paymentID"`
	SheetID         string          `json:"sheetID"`
	Vendor          string          `json:"vendor"`
	Description     string          `json:"description"`
	BudgetLineID    string          `json:"budgetLineID"`
	BudgetLineName  string          `json:"budgetLineName"`
	BankID          string          `json:"bankID"`
	ProcurementType string          `json:"procurementType"`
	CurrencyCode    string          `json:"currencyCode"`
	FXRate          decimal.Decimal `json:"fxRate"`

	PreTaxAmount    decimal.Decimal `json:"preTaxAmount"`
	WHTAmount       decimal.Decimal `json:"whtAmount"`
	LevyAmount      decimal.Decimal `json:"levyAmount"`
	VATAmount       decimal.Decimal `json:"vatAmount"`
	MomoCharge      decimal.Decimal `json:"momoCharge"`
	NetPayable      decimal.Decimal `json:"netPayable"`
	BudgetImpactUSD decimal.Decimal `json:"budgetImpactUSD"`

	PercentOfTotal  decimal.Decimal `json:"percentOfTotal"` // This run as % of the full obligation
	CumulativePaid  decimal.Decimal `json:"cumulativePaid"` // Paid amount after this run
	IsPartial       bool            `json:"isPartial"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedByUserID string          `json:"createdByUserID"`
}
