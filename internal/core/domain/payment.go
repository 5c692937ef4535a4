package domain

import "github.com/shopspring/decimal"

// PaymentStatus indicates how much of a staged payment has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// partialThreshold is the percentage below which a payment run counts as
// partial. Runs at 99.9% or above settle the payment in full.
var partialThreshold = decimal.NewFromFloat(99.9)

// StagedPayment is a vendor payment prepared by the staging surface and
// committed (or reversed) only by the finalization engine. The engine never
// deletes a payment; it only advances PaidAmount/PaymentStatus and stamps
// PaymentReference with the finalizing batch ID.
type StagedPayment struct {
	PaymentID        string          `json:"paymentID"` // Primary key (UUID)
	Vendor           string          `json:"vendor"`
	Description      string          `json:"description"`
	BudgetLineID     string          `json:"budgetLineID"`    // FK -> budget_lines
	ProcurementType  string          `json:"procurementType"` // Selects the WHT rate
	TaxType          string          `json:"taxType"`
	VATApplies       bool            `json:"vatApplies"`
	PaymentMode      string          `json:"paymentMode"`      // e.g. BANK_TRANSFER, MOMO, CHEQUE
	CashFlowCategory string          `json:"cashFlowCategory"` // Ledger category for the bank deduction
	CurrencyCode     string          `json:"currencyCode"`
	FXRate           decimal.Decimal `json:"fxRate"` // Local-currency units per USD

	PreTaxAmount decimal.Decimal `json:"preTaxAmount"`
	WHTAmount    decimal.Decimal `json:"whtAmount"`
	LevyAmount   decimal.Decimal `json:"levyAmount"`
	VATAmount    decimal.Decimal `json:"vatAmount"`
	MomoCharge   decimal.Decimal `json:"momoCharge"`
	NetPayable   decimal.Decimal `json:"netPayable"`

	PaidAmount       decimal.Decimal `json:"paidAmount"`  // Cumulative across runs
	TotalAmount      decimal.Decimal `json:"totalAmount"` // Full obligation
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentReference string          `json:"paymentReference"` // Batch ID of the last finalizing batch
	SheetID          string          `json:"sheetID"`          // Owning payment sheet
	AuditFields
}

// StatusForAmounts derives the payment status from the cumulative paid amount
// and the total obligation. The same rule drives forward finalization and
// undo recomputation.
func StatusForAmounts(paid, total decimal.Decimal) PaymentStatus {
	if total.IsPositive() {
		pct := paid.Div(total).Mul(decimal.NewFromInt(100))
		if pct.GreaterThanOrEqual(partialThreshold) {
			return PaymentPaid
		}
	} else if paid.IsPositive() {
		return PaymentPaid
	}
	if paid.IsPositive() {
		return PaymentPartial
	}
	return PaymentPending
}
