// Package taxmath implements the pure tax arithmetic applied to a vendor
// payment at finalization time: withholding tax, district levy, VAT,
// mobile-money charge, net payable and USD budget impact. No I/O, fully
// deterministic.
package taxmath

import "github.com/shopspring/decimal"

// PaymentModeMomo marks payments settled over mobile money, which attract the
// operator charge on top of the taxed amount.
const PaymentModeMomo = "MOMO"

var (
	hundred          = decimal.NewFromInt(100)
	partialThreshold = decimal.NewFromFloat(99.9)
)

// TaxInput carries everything needed to compute a payment's tax breakdown.
// Rates are fractions (0.05 for 5%); FXRate is local-currency units per USD.
type TaxInput struct {
	PreTax       decimal.Decimal
	WhtRate      decimal.Decimal
	LevyRate     decimal.Decimal
	VATRate      decimal.Decimal
	MomoRate     decimal.Decimal
	VATApplies   bool
	PaymentMode  string
	CurrencyCode string
	FXRate       decimal.Decimal
}

// TaxBreakdown is the computed result for one payment (or one partial run).
// All fields are non-negative except NetOfWht, which may go negative when the
// withholding exceeds pre-tax plus levy; that value is propagated untouched.
type TaxBreakdown struct {
	PreTax          decimal.Decimal
	WHT             decimal.Decimal
	Levy            decimal.Decimal
	VAT             decimal.Decimal
	MomoCharge      decimal.Decimal
	NetOfWht        decimal.Decimal
	NetPayable      decimal.Decimal
	BudgetImpactUSD decimal.Decimal
	Percentage      decimal.Decimal
	IsPartial       bool
}

// ComputeBreakdown computes the full-amount tax breakdown:
//
//	wht        = preTax * whtRate
//	levy       = preTax * levyRate
//	vat        = (preTax + levy) * vatRate, when VAT applies
//	netPayable = preTax - wht + levy + vat + momoCharge
//
// The USD budget impact is the net payable converted at the FX rate for
// local-currency payments, falling back to 1:1 when no usable rate is set.
func ComputeBreakdown(in TaxInput) TaxBreakdown {
	wht := in.PreTax.Mul(in.WhtRate)
	levy := in.PreTax.Mul(in.LevyRate)

	vat := decimal.Zero
	if in.VATApplies {
		vat = in.PreTax.Add(levy).Mul(in.VATRate)
	}

	momo := decimal.Zero
	if in.PaymentMode == PaymentModeMomo {
		momo = in.PreTax.Mul(in.MomoRate)
	}

	net := in.PreTax.Sub(wht).Add(levy).Add(vat).Add(momo)

	return TaxBreakdown{
		PreTax:          in.PreTax,
		WHT:             wht,
		Levy:            levy,
		VAT:             vat,
		MomoCharge:      momo,
		NetOfWht:        in.PreTax.Sub(wht),
		NetPayable:      net,
		BudgetImpactUSD: BudgetImpactUSD(net, in.CurrencyCode, in.FXRate),
		Percentage:      hundred,
	}
}

// ComputePartialBreakdown scales the pre-tax amount by the given payment
// percentage before computing the breakdown. The percentage must already be
// clamped to (0, 100]; use PaymentPercentage to derive it.
func ComputePartialBreakdown(in TaxInput, percentage decimal.Decimal) TaxBreakdown {
	scaled := in
	scaled.PreTax = in.PreTax.Mul(percentage).Div(hundred)
	out := ComputeBreakdown(scaled)
	out.Percentage = percentage
	out.IsPartial = IsPartial(percentage)
	return out
}

// BudgetImpactUSD converts a net payable to its USD budget impact. USD
// amounts pass through; local-currency amounts divide by the FX rate when one
// is set, otherwise fall back to 1:1.
func BudgetImpactUSD(netPayable decimal.Decimal, currencyCode string, fxRate decimal.Decimal) decimal.Decimal {
	if currencyCode == "USD" {
		return netPayable
	}
	if fxRate.IsPositive() {
		return netPayable.Div(fxRate)
	}
	return netPayable
}

// PaymentPercentage derives the share of the full obligation covered by this
// run, clamped to [0, 100]. A non-positive total yields 100 (nothing sensible
// to prorate against).
func PaymentPercentage(amountThisRun, totalAmount decimal.Decimal) decimal.Decimal {
	if !totalAmount.IsPositive() {
		return hundred
	}
	pct := amountThisRun.Div(totalAmount).Mul(hundred)
	if pct.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// IsPartial reports whether a run at the given percentage leaves the payment
// only partially settled. Runs at 99.9% or above count as full settlement.
func IsPartial(percentage decimal.Decimal) bool {
	return percentage.LessThan(partialThreshold)
}
