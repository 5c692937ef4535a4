package dto

import "github.com/shopspring/decimal"

// RateResponse is the resolution probe result for one procurement type.
type RateResponse struct {
	ProcurementType string          `json:"procurementType"`
	Rate            decimal.Decimal `json:"rate"`
}
