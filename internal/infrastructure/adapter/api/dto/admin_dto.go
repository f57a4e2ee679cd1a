package dto

import "time"

// SetPriceRequest represents the API request for installing a price version
type SetPriceRequest struct {
	ModelID               string     `json:"modelId" binding:"required"`
	Provider              string     `json:"provider" binding:"required"`
	InputPriceMicroCents  *int64     `json:"inputPriceMicroCents"`
	OutputPriceMicroCents *int64     `json:"outputPriceMicroCents"`
	PriceMicroCents       *int64     `json:"priceMicroCents"`
	EffectiveFrom         *time.Time `json:"effectiveFrom"`
	AdminID               string     `json:"adminId" binding:"required"`
	Reason                string     `json:"reason"`
}

// PriceResponse represents the API response for a price row
type PriceResponse struct {
	ID                    int64      `json:"id"`
	ModelID               string     `json:"modelId"`
	Provider              string     `json:"provider"`
	InputPriceMicroCents  int64      `json:"inputPriceMicroCents"`
	OutputPriceMicroCents int64      `json:"outputPriceMicroCents"`
	EffectiveFrom         time.Time  `json:"effectiveFrom"`
	EffectiveTo           *time.Time `json:"effectiveTo,omitempty"`
}

// AdjustmentRequest represents the API request for a manual balance correction
type AdjustmentRequest struct {
	DeltaMicroCents int64  `json:"deltaMicroCents" binding:"required"`
	AdminID         string `json:"adminId" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
}

// AdjustmentResponse represents the API response for an applied adjustment
type AdjustmentResponse struct {
	TransactionID        int64 `json:"transactionId"`
	UserID               int64 `json:"userId"`
	DeltaMicroCents      int64 `json:"deltaMicroCents"`
	NewBalanceMicroCents int64 `json:"newBalanceMicroCents"`
	Replayed             bool  `json:"replayed"`
}

// InvoiceRequest represents the API request for recording a provider invoice
type InvoiceRequest struct {
	Provider    string         `json:"provider" binding:"required"`
	InvoiceDate *time.Time     `json:"invoiceDate"`
	AmountCents int64          `json:"amountCents" binding:"required"`
	Metadata    map[string]any `json:"metadata"`
}

// InvoiceResponse represents the API response for a recorded invoice
type InvoiceResponse struct {
	InvoiceID   int64     `json:"invoiceId"`
	Provider    string    `json:"provider"`
	InvoiceDate time.Time `json:"invoiceDate"`
	AmountCents int64     `json:"amountCents"`
}

// ReconciliationResponse represents the API response for a reconciliation run
type ReconciliationResponse struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Provider          string    `json:"provider,omitempty"`
	RecordedCostCents int64     `json:"recordedCostCents"`
	InvoicedCents     int64     `json:"invoicedCents"`
	VarianceCents     int64     `json:"varianceCents"`
	VariancePercent   float64   `json:"variancePercent"`
	Reconciled        bool      `json:"reconciled"`
}

// AnalyticsResponse represents the API response for the billing summary
type AnalyticsResponse struct {
	Start                  time.Time `json:"start"`
	End                    time.Time `json:"end"`
	TotalCalls             int64     `json:"totalCalls"`
	FailedCalls            int64     `json:"failedCalls"`
	DistinctUsers          int64     `json:"distinctUsers"`
	TopupMicroCents        int64     `json:"topupMicroCents"`
	BonusMicroCents        int64     `json:"bonusMicroCents"`
	ProviderCostMicroCents int64     `json:"providerCostMicroCents"`
	FeeRevenueMicroCents   int64     `json:"feeRevenueMicroCents"`
	AdjustmentMicroCents   int64     `json:"adjustmentMicroCents"`
	GrossMarginMicroCents  int64     `json:"grossMarginMicroCents"`
}
