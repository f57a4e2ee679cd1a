package handler

import (
	"net/http"
	"time"

	domainerr "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/billing"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/pricing"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/reporting"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles the token-guarded admin HTTP surface
type AdminHandler struct {
	billingService *billing.Service
	catalog        *pricing.Catalog
	reporter       *reporting.Reporter
	logger         coreport.Logger
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(
	billingService *billing.Service,
	catalog *pricing.Catalog,
	reporter *reporting.Reporter,
	logger coreport.Logger,
) *AdminHandler {
	return &AdminHandler{
		billingService: billingService,
		catalog:        catalog,
		reporter:       reporter,
		logger:         logger,
	}
}

// SetPrice handles the POST /admin/prices endpoint. Either a blended
// priceMicroCents or the input/output pair must be supplied.
func (h *AdminHandler) SetPrice(c *gin.Context) {
	var req dto.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidModelID),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	var effectiveFrom time.Time
	if req.EffectiveFrom != nil {
		effectiveFrom = *req.EffectiveFrom
	}

	if req.PriceMicroCents != nil {
		result, err := h.catalog.SetBlendedPrice(
			c.Request.Context(), req.ModelID, req.Provider,
			*req.PriceMicroCents, effectiveFrom, req.AdminID, req.Reason,
		)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, dto.PriceResponse{
			ID:                    result.ID,
			ModelID:               result.ModelID,
			Provider:              result.Provider,
			InputPriceMicroCents:  result.InputPriceMicroCents,
			OutputPriceMicroCents: result.OutputPriceMicroCents,
			EffectiveFrom:         result.EffectiveFrom,
			EffectiveTo:           result.EffectiveTo,
		})
		return
	}

	if req.InputPriceMicroCents == nil || req.OutputPriceMicroCents == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrNegativeAmount),
			Message: "Either priceMicroCents or both inputPriceMicroCents and outputPriceMicroCents are required",
		})
		return
	}

	result, err := h.catalog.SetPrice(
		c.Request.Context(), req.ModelID, req.Provider,
		*req.InputPriceMicroCents, *req.OutputPriceMicroCents,
		effectiveFrom, req.AdminID, req.Reason,
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PriceResponse{
		ID:                    result.ID,
		ModelID:               result.ModelID,
		Provider:              result.Provider,
		InputPriceMicroCents:  result.InputPriceMicroCents,
		OutputPriceMicroCents: result.OutputPriceMicroCents,
		EffectiveFrom:         result.EffectiveFrom,
		EffectiveTo:           result.EffectiveTo,
	})
}

// Adjust handles the POST /admin/users/:userId/adjustments endpoint
func (h *AdminHandler) Adjust(c *gin.Context) {
	ref, ok := parseUserRef(c)
	if !ok {
		return
	}

	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrNegativeAmount),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.billingService.ApplyBalanceAdjustment(
		c.Request.Context(), ref, req.DeltaMicroCents,
		req.AdminID, req.Reason, idempotencyKey(c),
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AdjustmentResponse{
		TransactionID:        result.TransactionID,
		UserID:               result.UserID,
		DeltaMicroCents:      result.DeltaMicroCents,
		NewBalanceMicroCents: result.NewBalanceMicroCents,
		Replayed:             result.Replayed,
	})
}

// RecordInvoice handles the POST /admin/invoices endpoint
func (h *AdminHandler) RecordInvoice(c *gin.Context) {
	var req dto.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidReference),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	var invoiceDate time.Time
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}

	invoice, err := h.reporter.RecordProviderInvoice(
		c.Request.Context(), req.Provider, invoiceDate, req.AmountCents, req.Metadata,
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.InvoiceResponse{
		InvoiceID:   invoice.ID,
		Provider:    invoice.Provider,
		InvoiceDate: invoice.InvoiceDate,
		AmountCents: invoice.AmountCents,
	})
}

// parseWindow reads the start/end RFC3339 query params, defaulting to the
// last 30 days
func (h *AdminHandler) parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidReference),
				Message: "Invalid start timestamp, expected RFC3339",
			})
			return start, end, false
		}
		start = parsed
	}
	if e := c.Query("end"); e != "" {
		parsed, err := time.Parse(time.RFC3339, e)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidReference),
				Message: "Invalid end timestamp, expected RFC3339",
			})
			return start, end, false
		}
		end = parsed
	}
	return start, end, true
}

// Reconciliation handles the GET /admin/reconciliation endpoint
func (h *AdminHandler) Reconciliation(c *gin.Context) {
	start, end, ok := h.parseWindow(c)
	if !ok {
		return
	}

	result, err := h.reporter.ReconciliationData(c.Request.Context(), start, end, c.Query("provider"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconciliationResponse{
		Start:             result.Start,
		End:               result.End,
		Provider:          result.Provider,
		RecordedCostCents: result.RecordedCostCents,
		InvoicedCents:     result.InvoicedCents,
		VarianceCents:     result.VarianceCents,
		VariancePercent:   result.VariancePercent,
		Reconciled:        result.Reconciled,
	})
}

// Analytics handles the GET /admin/analytics endpoint
func (h *AdminHandler) Analytics(c *gin.Context) {
	start, end, ok := h.parseWindow(c)
	if !ok {
		return
	}

	result, err := h.reporter.BillingAnalytics(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalyticsResponse{
		Start:                  result.Start,
		End:                    result.End,
		TotalCalls:             result.TotalCalls,
		FailedCalls:            result.FailedCalls,
		DistinctUsers:          result.DistinctUsers,
		TopupMicroCents:        result.TopupMicroCents,
		BonusMicroCents:        result.BonusMicroCents,
		ProviderCostMicroCents: result.ProviderCostMicroCents,
		FeeRevenueMicroCents:   result.FeeRevenueMicroCents,
		AdjustmentMicroCents:   result.AdjustmentMicroCents,
		GrossMarginMicroCents:  result.GrossMarginMicroCents,
	})
}
