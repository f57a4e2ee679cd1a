package handler

import (
	"net/http"
	"strconv"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	domainerr "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/billing"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// BillingHandler handles user-facing billing HTTP requests
type BillingHandler struct {
	billingService *billing.Service
	logger         coreport.Logger
}

// NewBillingHandler creates a new billing handler instance
func NewBillingHandler(billingService *billing.Service, logger coreport.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// parseUserRef maps the :userId path segment to a tagged user reference.
// The segment is an internal numeric id by default; with ?idKind=external it
// is treated as the external identity subject verbatim.
func parseUserRef(c *gin.Context) (entity.UserRef, bool) {
	param := c.Param("userId")
	if c.Query("idKind") == "external" {
		return entity.ExternalRef(param), true
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserRef),
			Message: "Invalid user ID format",
		})
		return entity.UserRef{}, false
	}
	return entity.InternalRef(id), true
}

// idempotencyKey reads the Idempotency-Key header; empty disables the guard
func idempotencyKey(c *gin.Context) string {
	return c.GetHeader("Idempotency-Key")
}

// writeError maps a domain error to an HTTP response
func writeError(c *gin.Context, logger coreport.Logger, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case domainerr.IsValidationError(err):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case domainerr.IsNotFoundError(err):
		statusCode = http.StatusNotFound
		message = err.Error()
	case domainerr.IsPricingNotConfiguredError(err):
		statusCode = http.StatusUnprocessableEntity
		message = err.Error()
	case domainerr.IsInsufficientFundsError(err):
		statusCode = http.StatusPaymentRequired
		message = err.Error()
	case domainerr.IsConcurrencyConflictError(err):
		statusCode = http.StatusConflict
		message = err.Error()
	default:
		logger.Error("Unhandled error in API request", map[string]any{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}

// Signup handles the POST /users/signup endpoint
func (h *BillingHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserRef),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.billingService.CreateUserWithSignupCredit(
		c.Request.Context(), req.ExternalID, req.Email, req.Name, idempotencyKey(c),
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SignupResponse{
		UserID:             result.UserID,
		BalanceMicroCents:  result.BalanceMicroCents,
		CreditedMicroCents: result.CreditedMicroCents,
		Replayed:           result.Replayed,
	})
}

// GetBalance handles the GET /users/:userId/balance endpoint
func (h *BillingHandler) GetBalance(c *gin.Context) {
	ref, ok := parseUserRef(c)
	if !ok {
		return
	}

	balance, err := h.billingService.GetBalance(c.Request.Context(), ref)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:             balance.UserID,
		BalanceMicroCents:  balance.BalanceMicroCents,
		ReservedMicroCents: balance.ReservedMicroCents,
		BalanceDisplay:     entity.MicroToDisplay(balance.BalanceMicroCents),
	})
}

// BalanceCheck handles the POST /users/:userId/balance-check endpoint
func (h *BillingHandler) BalanceCheck(c *gin.Context) {
	ref, ok := parseUserRef(c)
	if !ok {
		return
	}

	var req dto.BalanceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidModelID),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.billingService.CheckSufficientBalance(
		c.Request.Context(), ref, req.ModelID,
		req.EstimatedInputTokens, req.EstimatedOutputTokens,
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceCheckResponse{
		HasSufficientBalance:     result.HasSufficientBalance,
		EstimatedCostMicroCents:  result.EstimatedCostMicroCents,
		CurrentBalanceMicroCents: result.CurrentBalanceMicroCents,
	})
}

// Topup handles the POST /users/:userId/topups endpoint. Callers are webhook
// consumers that already verified the payment with the provider.
func (h *BillingHandler) Topup(c *gin.Context) {
	ref, ok := parseUserRef(c)
	if !ok {
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidReference),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.billingService.ApplyTopup(
		c.Request.Context(), ref,
		req.AmountMicroCents, req.Provider, req.PaymentReference,
		idempotencyKey(c),
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.TopupResponse{
		TopupID:              result.TopupID,
		UserID:               result.UserID,
		AmountMicroCents:     result.AmountMicroCents,
		BonusMicroCents:      result.BonusMicroCents,
		NewBalanceMicroCents: result.NewBalanceMicroCents,
		Replayed:             result.Replayed,
	})
}

// UsageCharge handles the POST /users/:userId/usage-charges endpoint
func (h *BillingHandler) UsageCharge(c *gin.Context) {
	ref, ok := parseUserRef(c)
	if !ok {
		return
	}

	var req dto.UsageChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidModelID),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.billingService.FinalizeUsageCharge(
		c.Request.Context(), ref,
		req.ModelID, req.ProviderCallID,
		req.InputTokens, req.OutputTokens,
		idempotencyKey(c),
	)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if !result.Charged {
		// Denial is a business outcome, surfaced with the standard payment
		// required status so clients can branch without parsing the body.
		status = http.StatusPaymentRequired
	}
	c.JSON(status, dto.UsageChargeResponse{
		Charged:                result.Charged,
		UsageLogID:             result.UsageLogID,
		UserID:                 result.UserID,
		ProviderCostMicroCents: result.ProviderCostMicroCents,
		FeeMicroCents:          result.FeeMicroCents,
		TotalMicroCents:        result.TotalMicroCents,
		BalanceMicroCents:      result.BalanceMicroCents,
		Replayed:               result.Replayed,
	})
}
