package dto

// SignupRequest represents the API request for creating a billing user with
// the signup credit
type SignupRequest struct {
	ExternalID string `json:"externalId" binding:"required"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// SignupResponse represents the API response for a signup
type SignupResponse struct {
	UserID             int64 `json:"userId"`
	BalanceMicroCents  int64 `json:"balanceMicroCents"`
	CreditedMicroCents int64 `json:"creditedMicroCents"`
	Replayed           bool  `json:"replayed"`
}

// BalanceResponse represents the API response for a balance read
type BalanceResponse struct {
	UserID             int64  `json:"userId"`
	BalanceMicroCents  int64  `json:"balanceMicroCents"`
	ReservedMicroCents int64  `json:"reservedMicroCents"`
	BalanceDisplay     string `json:"balanceDisplay"`
}

// BalanceCheckRequest represents the API request for a pre-flight estimate
type BalanceCheckRequest struct {
	ModelID               string `json:"modelId" binding:"required"`
	EstimatedInputTokens  int64  `json:"estimatedInputTokens"`
	EstimatedOutputTokens int64  `json:"estimatedOutputTokens"`
}

// BalanceCheckResponse represents the API response for a pre-flight estimate
type BalanceCheckResponse struct {
	HasSufficientBalance     bool  `json:"hasSufficientBalance"`
	EstimatedCostMicroCents  int64 `json:"estimatedCostMicroCents"`
	CurrentBalanceMicroCents int64 `json:"currentBalanceMicroCents"`
}

// TopupRequest represents the API request for applying a confirmed payment
type TopupRequest struct {
	AmountMicroCents int64  `json:"amountMicroCents" binding:"required"`
	Provider         string `json:"provider" binding:"required"`
	PaymentReference string `json:"paymentReference" binding:"required"`
}

// TopupResponse represents the API response for an applied topup
type TopupResponse struct {
	TopupID              int64 `json:"topupId"`
	UserID               int64 `json:"userId"`
	AmountMicroCents     int64 `json:"amountMicroCents"`
	BonusMicroCents      int64 `json:"bonusMicroCents"`
	NewBalanceMicroCents int64 `json:"newBalanceMicroCents"`
	Replayed             bool  `json:"replayed"`
}

// UsageChargeRequest represents the API request for finalizing a metered call
type UsageChargeRequest struct {
	ModelID        string `json:"modelId" binding:"required"`
	ProviderCallID string `json:"providerCallId"`
	InputTokens    int64  `json:"inputTokens"`
	OutputTokens   int64  `json:"outputTokens"`
}

// UsageChargeResponse represents the API response for a finalized charge
type UsageChargeResponse struct {
	Charged                bool  `json:"charged"`
	UsageLogID             int64 `json:"usageLogId"`
	UserID                 int64 `json:"userId"`
	ProviderCostMicroCents int64 `json:"providerCostMicroCents"`
	FeeMicroCents          int64 `json:"feeMicroCents"`
	TotalMicroCents        int64 `json:"totalMicroCents"`
	BalanceMicroCents      int64 `json:"balanceMicroCents"`
	Replayed               bool  `json:"replayed"`
}
