package entity

import "time"

// OperationType names the guarded operation an idempotency key belongs to
type OperationType string

// Guarded operation types
const (
	OpSignupCredit OperationType = "signup_credit"
	OpTopup        OperationType = "topup"
	OpUsageCharge  OperationType = "usage_charge"
	OpAdminAdjust  OperationType = "admin_adjust"
)

// IdempotencyRecord maps a caller-supplied key to the result of a completed
// operation. Written exactly once, inside the same atomic unit as the
// operation's side effects; replays with the same key are read-only lookups
// that reconstruct the response from the referenced entity.
type IdempotencyRecord struct {
	Key             string
	OperationType   OperationType
	UserID          int64
	ResultReference int64
	CreatedAt       time.Time
}
