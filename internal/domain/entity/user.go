package entity

import (
	"strings"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
)

// UserStatus defines the lifecycle status of a billing user
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// UserRefKind distinguishes internal billing ids from external identity
// subjects. Callers always say which one they are passing; the engine never
// guesses from the shape of the string.
type UserRefKind string

const (
	RefInternal UserRefKind = "internal"
	RefExternal UserRefKind = "external"
)

// UserRef is a tagged reference to a billing user.
type UserRef struct {
	Kind       UserRefKind
	InternalID int64
	ExternalID string
}

// InternalRef builds a reference from an internal billing id.
func InternalRef(id int64) UserRef {
	return UserRef{Kind: RefInternal, InternalID: id}
}

// ExternalRef builds a reference from an external identity subject.
func ExternalRef(subject string) UserRef {
	return UserRef{Kind: RefExternal, ExternalID: subject}
}

// Validate checks that the reference carries the field its tag promises.
func (r UserRef) Validate() error {
	switch r.Kind {
	case RefInternal:
		if r.InternalID <= 0 {
			return errs.ErrInvalidUserRef
		}
	case RefExternal:
		if strings.TrimSpace(r.ExternalID) == "" {
			return errs.ErrInvalidUserRef
		}
	default:
		return errs.ErrInvalidUserRef
	}
	return nil
}

// BillingUser links an external identity to an internal billing id.
// Created on first billing interaction for a given external id and never
// deleted. The two credit flags are monotone: they only ever move from
// false to true.
type BillingUser struct {
	ID                    int64
	ExternalID            string
	Email                 string
	Name                  string
	ReceivedSignupCredit  bool
	FirstPaidTopupApplied bool
	Status                UserStatus
	CreatedAt             time.Time
}

// NewBillingUser creates an active billing user for an external identity.
func NewBillingUser(id int64, externalID, email, name string, timeProvider coreport.TimeProvider) (*BillingUser, error) {
	if id <= 0 {
		return nil, errs.ErrInvalidUserRef
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, errs.ErrInvalidUserRef
	}

	return &BillingUser{
		ID:         id,
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		Status:     UserStatusActive,
		CreatedAt:  timeProvider.Now(),
	}, nil
}

// MarkSignupCreditReceived flips the signup credit flag. One-way.
func (u *BillingUser) MarkSignupCreditReceived() {
	u.ReceivedSignupCredit = true
}

// MarkFirstPaidTopupApplied flips the first-topup bonus flag. One-way.
func (u *BillingUser) MarkFirstPaidTopupApplied() {
	u.FirstPaidTopupApplied = true
}
