// Package common holds sentinel errors and constants shared by the server
// layers. Callers match the errors with errors.Is.
package common

import "errors"

var (
	// repository errors
	ErrNotFound      = errors.New("not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrAlreadyExists = errors.New("already exists")

	// ErrQuotaExhausted is returned by conditional quota updates that lost
	// the race for the single free itinerary.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// service errors
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrExportDisabled = errors.New("export storage is not configured")

	// billing errors
	ErrBillingDisabled    = errors.New("billing is not configured")
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)
