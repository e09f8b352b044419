// Package common defines shared constants and sentinel errors used across
// the voucher service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrorCollision = errors.New("uniqueness collision")

	// Service-level errors.
	ErrorIssuanceExhausted = errors.New("voucher generation attempts exhausted")

	// Device-side error. The voucher row survives this; only the RouterOS
	// account is missing and can be created later.
	ErrorProvisioning = errors.New("provisioning error")
)
