package utils

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")

	// ErrUsageRecordNotFound is returned by the atomic increment path when no
	// usage row exists for the (user, feature) key. That means provisioning
	// was skipped upstream; it is not retried.
	ErrUsageRecordNotFound = errors.New("usage record not found")
	ErrUsageRecordExists   = errors.New("usage record already exists")

	// ErrQuotaExceeded is returned by transactional writes that enforce a
	// hard cap (e.g. product creation). Plain ValidateFeatureAccess reports
	// denial as a result value instead.
	ErrQuotaExceeded      = errors.New("usage limit exceeded")
	ErrFeatureUnavailable = errors.New("feature not available on current plan")

	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")
)
