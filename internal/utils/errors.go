package utils

import "errors"

// Common application errors used across services.
var (
	ErrGuideNotFound        = errors.New("GUIDE_NOT_FOUND")
	ErrOrderNotFound        = errors.New("ORDER_NOT_FOUND")
	ErrDuplicateOrderRef    = errors.New("DUPLICATE_ORDER_REF")
	ErrDuplicateSlug        = errors.New("DUPLICATE_SLUG")
	ErrTransitionConflict   = errors.New("TRANSITION_CONFLICT")
	ErrCancelReasonRequired = errors.New("CANCEL_REASON_REQUIRED")
	ErrCancelReasonTooLong  = errors.New("CANCEL_REASON_TOO_LONG")
	ErrOverrideNoteRequired = errors.New("OVERRIDE_NOTE_REQUIRED")
	ErrTierTableInvalid     = errors.New("TIER_TABLE_INVALID")
	ErrNoTiersConfigured    = errors.New("NO_TIERS_CONFIGURED")
)
