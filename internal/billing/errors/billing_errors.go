package billingerrors

import (
	"net/http"

	"go-tenantops/internal/shared/apperror"
)

var (
	ErrSubscriptionNotFound = apperror.New(
		apperror.CodeNotFound,
		"subscription not found",
		http.StatusNotFound,
	)
	ErrRetryNotFound = apperror.New(
		apperror.CodeNotFound,
		"retry schedule row not found",
		http.StatusNotFound,
	)
	ErrRetryAlreadyClaimed = apperror.New(
		apperror.CodeConflict,
		"retry row was claimed by another scheduler instance",
		http.StatusConflict,
	)
	ErrNoSavedCard = apperror.New(
		apperror.CodeInvalidState,
		"subscription has no saved card token",
		http.StatusBadRequest,
	)
	ErrSubscriptionInactive = apperror.New(
		apperror.CodeInvalidState,
		"subscription is no longer active",
		http.StatusBadRequest,
	)
)
