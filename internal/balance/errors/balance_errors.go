package balanceerrors

import (
	"net/http"

	"go-tenantops/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found for this year",
		http.StatusNotFound,
	)
	ErrInvalidQuantity = apperror.New(
		apperror.CodeInvalidInput,
		"quantity must be a positive number of days",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
)
