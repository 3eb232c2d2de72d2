package leavetypeerrors

import (
	"net/http"

	"go-tenantops/internal/shared/apperror"
)

var (
	ErrInvalidTenantID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid tenant id",
		http.StatusBadRequest,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave type not found",
		http.StatusNotFound,
	)
	ErrCodeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"leave type code already exists for this tenant",
		http.StatusConflict,
	)
	ErrInvalidCalculationMethod = apperror.New(
		apperror.CodeInvalidInput,
		"calculation_method must be one of annual, accrual, manual",
		http.StatusBadRequest,
	)
	ErrLeaveTypeInactive = apperror.New(
		apperror.CodeInvalidState,
		"leave type is deactivated",
		http.StatusBadRequest,
	)
	ErrLeaveTypeReferenced = apperror.New(
		apperror.CodeInvalidState,
		"leave type is referenced by balances or requests and can only be deactivated",
		http.StatusBadRequest,
	)
)
