package leaveerrors

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
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start date must be before or equal to end date",
		http.StatusBadRequest,
	)
	ErrPastStartDate = apperror.New(
		apperror.CodeInvalidInput,
		"cannot request leave for past dates",
		http.StatusBadRequest,
	)
	ErrHalfDaySingleDay = apperror.New(
		apperror.CodeInvalidInput,
		"half-day requests must start and end on the same date",
		http.StatusBadRequest,
	)
	ErrHoursRequired = apperror.New(
		apperror.CodeInvalidInput,
		"requested hours are required for hourly requests",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"operation not permitted from the request's current status",
		http.StatusBadRequest,
	)
	ErrInsufficientNotice = apperror.New(
		apperror.CodeInvalidInput,
		"minimum notice period not met",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrOverlappingRequest = apperror.New(
		apperror.CodeConflict,
		"an overlapping leave request already exists",
		http.StatusConflict,
	)
	ErrNotAuthorized = apperror.New(
		apperror.CodeForbidden,
		"you are not authorized to act on this request at its current approval level",
		http.StatusForbidden,
	)
	ErrCommentsRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comments are required when rejecting a request",
		http.StatusBadRequest,
	)
	ErrMinimumServiceNotMet = apperror.New(
		apperror.CodeInvalidState,
		"employee has not completed the minimum service period for this leave type",
		http.StatusBadRequest,
	)
	ErrProbationNotEligible = apperror.New(
		apperror.CodeInvalidState,
		"this leave type is not available during probation",
		http.StatusBadRequest,
	)
	ErrGenderRestricted = apperror.New(
		apperror.CodeInvalidState,
		"this leave type is restricted to a different gender",
		http.StatusBadRequest,
	)
	ErrMaxConsecutiveExceeded = apperror.New(
		apperror.CodeInvalidInput,
		"request exceeds the maximum consecutive days for this leave type",
		http.StatusBadRequest,
	)
)
