package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies an AppError. Unauthorized and Forbidden together make up
// the authorization class; the split only decides 401 vs 403.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
	KindNotFound
)

// Reason codes reported to callers.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNoToken          = "NO_TOKEN"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeAccountBanned    = "ACCOUNT_BANNED"
	CodeAccountSuspended = "ACCOUNT_SUSPENDED"
	CodePendingApproval  = "PENDING_APPROVAL"

	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeOAuthUser          = "OAUTH_USER"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidDisplayName = "INVALID_DISPLAY_NAME"
	CodeIdentityCollision  = "IDENTITY_COLLISION"

	CodeEmptyContent        = "EMPTY_CONTENT"
	CodeInvalidRating       = "INVALID_RATING"
	CodeFeedbackNotFound    = "FEEDBACK_NOT_FOUND"
	CodeFeedbackUnderReview = "FEEDBACK_UNDER_REVIEW"
	CodeAlreadyLiked        = "ALREADY_LIKED"
	CodeNotLiked            = "NOT_LIKED"

	CodeMissingReason         = "MISSING_REASON"
	CodeAlreadyFlagged        = "ALREADY_FLAGGED"
	CodeFlagNotFound          = "FLAG_NOT_FOUND"
	CodeFlagNotPending        = "FLAG_NOT_PENDING"
	CodeNotStudent            = "NOT_STUDENT"
	CodeInvalidSuspensionDays = "INVALID_SUSPENSION_DAYS"

	CodeFacultyNotFound    = "FACULTY_NOT_FOUND"
	CodeNotFaculty         = "NOT_FACULTY"
	CodeApprovalNotPending = "APPROVAL_NOT_PENDING"

	CodeCategoryNotFound = "CATEGORY_NOT_FOUND"
	CodeCategoryExists   = "CATEGORY_EXISTS"
)

// AppError is a typed error carrying a reason code that the HTTP boundary
// translates into a response.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and friends keep working for typed errors.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrBadRequest, ErrInvalidInput:
		return e.Kind == KindValidation
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// WithDetail returns the error with an extra detail attached.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *AppError { return newError(KindValidation, code, message) }
func Unauthorized(code, message string) *AppError {
	return newError(KindUnauthorized, code, message)
}
func Forbidden(code, message string) *AppError { return newError(KindForbidden, code, message) }
func Conflict(code, message string) *AppError  { return newError(KindConflict, code, message) }
func NotFound(code, message string) *AppError  { return newError(KindNotFound, code, message) }

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// As extracts an AppError from err. Untyped errors become Internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// MapErrorToStatus maps an AppError kind to its HTTP status. Anything else is
// a 500.
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindValidation:
			return http.StatusBadRequest
		case KindUnauthorized:
			return http.StatusUnauthorized
		case KindForbidden:
			return http.StatusForbidden
		case KindConflict:
			return http.StatusConflict
		case KindNotFound:
			return http.StatusNotFound
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
