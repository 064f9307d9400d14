package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

func (s *StructuredError) Empty() bool {
	return len(s.Errors) == 0
}

var (
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Malformed request body")
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error")
	NotFoundError       = NewSimple(http.StatusNotFound, "Resource not found")

	UnauthorizedError     = NewSimple(http.StatusUnauthorized, "Authentication required")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, "Invalid or expired session")
	UserMissingPermsError = NewSimple(http.StatusForbidden, "You do not have permission to perform this action")
	InactiveUserError     = NewSimple(http.StatusForbidden, "User is not active")

	InvalidRUTError        = NewSimple(http.StatusBadRequest, "The provided RUT is invalid")
	MissingEvidenceError   = NewSimple(http.StatusBadRequest, "A multipart 'file' field is required")
	MissingFileNameError   = NewSimple(http.StatusBadRequest, "Uploaded file must have a name")
	EmptyBulkError         = NewSimple(http.StatusBadRequest, "At least one finding is required")
	DuplicateCodeError     = NewSimple(http.StatusConflict, "A record with this code already exists")
	CodeExhaustedError     = NewSimple(http.StatusConflict, "Could not allocate a unique code, try again")
	DuplicateFindingError  = NewSimple(http.StatusConflict, "This checklist item was already evaluated in the audit")
	FindingCompliantError  = NewSimple(http.StatusConflict, "Non-conformities can only be raised from non-compliant findings")
	FindingHasNCError      = NewSimple(http.StatusConflict, "This finding already has a non-conformity")
	NCAlreadyClosedError   = NewSimple(http.StatusConflict, "Non-conformity is already closed")
	NCOpenActionsError     = NewSimple(http.StatusConflict, "Non-conformity has corrective actions that are not completed or verified")
	ResourceBusyError      = NewSimple(http.StatusConflict, "Resource is being modified by another request, try again")
	AnalysisNotFoundError  = NewSimple(http.StatusNotFound, "Audit has not been analysed yet")
	AnalysisAbortedError   = NewSimple(http.StatusServiceUnavailable, "Analysis was aborted before completion")
	StorageDisabledError   = NewSimple(http.StatusServiceUnavailable, "Evidence storage is not configured")
	SeedForbiddenError     = NewSimple(http.StatusForbidden, "Seeding requires an administrator once users exist")
	EmailTakenError        = NewSimple(http.StatusConflict, "Email already exists")
	RUTTakenError          = NewSimple(http.StatusConflict, "A company with this RUT already exists")
	IdentityProviderError  = NewSimple(http.StatusBadGateway, "Identity provider rejected the invitation")
	ReportGenerationError  = NewSimple(http.StatusInternalServerError, "Failed to generate report")
	MalformedPaginationErr = NewSimple(http.StatusBadRequest, "Parameters 'page' and 'pageSize' must be positive integers")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := lowerFirst(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "oneof":
			problems[field] = append(problems[field], "Value must be one of: "+fe.Param())
		case "email":
			problems[field] = append(problems[field], "Value must be a valid email address")
		case "url":
			problems[field] = append(problems[field], "Value must be a valid URL")
		case "rut":
			problems[field] = append(problems[field], "Value must be a valid Chilean RUT")
		case "norm":
			problems[field] = append(problems[field], "Value must be one of: ISO9001 ISO45001 ISO14001")
		case "nodupes":
			problems[field] = append(problems[field], "Values must not repeat")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

// NewFieldError is a shortcut for a single field-level 400.
func NewFieldError(field, problem string) *StructuredError {
	s := NewStructured(http.StatusBadRequest)
	s.Add(field, problem)
	return s
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewPermissionError(perm int64) *APIError {
	return NewSimple(http.StatusForbidden, "Missing required permission: %d", perm)
}

func NewForbiddenError(msg string) *APIError {
	return NewSimple(http.StatusForbidden, "Forbidden: %s", msg)
}

func NewInvalidTransitionError(from, to string) *APIError {
	return NewSimple(http.StatusConflict, "Audit cannot move from %s to %s", from, to)
}

func NewEvidenceTooLargeError(maxBytes int64) *APIError {
	return NewSimple(http.StatusRequestEntityTooLarge, "Evidence files must be at most %d MB", maxBytes/1024/1024)
}

func NewInvalidFileExtError(ext string) *APIError {
	return NewSimple(http.StatusBadRequest, "File extension '%s' is not accepted as evidence", ext)
}

// lowerFirst turns validator field names (struct names) into the camelCase
// names used on the wire, e.g. "CompanyID" -> "companyID", "Norms[0]" -> "norms[0]".
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
