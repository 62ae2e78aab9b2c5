// Package errors renders failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is an RFC 7807 problem document.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy carrying detail.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with key set in the extension members.
// The receiver's map is never written.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"
)

var (
	ErrNotFound = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	// ErrValidation covers requests that parsed but broke a business rule.
	ErrValidation   = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest   = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	ErrConflict     = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}
	ErrInternal     = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
	ErrUnauthorized = ProblemDetail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden    = ProblemDetail{Type: TypeForbidden, Title: "Forbidden", Status: http.StatusForbidden}
)

// NewValidationProblem reports field-level failures under the "fields" extension.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewNotFoundProblem names the missing resource.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s %v not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}
