package shared

import (
	"net/http"
	"strings"
	"time"

	"workshop/internal/domain/validation"
	"workshop/internal/transport/http/api"
)

type ValidationIssue = validation.Issue

// Validator collects query and path problems before a request reaches the
// domain layer.
type Validator struct {
	validation.Collector
}

func NewValidator() *Validator {
	return &Validator{}
}

// Date parses an optional date. An empty value is the zero time.
func (v *Validator) Date(field, raw string) time.Time {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}

func (v *Validator) Issues() []ValidationIssue {
	err := v.Err()
	if err == nil {
		return nil
	}
	verr, _ := validation.As(err)
	return verr.Issues
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
