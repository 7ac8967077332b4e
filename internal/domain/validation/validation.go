// Package validation collects field-scoped problems found at the boundary
// where records are created or edited.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s %s", issue.Field, issue.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of all failing fields.
func (e *Error) Fields() []string {
	out := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		out = append(out, issue.Field)
	}
	return out
}

// As unwraps err into a validation error.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

type Collector struct {
	issues []Issue
}

func (c *Collector) Add(field, reason string) {
	c.issues = append(c.issues, Issue{Field: field, Reason: reason})
}

func (c *Collector) MinLength(field, value string, min int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		c.Add(field, fmt.Sprintf("must be at least %d characters", min))
	}
}

func (c *Collector) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.Add(field, "is required")
	}
}

func (c *Collector) Email(field, value string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		c.Add(field, "must be a valid email address")
	}
}

func (c *Collector) Enum(field, value string, allowed ...string) {
	for _, candidate := range allowed {
		if value == candidate {
			return
		}
	}
	c.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

func (c *Collector) HasIssues() bool {
	return len(c.issues) > 0
}

// Err returns nil when nothing was collected.
func (c *Collector) Err() error {
	if len(c.issues) == 0 {
		return nil
	}
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return &Error{Issues: out}
}
