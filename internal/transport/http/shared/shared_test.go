package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
	"workshop/internal/domain/validation"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2024-01-31T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	got, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Page(items, Pagination{}))
	assert.Equal(t, []int{2, 3}, Page(items, Pagination{Limit: 2, Offset: 1}))
	assert.Equal(t, []int{}, Page(items, Pagination{Offset: 9}))

	r := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=2", nil)
	assert.Equal(t, Pagination{Limit: 100, Offset: 2}, ParsePagination(r, 100))
}

func TestValidatorDates(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Date("from", "").IsZero())
	v.Date("to", "yesterday")
	v.Date("date", "15/01/2024")
	require.True(t, v.HasIssues())

	fields := map[string]bool{}
	for _, issue := range v.Issues() {
		fields[issue.Field] = true
	}
	assert.Equal(t, map[string]bool{"to": true, "date": true}, fields)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ali"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "Ali", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.True(t, errors.Is(DecodeJSON(r, &dst), ErrInvalidJSON))
}

func TestWriteErrorStatus(t *testing.T) {
	verr := &validation.Error{Issues: []validation.Issue{{Field: "count", Reason: "must be at least 1"}}}
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{verr, http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("create: %w", auth.ErrForbidden), http.StatusForbidden, "forbidden"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{payroll.ErrEmployeeNotFound, http.StatusNotFound, "not_found"},
		{auth.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.err, "req-1")
		assert.Equal(t, tc.status, rec.Code, tc.code)

		var body struct {
			Success bool `json:"success"`
			Error   struct {
				Code    string `json:"code"`
				Details struct {
					Fields []ValidationIssue `json:"fields"`
				} `json:"details"`
			} `json:"error"`
			RequestID string `json:"requestId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.Error.Code)
		assert.Equal(t, "req-1", body.RequestID)
		if tc.code == "validation_error" {
			require.Len(t, body.Error.Details.Fields, 1)
			assert.Equal(t, "count", body.Error.Details.Fields[0].Field)
		}
	}
}
