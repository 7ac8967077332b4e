// Package client talks to the workshop HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"workshop/internal/domain/reports"
	"workshop/internal/export"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// APIClient is a resty-backed client for the /api/v1 surface.
type APIClient struct {
	http *resty.Client
}

func New(cfg Config) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/api/v1").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &APIClient{http: c}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workshop api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

// Query mirrors the ad-hoc report parameters. Zero dates are omitted.
type Query struct {
	Kind       reports.Kind
	From       time.Time
	To         time.Time
	EmployeeID string
	Mode       reports.SummaryMode
}

func (q Query) params() map[string]string {
	params := map[string]string{"kind": string(q.Kind)}
	if !q.From.IsZero() {
		params["from"] = q.From.Format("2006-01-02")
	}
	if !q.To.IsZero() {
		params["to"] = q.To.Format("2006-01-02")
	}
	if q.EmployeeID != "" {
		params["employeeId"] = q.EmployeeID
	}
	if q.Mode != "" {
		params["mode"] = string(q.Mode)
	}
	return params
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{"email": email, "password": password})
	if err := c.do(req, http.MethodPost, "/auth/login", &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	c.http.SetAuthToken(out.Token)
	return out.Token, nil
}

func (c *APIClient) Report(ctx context.Context, q Query) (reports.Report, error) {
	var out reports.Report
	req := c.http.R().SetContext(ctx).SetQueryParams(q.params())
	if err := c.do(req, http.MethodGet, "/reports", &out); err != nil {
		return reports.Report{}, fmt.Errorf("generate report: %w", err)
	}
	return out, nil
}

func (c *APIClient) EmployeeReport(ctx context.Context) (reports.Report, error) {
	var out reports.Report
	if err := c.do(c.http.R().SetContext(ctx), http.MethodGet, "/reports/employees", &out); err != nil {
		return reports.Report{}, fmt.Errorf("employee report: %w", err)
	}
	return out, nil
}

func (c *APIClient) Dashboard(ctx context.Context) (reports.DashboardSummary, error) {
	var out reports.DashboardSummary
	if err := c.do(c.http.R().SetContext(ctx), http.MethodGet, "/reports/dashboard", &out); err != nil {
		return reports.DashboardSummary{}, fmt.Errorf("dashboard: %w", err)
	}
	return out, nil
}

// Export downloads a rendered report and returns its bytes together with the
// server-suggested file name.
func (c *APIClient) Export(ctx context.Context, q Query, format export.Format) ([]byte, string, error) {
	params := q.params()
	params["format"] = string(format)
	path, kind := "/reports/export", q.Kind
	if kind == "" {
		delete(params, "kind")
		path, kind = "/reports/employees/export", reports.KindEmployeeSummary
	}
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(path)
	if err != nil {
		return nil, "", fmt.Errorf("export report: %w", err)
	}
	if resp.IsError() {
		return nil, "", decodeError(resp)
	}
	name := export.FileName(kind, format, time.Now())
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return resp.Body(), name, nil
}

func (c *APIClient) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
