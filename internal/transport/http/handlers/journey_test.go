package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"workshop/internal/app/server"
	"workshop/internal/platform/config"
)

const (
	adminEmail    = "admin@workshop.local"
	adminPassword = "ChangeMe123!"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details struct {
			Fields []struct {
				Field string `json:"field"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

type testServer struct {
	url    string
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Environment:        "test",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		SeedAdminName:      "Administrator",
		SeedAdminEmail:     adminEmail,
		SeedAdminPassword:  adminPassword,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    time.Second,
		Storage:            config.StorageConfig{Driver: config.DriverMemory},
		Reports: config.ReportsConfig{
			CurrencySuffix: "YER",
			ExportDir:      t.TempDir(),
			ExportFormat:   "txt",
		},
	}
	app, err := server.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		_ = app.Close()
	})
	return &testServer{url: ts.URL, client: ts.Client()}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.url+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

// call expects the given status and decodes the envelope data into out.
func (s *testServer) call(t *testing.T, method, path, token string, body any, status int, out any) envelope {
	t.Helper()
	resp, raw := s.do(t, method, path, token, body)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, status, resp.StatusCode, raw)
	}
	var env envelope
	if len(raw) == 0 {
		return env
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, raw)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password}, http.StatusOK, &out)
	if out.Token == "" {
		t.Fatal("expected token")
	}
	return out.Token
}

func (s *testServer) createEmployee(t *testing.T, token, name, code string) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	s.call(t, http.MethodPost, "/api/v1/employees", token, map[string]string{
		"name":         name,
		"employeeCode": code,
		"department":   "Blowing",
	}, http.StatusCreated, &out)
	return out.ID
}

type summaryReport struct {
	Meta struct {
		Kind       string `json:"kind"`
		EmployeeID string `json:"employeeId"`
	} `json:"meta"`
	Production []struct {
		EmployeeName string `json:"employeeName"`
		Cost         string `json:"cost"`
	} `json:"production"`
	Summary []struct {
		EmployeeName        string `json:"employeeName"`
		TotalProductionCost string `json:"totalProductionCost"`
		TotalPayments       string `json:"totalPayments"`
		NetSalary           string `json:"netSalary"`
	} `json:"summary"`
	Total string `json:"total"`
}

func TestPayrollReportJourney(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	aliID := srv.createEmployee(t, token, "Ali", "E-001")
	srv.createEmployee(t, token, "Omar", "E-002")

	var log struct {
		Cost string `json:"cost"`
	}
	srv.call(t, http.MethodPost, "/api/v1/production", token, map[string]any{
		"employeeRef":   aliID,
		"date":          "2024-01-15",
		"count":         10,
		"containerSize": "large",
		"processType":   "blown",
	}, http.StatusCreated, &log)
	if log.Cost != "30" {
		t.Fatalf("expected cost 30, got %s", log.Cost)
	}
	srv.call(t, http.MethodPost, "/api/v1/payments", token, map[string]any{
		"employeeRef": aliID,
		"date":        "2024-01-20",
		"amount":      10,
		"notes":       "advance",
	}, http.StatusCreated, nil)

	var report summaryReport
	srv.call(t, http.MethodGet, "/api/v1/reports?kind=employee_summary&from=2024-01-01&to=2024-01-31&employeeId=all", token, nil, http.StatusOK, &report)
	if len(report.Summary) != 1 {
		t.Fatalf("expected only the active employee, got %d rows", len(report.Summary))
	}
	row := report.Summary[0]
	if row.EmployeeName != "Ali" || row.TotalProductionCost != "30" || row.TotalPayments != "10" || row.NetSalary != "20" {
		t.Fatalf("unexpected summary row: %+v", row)
	}
	if report.Total != "20" || report.Meta.EmployeeID != "all" {
		t.Fatalf("unexpected report totals: %+v", report)
	}

	var all summaryReport
	srv.call(t, http.MethodGet, "/api/v1/reports?kind=employee_summary&mode=include_all", token, nil, http.StatusOK, &all)
	if len(all.Summary) != 2 || all.Summary[0].EmployeeName != "Ali" || all.Summary[1].NetSalary != "0" {
		t.Fatalf("expected idle employee listed last, got %+v", all.Summary)
	}

	resp, body := srv.do(t, http.MethodGet, "/api/v1/reports/export?kind=employee_summary&from=2024-01-01&to=2024-01-31&format=txt", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected export 200, got %d: %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment disposition, got %q", resp.Header.Get("Content-Disposition"))
	}
	if !strings.Contains(string(body), "Ali") || !strings.Contains(string(body), "20 YER") {
		t.Fatalf("export missing expected content:\n%s", body)
	}

	resp, body = srv.do(t, http.MethodGet, "/api/v1/reports/employees/export?format=pdf", token, nil)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected pdf export, got %d", resp.StatusCode)
	}

	var dashboard struct {
		TotalCost string `json:"totalCost"`
		TotalNet  string `json:"totalNet"`
	}
	srv.call(t, http.MethodGet, "/api/v1/reports/dashboard", token, nil, http.StatusOK, &dashboard)
	if dashboard.TotalCost != "30" || dashboard.TotalNet != "20" {
		t.Fatalf("unexpected dashboard: %+v", dashboard)
	}

	// deleting the employee keeps their records under a placeholder name
	srv.call(t, http.MethodDelete, "/api/v1/employees/"+aliID, token, nil, http.StatusNoContent, nil)
	var production summaryReport
	srv.call(t, http.MethodGet, "/api/v1/reports?kind=production", token, nil, http.StatusOK, &production)
	if len(production.Production) != 1 || production.Production[0].EmployeeName != "deleted employee" {
		t.Fatalf("expected orphaned log under placeholder, got %+v", production.Production)
	}
}

func TestReportPermissions(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login(t, adminEmail, adminPassword)

	srv.call(t, http.MethodGet, "/api/v1/reports?kind=production", "", nil, http.StatusUnauthorized, nil)

	var created struct {
		ID string `json:"id"`
	}
	srv.call(t, http.MethodPost, "/api/v1/users", admin, map[string]any{
		"name":        "Clerk",
		"email":       "clerk@workshop.local",
		"password":    "clerk-pass",
		"role":        "user",
		"permissions": []string{"create"},
	}, http.StatusCreated, &created)
	clerk := srv.login(t, "clerk@workshop.local", "clerk-pass")

	srv.call(t, http.MethodGet, "/api/v1/reports?kind=production", clerk, nil, http.StatusForbidden, nil)
	srv.call(t, http.MethodGet, "/api/v1/users", clerk, nil, http.StatusForbidden, nil)
	employeeID := srv.createEmployee(t, clerk, "Sara", "E-010")
	srv.call(t, http.MethodDelete, "/api/v1/employees/"+employeeID, clerk, nil, http.StatusForbidden, nil)

	srv.call(t, http.MethodGet, "/api/v1/reports?kind=bogus", admin, nil, http.StatusBadRequest, nil)
	srv.call(t, http.MethodGet, "/api/v1/reports/export?kind=production&format=docx", admin, nil, http.StatusBadRequest, nil)

	srv.call(t, http.MethodGet, "/api/v1/me", clerk, nil, http.StatusOK, nil)
	srv.call(t, http.MethodDelete, "/api/v1/users/"+created.ID, admin, nil, http.StatusNoContent, nil)
	srv.call(t, http.MethodGet, "/api/v1/me", clerk, nil, http.StatusUnauthorized, nil)
	srv.call(t, http.MethodPost, "/api/v1/employees", clerk, map[string]string{
		"name": "Late", "employeeCode": "E-011", "department": "Blowing",
	}, http.StatusUnauthorized, nil)
}

func TestProductionValidationAndCostPreview(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	env := srv.call(t, http.MethodPost, "/api/v1/production", token, map[string]any{
		"employeeRef":   "missing",
		"date":          "2024-01-15",
		"count":         0,
		"containerSize": "medium",
		"processType":   "blown",
	}, http.StatusBadRequest, nil)
	fields := map[string]bool{}
	for _, f := range env.Error.Details.Fields {
		fields[f.Field] = true
	}
	if !fields["count"] || !fields["containerSize"] {
		t.Fatalf("expected count and containerSize issues, got %+v", env.Error.Details.Fields)
	}

	srv.call(t, http.MethodPost, "/api/v1/production", token, map[string]any{
		"employeeRef": "x", "date": "15/01/2024", "count": 1, "containerSize": "small", "processType": "rolled",
	}, http.StatusBadRequest, nil)

	var preview struct {
		Multiplier int    `json:"multiplier"`
		Cost       string `json:"cost"`
	}
	srv.call(t, http.MethodPost, "/api/v1/production/cost", token, map[string]any{
		"count": 4, "containerSize": "large", "processType": "rolled",
	}, http.StatusOK, &preview)
	if preview.Multiplier != 2 || preview.Cost != "8" {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	env = srv.call(t, http.MethodPost, "/api/v1/production/cost", token, map[string]any{
		"count": -5, "containerSize": "large", "processType": "pressed",
	}, http.StatusBadRequest, nil)
	fields = map[string]bool{}
	for _, f := range env.Error.Details.Fields {
		fields[f.Field] = true
	}
	if !fields["count"] || !fields["processType"] {
		t.Fatalf("expected count and processType issues on preview, got %+v", env.Error.Details.Fields)
	}
}

func TestReportExportJobAndHealth(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	resp, _ := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
	resp, _ = srv.do(t, http.MethodGet, "/readyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected readyz 200, got %d", resp.StatusCode)
	}

	var result struct {
		Path string `json:"path"`
	}
	srv.call(t, http.MethodPost, "/api/v1/jobs/report-export", token, nil, http.StatusCreated, &result)
	if !strings.HasSuffix(result.Path, ".txt") {
		t.Fatalf("expected txt export path, got %q", result.Path)
	}
	var runs []struct {
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	srv.call(t, http.MethodGet, "/api/v1/jobs/runs", token, nil, http.StatusOK, &runs)
	if len(runs) != 1 || runs[0].Status != "completed" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	var snapshot map[string]any
	srv.call(t, http.MethodGet, "/metrics", token, nil, http.StatusOK, &snapshot)
	if snapshot["jobsCompletedTotal"] == nil {
		t.Fatalf("expected job metrics, got %+v", snapshot)
	}
}

func TestDashboardStreamPushesUpdates(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.url+"/api/v1/reports/dashboard/stream?access_token="+token, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := srv.client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected stream 200, got %d", resp.StatusCode)
	}
	reader := bufio.NewReader(resp.Body)

	next := func() map[string]any {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var summary map[string]any
				if err := json.Unmarshal([]byte(data), &summary); err != nil {
					t.Fatalf("decode event: %v", err)
				}
				return summary
			}
		}
	}

	first := next()
	if first["totalEmployees"] != float64(0) {
		t.Fatalf("expected empty dashboard, got %+v", first)
	}
	srv.createEmployee(t, token, "Ali", "E-001")
	for {
		if next()["totalEmployees"] == float64(1) {
			return
		}
	}
}

func TestListingFiltersAndPagination(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	first := srv.createEmployee(t, token, "Ali", "E-001")
	second := srv.createEmployee(t, token, "Omar", "E-002")
	for _, entry := range []struct {
		ref  string
		date string
	}{{first, "2024-01-05"}, {second, "2024-01-31"}, {first, "2024-02-01"}} {
		srv.call(t, http.MethodPost, "/api/v1/production", token, map[string]any{
			"employeeRef": entry.ref, "date": entry.date, "count": 1, "containerSize": "small", "processType": "blown",
		}, http.StatusCreated, nil)
	}

	var employees []struct {
		Name string `json:"name"`
	}
	srv.call(t, http.MethodGet, "/api/v1/employees?limit=1&offset=1", token, nil, http.StatusOK, &employees)
	if len(employees) != 1 || employees[0].Name != "Omar" {
		t.Fatalf("unexpected page: %+v", employees)
	}

	var logs []struct {
		EmployeeRef string `json:"employeeRef"`
	}
	srv.call(t, http.MethodGet, "/api/v1/production?from=2024-01-01&to=2024-01-31", token, nil, http.StatusOK, &logs)
	if len(logs) != 2 {
		t.Fatalf("expected the last day of the window to be included, got %d logs", len(logs))
	}
	srv.call(t, http.MethodGet, "/api/v1/production?employeeId="+first, token, nil, http.StatusOK, &logs)
	if len(logs) != 2 || logs[0].EmployeeRef != first {
		t.Fatalf("unexpected employee filter result: %+v", logs)
	}

	env := srv.call(t, http.MethodGet, "/api/v1/reports?kind=production&from=01-2024", token, nil, http.StatusBadRequest, nil)
	if len(env.Error.Details.Fields) != 1 || env.Error.Details.Fields[0].Field != "from" {
		t.Fatalf("expected from issue, got %+v", env.Error)
	}

	var inverted summaryReport
	srv.call(t, http.MethodGet, "/api/v1/reports?kind=production&from=2024-02-01&to=2024-01-01", token, nil, http.StatusOK, &inverted)
	if len(inverted.Production) != 0 || inverted.Total != "0" {
		t.Fatalf("expected empty report for inverted range, got %+v", inverted)
	}
}
