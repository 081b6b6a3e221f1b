package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staffledger/backend/internal/domain"
	"staffledger/backend/internal/service"
	"staffledger/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.New()
	err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "admin",
		Password:  "admin-secret",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	svc := service.New(repo, nil, nil, time.Minute, time.Millisecond)
	auth := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, repo)
	return New(svc, auth, "http://127.0.0.1:3000").Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:54321"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func createStaff(t *testing.T, handler http.Handler, token, name string) string {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"role":"staff"}`, name)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/staff", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create staff returned %d: %s", rec.Code, rec.Body.String())
	}

	var member domain.StaffMember
	if err := json.Unmarshal(rec.Body.Bytes(), &member); err != nil {
		t.Fatalf("decode staff: %v", err)
	}
	return member.ID
}

func TestHealthz(t *testing.T) {
	handler := newTestAPI(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	handler := newTestAPI(t)

	paths := []string{"/api/v1/staff", "/api/v1/dashboard/salary", "/api/v1/audit-logs", "/api/v1/users"}
	for _, path := range paths {
		rec := doRequest(t, handler, http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestStaffCreateAndUpdate(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")

	staffID := createStaff(t, handler, token, "Budi Hartono")

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/staff/"+staffID, token, `{"name":"Budi H."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch returned %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.StaffMember
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode staff: %v", err)
	}
	if updated.Name != "Budi H." {
		t.Fatalf("expected renamed staff, got %q", updated.Name)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/staff", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var list domain.StaffListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Staff) != 1 {
		t.Fatalf("expected 1 staff member, got %d", len(list.Staff))
	}
}

func TestEntitlementPaymentsAndCalculation(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")
	staffID := createStaff(t, handler, token, "Sari Wulandari")

	firstOfMonth := time.Now().UTC().Format("2006-01") + "-01"
	entBody := fmt.Sprintf(`{"monthly_salary":"1000","effective_date":%q,"note":"starting rate"}`, firstOfMonth)
	rec := doRequest(t, handler, http.MethodPut, "/api/v1/staff/"+staffID+"/entitlement", token, entBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("set entitlement returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/staff/"+staffID+"/payments", token, `{"amount":"250","type":"regular"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record payment returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/staff/"+staffID+"/calculation", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("calculation returned %d: %s", rec.Code, rec.Body.String())
	}
	var calc domain.CalculationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &calc); err != nil {
		t.Fatalf("decode calculation: %v", err)
	}
	if got := calc.Calculation.CurrentMonthTotal.String(); got != "250" {
		t.Fatalf("expected current month total 250, got %s", got)
	}
	if got := calc.Calculation.AvailableThisMonth.String(); got != "750" {
		t.Fatalf("expected available 750, got %s", got)
	}
}

func TestFineIsStoredNegative(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")
	staffID := createStaff(t, handler, token, "Agus Prasetyo")

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/staff/"+staffID+"/payments", token, `{"amount":"100","type":"fine","note":"late register"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record fine returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.PaymentRecordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if got := resp.Transaction.Amount.String(); got != "-100" {
		t.Fatalf("expected stored amount -100, got %s", got)
	}
}

func TestPaymentValidation(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")
	staffID := createStaff(t, handler, token, "Dewi Lestari")

	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"amount":"0","type":"regular"}`},
		{"negative amount", `{"amount":"-50","type":"regular"}`},
		{"unknown type", `{"amount":"50","type":"gift"}`},
		{"bad date", `{"amount":"50","type":"regular","date":"31-12-2025"}`},
	}
	for _, tc := range cases {
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/staff/"+staffID+"/payments", token, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d: %s", tc.name, rec.Code, rec.Body.String())
		}
	}
}

func TestStaffRoleCannotMutate(t *testing.T) {
	handler := newTestAPI(t)
	adminToken := loginAs(t, handler, "admin", "admin-secret")

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/users", adminToken, `{"username":"kasir1","password":"secret123","role":"staff"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user returned %d: %s", rec.Code, rec.Body.String())
	}
	staffToken := loginAs(t, handler, "kasir1", "secret123")

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/staff", staffToken, `{"name":"Intruder","role":"staff"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff-role create, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/audit-logs", staffToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff-role audit access, got %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/staff", staffToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("staff role should read the directory, got %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")
	staffID := createStaff(t, handler, token, "Budi Hartono")

	entBody := `{"monthly_salary":"2000","effective_date":"","note":""}`
	rec := doRequest(t, handler, http.MethodPut, "/api/v1/staff/"+staffID+"/entitlement", token, entBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("set entitlement returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/dashboard/salary", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", rec.Code, rec.Body.String())
	}
	var dashboard domain.SalaryDashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &dashboard); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if len(dashboard.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(dashboard.Rows))
	}
	if dashboard.Summary.StaffCount != 1 {
		t.Fatalf("expected staff count 1, got %d", dashboard.Summary.StaffCount)
	}
	if got := dashboard.Summary.TotalMonthlySalary.String(); got != "2000" {
		t.Fatalf("expected total salary 2000, got %s", got)
	}
	if dashboard.PayCycleWeek < 1 || dashboard.PayCycleWeek > 5 {
		t.Fatalf("pay cycle week out of range: %d", dashboard.PayCycleWeek)
	}
}

func TestAuditLogsRecordMutations(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")
	staffID := createStaff(t, handler, token, "Rina Kusuma")

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/staff/"+staffID+"/payments", token, `{"amount":"75","type":"bonus"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record payment returned %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/audit-logs?limit=10", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit logs returned %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		AuditLogs []domain.AuditLog `json:"audit_logs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode audit logs: %v", err)
	}
	if len(payload.AuditLogs) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(payload.AuditLogs))
	}
	// Newest first.
	if payload.AuditLogs[0].Action != "payment_record" {
		t.Fatalf("expected payment_record first, got %q", payload.AuditLogs[0].Action)
	}
	if payload.AuditLogs[0].ActorUsername != "admin" {
		t.Fatalf("expected actor admin, got %q", payload.AuditLogs[0].ActorUsername)
	}
}

func TestLoginRateLimit(t *testing.T) {
	handler := newTestAPI(t)

	var last int
	for i := 0; i < 11; i++ {
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/auth/login", "", `{"username":"ghost","password":"wrong"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")

	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/staff", token, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestUnknownStaffSubresource(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/staff/staff-x/unknown", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCalculationForUnknownStaff(t *testing.T) {
	handler := newTestAPI(t)
	token := loginAs(t, handler, "admin", "admin-secret")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/staff/no-such-staff/calculation", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
