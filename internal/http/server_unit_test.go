package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/auth"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/config"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/identity"
)

func testServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	cfg := config.Config{
		HTTPAddr:           ":0",
		JWTSecret:          "test-secret",
		JWTIssuer:          "test-issuer",
		AccessTokenTTL:     15 * time.Minute,
		AllowedEmailDomain: "neu.edu.ph",
		DemoAdminEmail:     "example@neu.edu.ph",
	}
	resolver := identity.NewResolver(cfg.AllowedEmailDomain, cfg.DemoAdminEmail, nil, nil)
	server := NewServer(cfg, nil, resolver)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return app, cfg
}

func postJSON(t *testing.T, url string, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func TestLogin(t *testing.T) {
	app, _ := testServer(t)

	// Missing credentials.
	resp := postJSON(t, app.URL+"/auth/login", "", map[string]string{"email": "prof@lab.edu"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if code := decodeError(t, resp); code != "missing_credentials" {
		t.Fatalf("expected missing_credentials, got %s", code)
	}

	// Wrong password.
	resp = postJSON(t, app.URL+"/auth/login", "", map[string]string{"email": "prof@lab.edu", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Unknown account.
	resp = postJSON(t, app.URL+"/auth/login", "", map[string]string{"email": "nobody@lab.edu", "password": "password"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Demo professor.
	resp = postJSON(t, app.URL+"/auth/login", "", map[string]string{"email": "prof@lab.edu", "password": "password"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var logged authResponse
	if err := json.NewDecoder(resp.Body).Decode(&logged); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	resp.Body.Close()
	if logged.AccessToken == "" {
		t.Fatalf("missing access token")
	}
	if logged.User.Role != "professor" || logged.User.Name != "Dr. Smith" || logged.User.ID != "1" {
		t.Fatalf("unexpected demo user: %+v", logged.User)
	}

	// Demo admin.
	resp = postJSON(t, app.URL+"/auth/login", "", map[string]string{"email": "admin@lab.edu", "password": "password"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&logged); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	resp.Body.Close()
	if logged.User.Role != "admin" || logged.User.Name != "Admin User" {
		t.Fatalf("unexpected demo admin: %+v", logged.User)
	}
}

func TestAuthMe(t *testing.T) {
	app, cfg := testServer(t)

	resp, err := http.Get(app.URL + "/auth/me")
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID: "u-1", Role: "professor", Email: "jdoe@neu.edu.ph", Name: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, app.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var me userResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != "u-1" || me.Email != "jdoe@neu.edu.ph" || me.Role != "professor" {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestSession(t *testing.T) {
	app, _ := testServer(t)

	// Foreign domain gets the fixed denial message.
	resp := postJSON(t, app.URL+"/auth/session", "", map[string]string{"email": "someone@gmail.com"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	var denial map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&denial); err != nil {
		t.Fatalf("decode denial: %v", err)
	}
	resp.Body.Close()
	if denial["error"] != "domain_not_allowed" {
		t.Fatalf("expected domain_not_allowed, got %s", denial["error"])
	}
	if denial["message"] != identity.DomainRestrictedMessage {
		t.Fatalf("unexpected denial message: %s", denial["message"])
	}

	// Missing email.
	resp = postJSON(t, app.URL+"/auth/session", "", map[string]string{"name": "No Email"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Invalid preferred role.
	resp = postJSON(t, app.URL+"/auth/session", "", map[string]string{
		"email": "jdoe@neu.edu.ph", "preferredRole": "superuser",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if code := decodeError(t, resp); code != "invalid_role" {
		t.Fatalf("expected invalid_role, got %s", code)
	}

	// Admin local-part heuristic.
	resp = postJSON(t, app.URL+"/auth/session", "", map[string]string{"email": "admin@neu.edu.ph"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var session authResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	resp.Body.Close()
	if session.User.Role != "admin" {
		t.Fatalf("expected admin role, got %s", session.User.Role)
	}
	if session.AccessToken == "" {
		t.Fatalf("missing access token")
	}

	// Regular institutional account defaults to professor with name fallback.
	resp = postJSON(t, app.URL+"/auth/session", "", map[string]string{"email": "jdoe@neu.edu.ph"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	resp.Body.Close()
	if session.User.Role != "professor" || session.User.Name != "jdoe" {
		t.Fatalf("unexpected session user: %+v", session.User)
	}
}

func TestScanParsesStructuredPayload(t *testing.T) {
	app, cfg := testServer(t)

	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID: "u-1", Role: "professor",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	resp := postJSON(t, app.URL+"/scan", token, map[string]string{"value": "Computer Science,Jane Doe,T-1001"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var scanned scannedIdentityResponse
	if err := json.NewDecoder(resp.Body).Decode(&scanned); err != nil {
		t.Fatalf("decode scan: %v", err)
	}
	resp.Body.Close()
	if scanned.ID != "T-1001" || scanned.Name != "Jane Doe" || scanned.Department != "Computer Science" {
		t.Fatalf("unexpected identity: %+v", scanned)
	}

	resp = postJSON(t, app.URL+"/scan", token, map[string]string{"value": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty value, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEntryRoleGates(t *testing.T) {
	app, cfg := testServer(t)

	body := map[string]interface{}{
		"teacherId": "T-1001", "teacherName": "Jane Doe",
		"buildingNumber": "IS", "roomNumber": "101",
	}

	// No token.
	resp := postJSON(t, app.URL+"/entries", "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admins do not record usage entries.
	adminToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID: "u-2", Role: "admin",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	resp = postJSON(t, app.URL+"/entries", adminToken, body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Professors hit submission validation before any persistence.
	profToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID: "u-1", Role: "professor",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	resp = postJSON(t, app.URL+"/entries", profToken, map[string]interface{}{
		"buildingNumber": "IS", "roomNumber": "101",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if code := decodeError(t, resp); code != "missing_teacher" {
		t.Fatalf("expected missing_teacher, got %s", code)
	}
}

func TestAdminGates(t *testing.T) {
	app, cfg := testServer(t)

	profToken, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, time.Minute, auth.Claims{
		UserID: "u-1", Role: "professor",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	for _, path := range []string{"/teachers", "/reports/summary", "/reports/entries", "/reports/export.csv", "/reports/export.pdf"} {
		req, _ := http.NewRequest(http.MethodGet, app.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+profToken)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("http error: %v", err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 on %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"Basic dXNlcg==":  "",
		"Bearer":          "",
		"Bearer   spaced": "spaced",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, expect)
		}
	}
}

func TestEntryResponseRoundTrip(t *testing.T) {
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	original := entryResponse{
		ID: "e1", TeacherID: "T-1001", TeacherName: "Jane Doe",
		BuildingNumber: "IS", RoomNumber: "101",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), EndTime: &end,
		NumStudents: 20, Purpose: "Database Lab", Equipment: []string{"Projector"},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded entryResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.StartTime.Equal(original.StartTime) || !decoded.EndTime.Equal(*original.EndTime) {
		t.Fatalf("instants not preserved: %+v", decoded)
	}
	if decoded.ID != original.ID || decoded.Purpose != original.Purpose || decoded.NumStudents != original.NumStudents {
		t.Fatalf("fields not preserved: %+v", decoded)
	}

	// Open entries omit the end time entirely.
	open := original
	open.EndTime = nil
	data, err = json.Marshal(open)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bytes.Contains(data, []byte("endTime")) {
		t.Fatalf("open entry should omit endTime: %s", data)
	}
}

func TestNormalizeTeacherStatus(t *testing.T) {
	for _, status := range []string{"active", "blocked", "hidden"} {
		if _, err := normalizeTeacherStatus(status); err != nil {
			t.Fatalf("expected status %s to be valid", status)
		}
	}
	if _, err := normalizeTeacherStatus("banned"); err == nil {
		t.Fatalf("expected invalid status to error")
	}
}
