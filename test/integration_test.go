package test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/service"
)

// TestHealthEndpoint verifies the liveness check
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("Expected ok status, got '%s'", string(body))
	}
}

// TestReadinessEndpoint verifies the readiness check with no external
// dependencies configured
func TestReadinessEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/readyz")
	if err != nil {
		t.Fatalf("Readiness check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)
}

// TestProtectedEndpointsRequireToken verifies the JWT middleware gates the API
func TestProtectedEndpointsRequireToken(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/api/dashboard")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusUnauthorized)
}

// TestLoginFlow verifies the three login failure kinds over the wire
func TestLoginFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	cases := []struct {
		name     string
		body     string
		expected int
	}{
		{"unknown user", `{"email":"nobody@company.com","password":"password"}`, http.StatusUnauthorized},
		{"short password", `{"email":"alex.chen@company.com","password":"ab"}`, http.StatusBadRequest},
		{"wrong password", `{"email":"alex.chen@company.com","password":"letmein"}`, http.StatusUnauthorized},
		{"success", `{"email":"alex.chen@company.com","password":"demo"}`, http.StatusOK},
	}
	for _, c := range cases {
		resp, err := http.Post(server.URL()+"/api/auth/login", "application/json", strings.NewReader(c.body))
		if err != nil {
			t.Fatalf("%s: request failed: %v", c.name, err)
		}
		if resp.StatusCode != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

// TestManagerFlow walks the full manager path: login, dashboard, create
// feedback, and see the dashboard update
func TestManagerFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	token := server.Login(t, "sarah.johnson@company.com", "password")

	resp := server.AuthedRequest(t, http.MethodGet, "/api/dashboard", token, nil)
	AssertStatusCode(t, resp, http.StatusOK)
	var view service.DashboardView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	resp.Body.Close()

	if view.Manager == nil {
		t.Fatalf("expected manager view, got %+v", view)
	}
	before := view.Manager.Stats.TotalFeedbacks

	createBody := `{"employeeId":"u-james","strengths":"Owned the rollout end to end.","improvements":"Surface risks earlier.","sentiment":"positive"}`
	resp = server.AuthedRequest(t, http.MethodPost, "/api/feedback", token, []byte(createBody))
	AssertStatusCode(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = server.AuthedRequest(t, http.MethodGet, "/api/dashboard", token, nil)
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	resp.Body.Close()

	if view.Manager.Stats.TotalFeedbacks != before+1 {
		t.Errorf("dashboard must reflect the new record: %d -> %d", before, view.Manager.Stats.TotalFeedbacks)
	}
}

// TestEmployeeFlow walks the employee path: login, list own feedback, and
// acknowledge a record
func TestEmployeeFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	token := server.Login(t, "maria.garcia@company.com", "password")

	resp := server.AuthedRequest(t, http.MethodGet, "/api/feedback", token, nil)
	AssertStatusCode(t, resp, http.StatusOK)
	var records []*domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode feedback list: %v", err)
	}
	resp.Body.Close()

	var pending *domain.Feedback
	for _, f := range records {
		if f.EmployeeID != "u-maria" {
			t.Fatalf("employee must only see their own records, got %+v", f)
		}
		if !f.Acknowledged {
			pending = f
		}
	}
	if pending == nil {
		t.Fatalf("fixture must include an unacknowledged record for u-maria")
	}

	resp = server.AuthedRequest(t, http.MethodPost, "/api/feedback/"+pending.ID+"/acknowledge", token, nil)
	AssertStatusCode(t, resp, http.StatusOK)
	var acked domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&acked); err != nil {
		t.Fatalf("decode acknowledge response: %v", err)
	}
	resp.Body.Close()
	if !acked.Acknowledged {
		t.Errorf("expected acknowledged record, got %+v", acked)
	}

	// An employee cannot author feedback.
	createBody := `{"employeeId":"u-alex","strengths":"a","improvements":"b","sentiment":"neutral"}`
	resp = server.AuthedRequest(t, http.MethodPost, "/api/feedback", token, []byte(createBody))
	AssertStatusCode(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

// TestSessionPersistsAcrossRequests verifies the session endpoint tracks
// login and logout
func TestSessionPersistsAcrossRequests(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	token := server.Login(t, "alex.chen@company.com", "demo")

	resp := server.AuthedRequest(t, http.MethodGet, "/api/auth/session", token, nil)
	var session struct {
		Authenticated bool         `json:"authenticated"`
		User          *domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	resp.Body.Close()
	if !session.Authenticated || session.User == nil || session.User.ID != "u-alex" {
		t.Fatalf("expected active session for u-alex, got %+v", session)
	}

	resp = server.AuthedRequest(t, http.MethodPost, "/api/auth/logout", token, nil)
	AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = server.AuthedRequest(t, http.MethodGet, "/api/auth/session", token, nil)
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	resp.Body.Close()
	if session.Authenticated {
		t.Errorf("expected session cleared after logout")
	}
}
