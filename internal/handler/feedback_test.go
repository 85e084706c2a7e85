package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/repository"
	"github.com/yourorg/feedbackflow/internal/security/auth"
	"github.com/yourorg/feedbackflow/internal/security/middleware"
	"github.com/yourorg/feedbackflow/internal/service"
)

type feedbackFixture struct {
	handler   *FeedbackHandler
	dashboard *DashboardHandler
	repo      *repository.MemoryFeedbackRepository
}

func newFeedbackFixture() *feedbackFixture {
	dir := repository.SeedDirectory()
	repo := repository.SeedFeedbackRepository(time.Now())
	feedbackService := service.NewFeedbackService(repo, dir, nil, nil)
	dashboardService := service.NewDashboardService(dir, repo, nil, nil)
	return &feedbackFixture{
		handler:   NewFeedbackHandler(feedbackService, dir, nil),
		dashboard: NewDashboardHandler(dashboardService, dir, nil),
		repo:      repo,
	}
}

func withClaims(r *http.Request, userID, role string) *http.Request {
	claims := &auth.Claims{UserID: userID, Role: role}
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey{}, claims)
	return r.WithContext(ctx)
}

func TestFeedbackListByRole(t *testing.T) {
	fx := newFeedbackFixture()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/feedback", nil), "u-sarah", "manager")
	rec := httptest.NewRecorder()
	fx.handler.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var records []*domain.Feedback
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("manager must see 4 team records, got %d", len(records))
	}

	req = withClaims(httptest.NewRequest(http.MethodGet, "/api/feedback", nil), "u-alex", "employee")
	rec = httptest.NewRecorder()
	fx.handler.List(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("employee must see their 2 records, got %d", len(records))
	}
	for _, f := range records {
		if f.EmployeeID != "u-alex" {
			t.Fatalf("employee must only see their own records, got %+v", f)
		}
	}
}

func TestFeedbackListRequiresAuth(t *testing.T) {
	fx := newFeedbackFixture()

	rec := httptest.NewRecorder()
	fx.handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/feedback", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestFeedbackCreate(t *testing.T) {
	fx := newFeedbackFixture()

	body := `{"employeeId":"u-alex","strengths":"Great debugging.","improvements":"More docs.","sentiment":"positive"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body)), "u-sarah", "manager")
	rec := httptest.NewRecorder()
	fx.handler.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Feedback
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ManagerID != "u-sarah" || created.EmployeeID != "u-alex" {
		t.Fatalf("unexpected parties: %+v", created)
	}
	if created.Acknowledged {
		t.Fatalf("new feedback must start unacknowledged")
	}
}

func TestFeedbackCreateRejectsNonManager(t *testing.T) {
	fx := newFeedbackFixture()

	body := `{"employeeId":"u-maria","strengths":"a","improvements":"b","sentiment":"neutral"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body)), "u-alex", "employee")
	rec := httptest.NewRecorder()
	fx.handler.Create(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestFeedbackCreateRejectsBadSentiment(t *testing.T) {
	fx := newFeedbackFixture()

	body := `{"employeeId":"u-alex","strengths":"a","improvements":"b","sentiment":"thrilled"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body)), "u-sarah", "manager")
	rec := httptest.NewRecorder()
	fx.handler.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFeedbackAcknowledge(t *testing.T) {
	fx := newFeedbackFixture()

	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback/f-2/acknowledge", nil), "u-maria", "employee")
	req.SetPathValue("id", "f-2")
	rec := httptest.NewRecorder()
	fx.handler.Acknowledge(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var acked domain.Feedback
	if err := json.NewDecoder(rec.Body).Decode(&acked); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !acked.Acknowledged {
		t.Fatalf("expected acknowledged record")
	}

	// Repeat acknowledge stays a success.
	req = withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback/f-2/acknowledge", nil), "u-maria", "employee")
	req.SetPathValue("id", "f-2")
	rec = httptest.NewRecorder()
	fx.handler.Acknowledge(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat acknowledge: expected 200, got %d", rec.Code)
	}
}

func TestFeedbackAcknowledgeWrongUser(t *testing.T) {
	fx := newFeedbackFixture()

	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback/f-2/acknowledge", nil), "u-alex", "employee")
	req.SetPathValue("id", "f-2")
	rec := httptest.NewRecorder()
	fx.handler.Acknowledge(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	fx := newFeedbackFixture()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "u-sarah", "manager")
	rec := httptest.NewRecorder()
	fx.dashboard.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view service.DashboardView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Role != domain.RoleManager || view.Manager == nil {
		t.Fatalf("expected manager view, got %+v", view)
	}
	if view.Manager.Stats.TotalTeamMembers != 3 {
		t.Fatalf("expected 3 team members, got %d", view.Manager.Stats.TotalTeamMembers)
	}

	req = withClaims(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "u-alex", "employee")
	rec = httptest.NewRecorder()
	fx.dashboard.ServeHTTP(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Role != domain.RoleEmployee || view.Employee == nil {
		t.Fatalf("expected employee view, got %+v", view)
	}
}

func TestDashboardRejectsUnknownTokenUser(t *testing.T) {
	fx := newFeedbackFixture()

	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "u-gone", "employee")
	rec := httptest.NewRecorder()
	fx.dashboard.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
