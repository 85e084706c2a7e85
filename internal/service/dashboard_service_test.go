package service

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

func testUsers() (*domain.User, *domain.User, *domain.User) {
	manager := &domain.User{
		ID:          "m-1",
		Name:        "Morgan",
		Email:       "morgan@company.com",
		Role:        domain.RoleManager,
		TeamMembers: []string{"e-1", "e-2"},
	}
	emp1 := &domain.User{ID: "e-1", Name: "Enid", Email: "enid@company.com", Role: domain.RoleEmployee, ManagerID: "m-1"}
	emp2 := &domain.User{ID: "e-2", Name: "Eli", Email: "eli@company.com", Role: domain.RoleEmployee, ManagerID: "m-1"}
	return manager, emp1, emp2
}

func TestManagerViewStats(t *testing.T) {
	manager, emp1, emp2 := testUsers()
	dir := repository.NewMemoryDirectory(manager, emp1, emp2)
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	feedbacks := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-new", EmployeeID: "e-1", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now.Add(-24 * time.Hour),
		},
		&domain.Feedback{
			ID: "f-old", EmployeeID: "e-2", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentNegative, Acknowledged: true,
			CreatedAt: now.Add(-8 * 24 * time.Hour),
		},
	)

	s := NewDashboardService(dir, feedbacks, nil, fakeClock{now})
	view, err := s.ManagerView(context.Background(), manager)
	if err != nil {
		t.Fatalf("manager view failed: %v", err)
	}

	if view.Stats.TotalTeamMembers != 2 {
		t.Fatalf("expected 2 team members, got %d", view.Stats.TotalTeamMembers)
	}
	if view.Stats.TotalFeedbacks != 2 {
		t.Fatalf("expected 2 feedbacks, got %d", view.Stats.TotalFeedbacks)
	}
	if view.Stats.RecentFeedbacks != 1 {
		t.Fatalf("expected 1 recent feedback, got %d", view.Stats.RecentFeedbacks)
	}
	if view.Stats.PendingAcknowledgments != 1 {
		t.Fatalf("expected 1 pending acknowledgment, got %d", view.Stats.PendingAcknowledgments)
	}
	if view.Sentiment.Positive != 1 || view.Sentiment.Negative != 1 || view.Sentiment.Neutral != 0 {
		t.Fatalf("unexpected sentiment breakdown: %+v", view.Sentiment)
	}
	if view.PositivePercentage != 50 {
		t.Fatalf("expected 50%% positive, got %d", view.PositivePercentage)
	}
}

func TestManagerViewSevenDayBoundary(t *testing.T) {
	manager, emp1, emp2 := testUsers()
	dir := repository.NewMemoryDirectory(manager, emp1, emp2)
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	// Exactly seven days old: not recent. One second newer: recent.
	feedbacks := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-boundary", EmployeeID: "e-1", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentNeutral, CreatedAt: now.Add(-7 * 24 * time.Hour),
		},
		&domain.Feedback{
			ID: "f-inside", EmployeeID: "e-1", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentNeutral, CreatedAt: now.Add(-7*24*time.Hour + time.Second),
		},
	)

	s := NewDashboardService(dir, feedbacks, nil, fakeClock{now})
	view, err := s.ManagerView(context.Background(), manager)
	if err != nil {
		t.Fatalf("manager view failed: %v", err)
	}
	if view.Stats.RecentFeedbacks != 1 {
		t.Fatalf("expected 1 recent feedback at the boundary, got %d", view.Stats.RecentFeedbacks)
	}
}

func TestManagerViewNoFeedback(t *testing.T) {
	manager, emp1, emp2 := testUsers()
	dir := repository.NewMemoryDirectory(manager, emp1, emp2)
	feedbacks := repository.NewMemoryFeedbackRepository()

	s := NewDashboardService(dir, feedbacks, nil, fakeClock{time.Now()})
	view, err := s.ManagerView(context.Background(), manager)
	if err != nil {
		t.Fatalf("manager view failed: %v", err)
	}
	if view.PositivePercentage != 0 {
		t.Fatalf("empty collection must yield 0%%, got %d", view.PositivePercentage)
	}
	if len(view.Members) != 2 {
		t.Fatalf("members list must cover the whole team, got %d", len(view.Members))
	}
	for _, m := range view.Members {
		if m.LastFeedback != nil {
			t.Fatalf("expected no last feedback for %s", m.Member.ID)
		}
	}
}

func TestManagerViewDropsDanglingMembers(t *testing.T) {
	manager, emp1, _ := testUsers()
	manager.TeamMembers = []string{"e-1", "e-gone"}
	dir := repository.NewMemoryDirectory(manager, emp1)

	s := NewDashboardService(dir, repository.NewMemoryFeedbackRepository(), nil, fakeClock{time.Now()})
	view, err := s.ManagerView(context.Background(), manager)
	if err != nil {
		t.Fatalf("dangling member must not fail the view: %v", err)
	}
	if view.Stats.TotalTeamMembers != 1 {
		t.Fatalf("expected dangling member to be dropped, got %d members", view.Stats.TotalTeamMembers)
	}
}

func TestEmployeeViewCalendarMonth(t *testing.T) {
	manager, emp1, emp2 := testUsers()
	dir := repository.NewMemoryDirectory(manager, emp1, emp2)
	// March 2nd: a record from 10 days ago is in February and must not
	// count, even though it falls inside a rolling 30-day window.
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	feedbacks := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-march", EmployeeID: "e-1", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now.Add(-24 * time.Hour),
		},
		&domain.Feedback{
			ID: "f-feb", EmployeeID: "e-1", ManagerID: "m-1",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentNeutral, CreatedAt: now.Add(-10 * 24 * time.Hour),
		},
	)

	s := NewDashboardService(dir, feedbacks, nil, fakeClock{now})
	view, err := s.EmployeeView(context.Background(), emp1)
	if err != nil {
		t.Fatalf("employee view failed: %v", err)
	}
	if view.Stats.TotalReceived != 2 {
		t.Fatalf("expected 2 received, got %d", view.Stats.TotalReceived)
	}
	if view.Stats.ThisMonth != 1 {
		t.Fatalf("expected 1 this month, got %d", view.Stats.ThisMonth)
	}
	if view.Manager == nil || view.Manager.ID != "m-1" {
		t.Fatalf("expected resolved manager, got %+v", view.Manager)
	}
}

func TestEmployeeViewMissingManager(t *testing.T) {
	_, emp1, _ := testUsers()
	dir := repository.NewMemoryDirectory(emp1)

	s := NewDashboardService(dir, repository.NewMemoryFeedbackRepository(), nil, fakeClock{time.Now()})
	view, err := s.EmployeeView(context.Background(), emp1)
	if err != nil {
		t.Fatalf("missing manager must not fail the view: %v", err)
	}
	if view.Manager != nil {
		t.Fatalf("expected nil manager, got %+v", view.Manager)
	}
}

func TestSortByCreatedDescStableTieBreak(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	a := &domain.Feedback{ID: "first", CreatedAt: now}
	b := &domain.Feedback{ID: "second", CreatedAt: now}
	c := &domain.Feedback{ID: "newer", CreatedAt: now.Add(time.Hour)}

	fs := []*domain.Feedback{a, b, c}
	sortByCreatedDesc(fs)

	if fs[0].ID != "newer" {
		t.Fatalf("expected newest first, got %s", fs[0].ID)
	}
	// Equal timestamps keep collection order.
	if fs[1].ID != "first" || fs[2].ID != "second" {
		t.Fatalf("tie must preserve insertion order, got %s, %s", fs[1].ID, fs[2].ID)
	}
}

func TestPositivePercentageRounding(t *testing.T) {
	cases := []struct {
		positive, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
	}
	for _, c := range cases {
		if got := positivePercentage(c.positive, c.total); got != c.want {
			t.Fatalf("positivePercentage(%d, %d) = %d, want %d", c.positive, c.total, got, c.want)
		}
	}
}

func TestViewForRoleDispatch(t *testing.T) {
	manager, emp1, emp2 := testUsers()
	dir := repository.NewMemoryDirectory(manager, emp1, emp2)
	s := NewDashboardService(dir, repository.NewMemoryFeedbackRepository(), nil, fakeClock{time.Now()})

	mv, err := s.ViewFor(context.Background(), manager)
	if err != nil {
		t.Fatalf("manager dispatch failed: %v", err)
	}
	if mv.Manager == nil || mv.Employee != nil {
		t.Fatalf("manager view must set only the manager branch")
	}

	ev, err := s.ViewFor(context.Background(), emp1)
	if err != nil {
		t.Fatalf("employee dispatch failed: %v", err)
	}
	if ev.Employee == nil || ev.Manager != nil {
		t.Fatalf("employee view must set only the employee branch")
	}

	if _, err := s.ViewFor(context.Background(), &domain.User{ID: "x", Role: "intern"}); err == nil {
		t.Fatalf("unknown role must fail")
	}
}
