package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/repository"
)

func newTestFeedbackService(feedbacks *repository.MemoryFeedbackRepository) *FeedbackService {
	dir := repository.SeedDirectory()
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	return NewFeedbackService(feedbacks, dir, nil, fakeClock{now})
}

func TestCreateFeedback(t *testing.T) {
	repo := repository.NewMemoryFeedbackRepository()
	s := newTestFeedbackService(repo)

	created, err := s.Create(context.Background(), CreateFeedbackInput{
		ManagerID:    "u-sarah",
		EmployeeID:   "u-alex",
		Strengths:    "  Shipped the migration cleanly.  ",
		Improvements: "More visibility into blockers.",
		Sentiment:    domain.SentimentPositive,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Strengths != "Shipped the migration cleanly." {
		t.Fatalf("strengths must be trimmed, got %q", created.Strengths)
	}
	if created.Acknowledged {
		t.Fatalf("new feedback must start unacknowledged")
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected stored record: %v", err)
	}
	if stored.EmployeeID != "u-alex" || stored.ManagerID != "u-sarah" {
		t.Fatalf("stored wrong parties: %+v", stored)
	}
}

func TestCreateFeedbackValidation(t *testing.T) {
	s := newTestFeedbackService(repository.NewMemoryFeedbackRepository())
	base := CreateFeedbackInput{
		ManagerID:    "u-sarah",
		EmployeeID:   "u-alex",
		Strengths:    "a",
		Improvements: "b",
		Sentiment:    domain.SentimentNeutral,
	}

	in := base
	in.ManagerID = "u-alex"
	if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrNotManager) {
		t.Fatalf("expected ErrNotManager, got %v", err)
	}

	in = base
	in.EmployeeID = "u-david"
	if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}

	in = base
	in.EmployeeID = "u-nobody"
	if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	in = base
	in.Strengths = "   "
	if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrEmptyFeedback) {
		t.Fatalf("expected ErrEmptyFeedback, got %v", err)
	}

	in = base
	in.Sentiment = "elated"
	if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidSentiment) {
		t.Fatalf("expected ErrInvalidSentiment, got %v", err)
	}
}

func TestAcknowledgeFeedback(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-1", EmployeeID: "u-alex", ManagerID: "u-sarah",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now,
		},
	)
	s := newTestFeedbackService(repo)

	acked, err := s.Acknowledge(context.Background(), "f-1", "u-alex")
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if !acked.Acknowledged {
		t.Fatalf("expected acknowledged record")
	}

	// Monotonic: a second acknowledge is a no-op success.
	again, err := s.Acknowledge(context.Background(), "f-1", "u-alex")
	if err != nil {
		t.Fatalf("repeated acknowledge failed: %v", err)
	}
	if !again.Acknowledged {
		t.Fatalf("record must stay acknowledged")
	}
}

func TestAcknowledgeRequiresRecipient(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-1", EmployeeID: "u-alex", ManagerID: "u-sarah",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now,
		},
	)
	s := newTestFeedbackService(repo)

	if _, err := s.Acknowledge(context.Background(), "f-1", "u-maria"); !errors.Is(err, domain.ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient, got %v", err)
	}
	if _, err := s.Acknowledge(context.Background(), "f-1", "u-sarah"); !errors.Is(err, domain.ErrNotRecipient) {
		t.Fatalf("the authoring manager is not the recipient, got %v", err)
	}
	if _, err := s.Acknowledge(context.Background(), "f-missing", "u-alex"); !errors.Is(err, domain.ErrFeedbackNotFound) {
		t.Fatalf("expected ErrFeedbackNotFound, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID: "f-alex", EmployeeID: "u-alex", ManagerID: "u-sarah",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now.Add(-48 * time.Hour),
		},
		&domain.Feedback{
			ID: "f-maria", EmployeeID: "u-maria", ManagerID: "u-sarah",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentNeutral, CreatedAt: now.Add(-24 * time.Hour),
		},
		&domain.Feedback{
			ID: "f-emma", EmployeeID: "u-emma", ManagerID: "u-david",
			Strengths: "a", Improvements: "b",
			Sentiment: domain.SentimentPositive, CreatedAt: now,
		},
	)
	s := newTestFeedbackService(repo)
	dir := repository.SeedDirectory()

	sarah, err := dir.FindByID(context.Background(), "u-sarah")
	if err != nil {
		t.Fatalf("fixture lookup failed: %v", err)
	}
	forManager, err := s.ListForUser(context.Background(), sarah)
	if err != nil {
		t.Fatalf("list for manager failed: %v", err)
	}
	if len(forManager) != 2 {
		t.Fatalf("manager must see the team's records only, got %d", len(forManager))
	}
	if forManager[0].ID != "f-maria" {
		t.Fatalf("expected newest first, got %s", forManager[0].ID)
	}

	alex, err := dir.FindByID(context.Background(), "u-alex")
	if err != nil {
		t.Fatalf("fixture lookup failed: %v", err)
	}
	forEmployee, err := s.ListForUser(context.Background(), alex)
	if err != nil {
		t.Fatalf("list for employee failed: %v", err)
	}
	if len(forEmployee) != 1 || forEmployee[0].ID != "f-alex" {
		t.Fatalf("employee must see only their own records, got %+v", forEmployee)
	}
}
