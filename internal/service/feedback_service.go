package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/observability/metrics"
)

// FeedbackService handles creating and acknowledging feedback records.
type FeedbackService struct {
	repo      domain.FeedbackRepository
	directory domain.UserDirectory
	clock     Clock
	logger    *slog.Logger
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(repo domain.FeedbackRepository, directory domain.UserDirectory, logger *slog.Logger, clock Clock) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = realClock{}
	}
	return &FeedbackService{
		repo:      repo,
		directory: directory,
		clock:     clock,
		logger:    logger,
	}
}

// CreateFeedbackInput is the input for Create.
type CreateFeedbackInput struct {
	ManagerID    string
	EmployeeID   string
	Strengths    string
	Improvements string
	Sentiment    domain.Sentiment
}

// Create records new feedback from a manager for an employee.
func (s *FeedbackService) Create(ctx context.Context, in CreateFeedbackInput) (*domain.Feedback, error) {
	manager, err := s.directory.FindByID(ctx, in.ManagerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup manager: %w", err)
	}
	if !manager.IsManager() {
		return nil, domain.ErrNotManager
	}

	employee, err := s.directory.FindByID(ctx, in.EmployeeID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	if employee.Role != domain.RoleEmployee {
		return nil, domain.ErrInvalidRecipient
	}

	strengths := strings.TrimSpace(in.Strengths)
	improvements := strings.TrimSpace(in.Improvements)
	if strengths == "" || improvements == "" {
		return nil, domain.ErrEmptyFeedback
	}

	if !in.Sentiment.Valid() {
		return nil, domain.ErrInvalidSentiment
	}

	feedback := &domain.Feedback{
		ID:           uuid.NewString(),
		EmployeeID:   employee.ID,
		ManagerID:    manager.ID,
		Strengths:    strengths,
		Improvements: improvements,
		Sentiment:    in.Sentiment,
		Acknowledged: false,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	metrics.ObserveFeedbackCreated(string(feedback.Sentiment))
	s.logger.Info("feedback created",
		slog.String("feedback_id", feedback.ID),
		slog.String("manager_id", manager.ID),
		slog.String("employee_id", employee.ID),
		slog.String("sentiment", string(feedback.Sentiment)),
	)
	return feedback, nil
}

// Acknowledge marks a feedback record as seen by its receiving employee.
// The transition is one-way: acknowledging an already-acknowledged record
// is a no-op success.
func (s *FeedbackService) Acknowledge(ctx context.Context, id, userID string) (*domain.Feedback, error) {
	feedback, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrFeedbackNotFound) {
			return nil, domain.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("lookup feedback: %w", err)
	}

	if feedback.EmployeeID != userID {
		return nil, domain.ErrNotRecipient
	}

	if feedback.Acknowledged {
		return feedback, nil
	}

	if err := s.repo.Acknowledge(ctx, id); err != nil {
		return nil, fmt.Errorf("acknowledge feedback: %w", err)
	}
	feedback.Acknowledged = true

	metrics.ObserveAcknowledgment()
	s.logger.Info("feedback acknowledged",
		slog.String("feedback_id", id),
		slog.String("employee_id", userID),
	)
	return feedback, nil
}

// ListForUser returns the feedback visible to user, newest first: the
// team's records for a manager, the user's own for an employee.
func (s *FeedbackService) ListForUser(ctx context.Context, user *domain.User) ([]*domain.Feedback, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	var visible []*domain.Feedback
	if user.IsManager() {
		visible = filterFeedback(all, func(f *domain.Feedback) bool {
			return f.ManagerID == user.ID
		})
	} else {
		visible = filterFeedback(all, func(f *domain.Feedback) bool {
			return f.EmployeeID == user.ID
		})
	}
	sortByCreatedDesc(visible)
	return visible, nil
}
