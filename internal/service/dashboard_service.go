package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/observability/metrics"
)

// recentWindow is the manager view's rolling "recent" window. The boundary
// at exactly seven days is not recent.
const recentWindow = 7 * 24 * time.Hour

// SentimentBreakdown counts feedback by sentiment. All three keys are
// always present, zero-filled when absent.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// ManagerStats summarizes a manager's team feedback activity.
type ManagerStats struct {
	TotalTeamMembers       int `json:"totalTeamMembers"`
	TotalFeedbacks         int `json:"totalFeedbacks"`
	PendingAcknowledgments int `json:"pendingAcknowledgments"`
	RecentFeedbacks        int `json:"recentFeedbacks"`
}

// MemberSummary is the per-team-member detail on the manager dashboard.
type MemberSummary struct {
	Member       *domain.User       `json:"member"`
	Feedbacks    []*domain.Feedback `json:"feedbacks"`
	LastFeedback *domain.Feedback   `json:"lastFeedback,omitempty"`
}

// ManagerView is the fully computed manager dashboard. The renderer
// performs no further logic beyond display.
type ManagerView struct {
	TeamMembers        []*domain.User     `json:"teamMembers"`
	TeamFeedbacks      []*domain.Feedback `json:"teamFeedbacks"`
	Stats              ManagerStats       `json:"stats"`
	Sentiment          SentimentBreakdown `json:"sentimentBreakdown"`
	PositivePercentage int                `json:"positivePercentage"`
	Members            []MemberSummary    `json:"members"`
}

// EmployeeStats summarizes an employee's received feedback.
type EmployeeStats struct {
	TotalReceived  int `json:"totalReceived"`
	Unacknowledged int `json:"unacknowledged"`
	ThisMonth      int `json:"thisMonth"`
}

// EmployeeView is the fully computed employee dashboard.
type EmployeeView struct {
	Feedbacks          []*domain.Feedback `json:"feedbacks"`
	Stats              EmployeeStats      `json:"stats"`
	Sentiment          SentimentBreakdown `json:"sentimentBreakdown"`
	PositivePercentage int                `json:"positivePercentage"`
	Manager            *domain.User       `json:"manager,omitempty"`
}

// DashboardView is the role-shaped view object: exactly one of Manager or
// Employee is set.
type DashboardView struct {
	Role     domain.Role   `json:"role"`
	Manager  *ManagerView  `json:"manager,omitempty"`
	Employee *EmployeeView `json:"employee,omitempty"`
}

// DashboardService derives role-specific statistics from the feedback
// collection. It holds no cache and never mutates its inputs; every call
// recomputes from the current collection, so freshness is the caller's
// responsibility.
type DashboardService struct {
	directory domain.UserDirectory
	feedback  domain.FeedbackRepository
	clock     Clock
	logger    *slog.Logger
}

// NewDashboardService creates a dashboard service. A nil clock falls back
// to the real time.
func NewDashboardService(directory domain.UserDirectory, feedback domain.FeedbackRepository, logger *slog.Logger, clock Clock) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = realClock{}
	}
	return &DashboardService{
		directory: directory,
		feedback:  feedback,
		clock:     clock,
		logger:    logger,
	}
}

// ViewFor computes the role-appropriate dashboard for user.
func (s *DashboardService) ViewFor(ctx context.Context, user *domain.User) (*DashboardView, error) {
	switch user.Role {
	case domain.RoleManager:
		view, err := s.ManagerView(ctx, user)
		if err != nil {
			return nil, err
		}
		return &DashboardView{Role: domain.RoleManager, Manager: view}, nil
	case domain.RoleEmployee:
		view, err := s.EmployeeView(ctx, user)
		if err != nil {
			return nil, err
		}
		return &DashboardView{Role: domain.RoleEmployee, Employee: view}, nil
	default:
		return nil, fmt.Errorf("unknown role %q for user %s", user.Role, user.ID)
	}
}

// ManagerView computes the team dashboard for a manager.
func (s *DashboardService) ManagerView(ctx context.Context, manager *domain.User) (*ManagerView, error) {
	all, err := s.feedback.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	team := make([]*domain.User, 0, len(manager.TeamMembers))
	for _, id := range manager.TeamMembers {
		member, err := s.directory.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				// Dangling references are dropped so partial data never
				// breaks the dashboard.
				s.logger.Warn("team member missing from directory",
					slog.String("manager_id", manager.ID),
					slog.String("member_id", id),
				)
				continue
			}
			return nil, fmt.Errorf("resolve team member %s: %w", id, err)
		}
		team = append(team, member)
	}

	teamFeedbacks := filterFeedback(all, func(f *domain.Feedback) bool {
		return f.ManagerID == manager.ID
	})

	now := s.clock.Now()
	stats := ManagerStats{
		TotalTeamMembers: len(team),
		TotalFeedbacks:   len(teamFeedbacks),
	}
	for _, f := range teamFeedbacks {
		if !f.Acknowledged {
			stats.PendingAcknowledgments++
		}
		if now.Sub(f.CreatedAt) < recentWindow {
			stats.RecentFeedbacks++
		}
	}

	breakdown := sentimentCounts(teamFeedbacks)

	members := make([]MemberSummary, 0, len(team))
	for _, member := range team {
		subset := filterFeedback(teamFeedbacks, func(f *domain.Feedback) bool {
			return f.EmployeeID == member.ID
		})
		sortByCreatedDesc(subset)
		summary := MemberSummary{Member: member, Feedbacks: subset}
		if len(subset) > 0 {
			summary.LastFeedback = subset[0]
		}
		members = append(members, summary)
	}

	metrics.ObserveDashboard(string(domain.RoleManager))
	return &ManagerView{
		TeamMembers:        team,
		TeamFeedbacks:      teamFeedbacks,
		Stats:              stats,
		Sentiment:          breakdown,
		PositivePercentage: positivePercentage(breakdown.Positive, stats.TotalFeedbacks),
		Members:            members,
	}, nil
}

// EmployeeView computes the personal dashboard for an employee.
func (s *DashboardService) EmployeeView(ctx context.Context, employee *domain.User) (*EmployeeView, error) {
	all, err := s.feedback.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	own := filterFeedback(all, func(f *domain.Feedback) bool {
		return f.EmployeeID == employee.ID
	})
	sortByCreatedDesc(own)

	now := s.clock.Now()
	stats := EmployeeStats{TotalReceived: len(own)}
	for _, f := range own {
		if !f.Acknowledged {
			stats.Unacknowledged++
		}
		// Calendar month in local time, not a rolling 30-day window. This
		// is asymmetric with the manager view's 7-day window on purpose.
		created := f.CreatedAt.In(now.Location())
		if created.Year() == now.Year() && created.Month() == now.Month() {
			stats.ThisMonth++
		}
	}

	var manager *domain.User
	if employee.ManagerID != "" {
		manager, err = s.directory.FindByID(ctx, employee.ManagerID)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("resolve manager %s: %w", employee.ManagerID, err)
			}
			s.logger.Warn("manager missing from directory",
				slog.String("employee_id", employee.ID),
				slog.String("manager_id", employee.ManagerID),
			)
			manager = nil
		}
	}

	breakdown := sentimentCounts(own)

	metrics.ObserveDashboard(string(domain.RoleEmployee))
	return &EmployeeView{
		Feedbacks:          own,
		Stats:              stats,
		Sentiment:          breakdown,
		PositivePercentage: positivePercentage(breakdown.Positive, stats.TotalReceived),
		Manager:            manager,
	}, nil
}

func filterFeedback(in []*domain.Feedback, keep func(*domain.Feedback) bool) []*domain.Feedback {
	out := make([]*domain.Feedback, 0, len(in))
	for _, f := range in {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// sortByCreatedDesc orders newest first. Records sharing a timestamp keep
// their original collection order.
func sortByCreatedDesc(fs []*domain.Feedback) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].CreatedAt.After(fs[j].CreatedAt)
	})
}

func sentimentCounts(fs []*domain.Feedback) SentimentBreakdown {
	var b SentimentBreakdown
	for _, f := range fs {
		switch f.Sentiment {
		case domain.SentimentPositive:
			b.Positive++
		case domain.SentimentNeutral:
			b.Neutral++
		case domain.SentimentNegative:
			b.Negative++
		}
	}
	return b
}

// positivePercentage guards against division by zero: with no feedback the
// percentage is defined as 0.
func positivePercentage(positive, total int) int {
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(positive) / float64(total) * 100))
}
