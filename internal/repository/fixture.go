package repository

import (
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
)

// SeedDirectory returns the demo user directory: two managers and their
// teams. Every seeded user logs in with one of the demo credentials.
func SeedDirectory() *MemoryDirectory {
	return NewMemoryDirectory(
		&domain.User{
			ID:          "u-sarah",
			Name:        "Sarah Johnson",
			Email:       "sarah.johnson@company.com",
			Role:        domain.RoleManager,
			Department:  "Engineering",
			TeamMembers: []string{"u-alex", "u-maria", "u-james"},
		},
		&domain.User{
			ID:         "u-alex",
			Name:       "Alex Chen",
			Email:      "alex.chen@company.com",
			Role:       domain.RoleEmployee,
			Department: "Engineering",
			ManagerID:  "u-sarah",
		},
		&domain.User{
			ID:         "u-maria",
			Name:       "Maria Garcia",
			Email:      "maria.garcia@company.com",
			Role:       domain.RoleEmployee,
			Department: "Engineering",
			ManagerID:  "u-sarah",
		},
		&domain.User{
			ID:         "u-james",
			Name:       "James Wilson",
			Email:      "james.wilson@company.com",
			Role:       domain.RoleEmployee,
			Department: "Engineering",
			ManagerID:  "u-sarah",
		},
		&domain.User{
			ID:          "u-david",
			Name:        "David Kim",
			Email:       "david.kim@company.com",
			Role:        domain.RoleManager,
			Department:  "Design",
			TeamMembers: []string{"u-emma"},
		},
		&domain.User{
			ID:         "u-emma",
			Name:       "Emma Davis",
			Email:      "emma.davis@company.com",
			Role:       domain.RoleEmployee,
			Department: "Design",
			ManagerID:  "u-david",
		},
	)
}

// SeedFeedbackRepository returns a feedback store with demo records spread
// around now, so both the 7-day and calendar-month stats have data.
func SeedFeedbackRepository(now time.Time) *MemoryFeedbackRepository {
	return NewMemoryFeedbackRepository(
		&domain.Feedback{
			ID:           "f-1",
			EmployeeID:   "u-alex",
			ManagerID:    "u-sarah",
			Strengths:    "Consistently clear code reviews and strong ownership of the release process.",
			Improvements: "Could delegate more of the on-call triage instead of absorbing it all.",
			Sentiment:    domain.SentimentPositive,
			Acknowledged: true,
			CreatedAt:    now.Add(-2 * 24 * time.Hour),
		},
		&domain.Feedback{
			ID:           "f-2",
			EmployeeID:   "u-maria",
			ManagerID:    "u-sarah",
			Strengths:    "Great grasp of the data pipeline internals.",
			Improvements: "Design docs tend to arrive after implementation has started.",
			Sentiment:    domain.SentimentNeutral,
			Acknowledged: false,
			CreatedAt:    now.Add(-5 * 24 * time.Hour),
		},
		&domain.Feedback{
			ID:           "f-3",
			EmployeeID:   "u-james",
			ManagerID:    "u-sarah",
			Strengths:    "Strong debugging instincts under pressure.",
			Improvements: "Standup updates are often missing, which blocks the rest of the team.",
			Sentiment:    domain.SentimentNegative,
			Acknowledged: false,
			CreatedAt:    now.Add(-10 * 24 * time.Hour),
		},
		&domain.Feedback{
			ID:           "f-4",
			EmployeeID:   "u-alex",
			ManagerID:    "u-sarah",
			Strengths:    "Mentoring of the new hires has been excellent.",
			Improvements: "Time management across parallel projects.",
			Sentiment:    domain.SentimentPositive,
			Acknowledged: false,
			CreatedAt:    now.Add(-20 * 24 * time.Hour),
		},
		&domain.Feedback{
			ID:           "f-5",
			EmployeeID:   "u-emma",
			ManagerID:    "u-david",
			Strengths:    "The new onboarding flow mockups landed very well with stakeholders.",
			Improvements: "Keep component specs in sync with the design system.",
			Sentiment:    domain.SentimentPositive,
			Acknowledged: true,
			CreatedAt:    now.Add(-3 * 24 * time.Hour),
		},
	)
}
