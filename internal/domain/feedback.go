package domain

import (
	"context"
	"time"
)

// Sentiment is the categorical tag on a feedback record.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three known sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Feedback is one structured feedback record a manager gave an employee.
// Acknowledged flips false to true exactly once, via the employee.
type Feedback struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	ManagerID    string    `json:"managerId"`
	Strengths    string    `json:"strengths"`
	Improvements string    `json:"improvements"`
	Sentiment    Sentiment `json:"sentiment"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FeedbackRepository defines data access for feedback records. List returns
// the full collection in stable insertion order.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *Feedback) error
	GetByID(ctx context.Context, id string) (*Feedback, error)
	List(ctx context.Context) ([]*Feedback, error)
	Acknowledge(ctx context.Context, id string) error
}
