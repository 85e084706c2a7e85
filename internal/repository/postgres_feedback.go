package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/feedbackflow/internal/domain"
)

// PostgresFeedbackRepository implements domain.FeedbackRepository using
// PostgreSQL. List orders by (created_at, id), which is the collection
// order the dashboard's tie-break rule relies on.
type PostgresFeedbackRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresFeedbackRepository creates a new feedback repository.
func NewPostgresFeedbackRepository(db *sql.DB, logger *slog.Logger) *PostgresFeedbackRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFeedbackRepository{db: db, logger: logger}
}

// Create inserts a new feedback record.
func (r *PostgresFeedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	query := `
		INSERT INTO feedback (id, employee_id, manager_id, strengths, improvements, sentiment, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID,
		f.EmployeeID,
		f.ManagerID,
		f.Strengths,
		f.Improvements,
		string(f.Sentiment),
		f.Acknowledged,
		f.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create feedback",
			slog.String("feedback_id", f.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

const feedbackColumns = `id, employee_id, manager_id, strengths, improvements, sentiment, acknowledged, created_at`

// GetByID retrieves a feedback record by id.
func (r *PostgresFeedbackRepository) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE id = $1
	`
	f := &domain.Feedback{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID,
		&f.EmployeeID,
		&f.ManagerID,
		&f.Strengths,
		&f.Improvements,
		&f.Sentiment,
		&f.Acknowledged,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return f, nil
}

// List returns the full feedback collection in stable order.
func (r *PostgresFeedbackRepository) List(ctx context.Context) ([]*domain.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list feedback", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []*domain.Feedback
	for rows.Next() {
		f := &domain.Feedback{}
		err := rows.Scan(
			&f.ID,
			&f.EmployeeID,
			&f.ManagerID,
			&f.Strengths,
			&f.Improvements,
			&f.Sentiment,
			&f.Acknowledged,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Acknowledge flips a record's acknowledged flag to true. The update is
// monotonic: re-acknowledging is harmless.
func (r *PostgresFeedbackRepository) Acknowledge(ctx context.Context, id string) error {
	query := `
		UPDATE feedback
		SET acknowledged = TRUE
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge feedback: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrFeedbackNotFound
	}
	return nil
}
