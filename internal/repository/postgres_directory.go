package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/feedbackflow/internal/domain"
)

// PostgresDirectory implements domain.UserDirectory using PostgreSQL.
// Team membership is derived from the manager_id back-references, so the
// two sides of the relationship can never disagree.
type PostgresDirectory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDirectory creates a new directory.
func NewPostgresDirectory(db *sql.DB, logger *slog.Logger) *PostgresDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDirectory{db: db, logger: logger}
}

const userColumns = `id, name, email, role, department, avatar, manager_id`

// FindByID retrieves a user by id.
func (d *PostgresDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	user, err := d.scanUser(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		d.logger.Error("failed to get user by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := d.fillTeamMembers(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves a user by email, case-insensitively.
func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	user, err := d.scanUser(d.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := d.fillTeamMembers(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns all users ordered by name.
func (d *PostgresDirectory) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY name, id
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		d.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	byID := make(map[string]*domain.User)
	for rows.Next() {
		user, err := d.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
		byID[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// Derive team membership in one pass instead of a query per manager.
	for _, u := range users {
		if u.ManagerID == "" {
			continue
		}
		if manager, ok := byID[u.ManagerID]; ok {
			manager.TeamMembers = append(manager.TeamMembers, u.ID)
		}
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *PostgresDirectory) scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var department, avatar, managerID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&department,
		&avatar,
		&managerID,
	)
	if err != nil {
		return nil, err
	}

	user.Department = department.String
	user.Avatar = avatar.String
	user.ManagerID = managerID.String
	return user, nil
}

func (d *PostgresDirectory) fillTeamMembers(ctx context.Context, user *domain.User) error {
	if !user.IsManager() {
		return nil
	}

	query := `
		SELECT id
		FROM users
		WHERE manager_id = $1
		ORDER BY name, id
	`
	rows, err := d.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan team member: %w", err)
		}
		user.TeamMembers = append(user.TeamMembers, id)
	}
	return rows.Err()
}
