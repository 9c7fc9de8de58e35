package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

// GoalRepository provides Postgres-backed persistence for goals. Derived
// progress fields are never stored; the service layer recomputes them on read.
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository constructs a GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

const goalColumns = `goal_id, user_id, title, description, goal_type, target_value, activity_type, start_date, end_date, created_at, updated_at`

// Create persists a new goal row.
func (r *GoalRepository) Create(ctx context.Context, goal domain.Goal) error {
	const stmt = `INSERT INTO goals (` + goalColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, stmt,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		string(goal.GoalType),
		goal.TargetValue,
		nullIfEmpty(goal.ActivityType),
		goal.StartDate,
		goal.EndDate,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	return err
}

// Get retrieves a goal scoped to its owner. Missing rows yield (nil, nil).
func (r *GoalRepository) Get(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	const query = `SELECT ` + goalColumns + ` FROM goals WHERE user_id=$1 AND goal_id=$2`

	goal, err := scanGoal(r.pool.QueryRow(ctx, query, userID, goalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return goal, nil
}

// ListByUser returns all goals belonging to a user, newest first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	const query = `SELECT ` + goalColumns + ` FROM goals WHERE user_id=$1 ORDER BY created_at DESC, goal_id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]domain.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

// Update replaces the mutable fields of a goal, scoped to its owner.
func (r *GoalRepository) Update(ctx context.Context, goal domain.Goal) (bool, error) {
	const stmt = `UPDATE goals SET title=$3, description=$4, goal_type=$5, target_value=$6, activity_type=$7, start_date=$8, end_date=$9, updated_at=$10
        WHERE user_id=$1 AND goal_id=$2`

	tag, err := r.pool.Exec(ctx, stmt,
		goal.UserID,
		goal.ID,
		goal.Title,
		goal.Description,
		string(goal.GoalType),
		goal.TargetValue,
		nullIfEmpty(goal.ActivityType),
		goal.StartDate,
		goal.EndDate,
		goal.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a goal, scoped to its owner.
func (r *GoalRepository) Delete(ctx context.Context, userID, goalID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE user_id=$1 AND goal_id=$2`, userID, goalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var goal domain.Goal
	var goalType string
	var activityType *string
	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goalType,
		&goal.TargetValue,
		&activityType,
		&goal.StartDate,
		&goal.EndDate,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	goal.GoalType = domain.GoalType(goalType)
	if activityType != nil {
		goal.ActivityType = *activityType
	}
	return &goal, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
