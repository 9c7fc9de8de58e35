package domain

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GoalType identifies which activity aggregate a goal is measured against.
type GoalType string

const (
	GoalTypeDistance  GoalType = "distance"  // sum of distance_km
	GoalTypeDuration  GoalType = "duration"  // sum of duration_min
	GoalTypeCalories  GoalType = "calories"  // sum of calories_burned
	GoalTypeFrequency GoalType = "frequency" // activity count
)

var goalTypes = map[GoalType]struct{}{
	GoalTypeDistance: {}, GoalTypeDuration: {}, GoalTypeCalories: {}, GoalTypeFrequency: {},
}

// Goal is a user-defined target over a date range. CurrentValue,
// ProgressPercentage and IsCompleted are recomputed from the activity table on
// every read and never stored, so they cannot drift.
type Goal struct {
	ID           string
	UserID       string
	Title        string
	Description  string
	GoalType     GoalType
	TargetValue  float64
	ActivityType string
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	CurrentValue       float64
	ProgressPercentage float64
	IsCompleted        bool
}

// GoalRepository captures goal persistence operations, always user-scoped.
type GoalRepository interface {
	Create(ctx context.Context, goal Goal) error
	Get(ctx context.Context, userID, goalID string) (*Goal, error)
	ListByUser(ctx context.Context, userID string) ([]Goal, error)
	Update(ctx context.Context, goal Goal) (bool, error)
	Delete(ctx context.Context, userID, goalID string) (bool, error)
}

// GoalService orchestrates goal CRUD and progress computation.
type GoalService struct {
	goals      GoalRepository
	activities ActivityRepository
}

// NewGoalService constructs a GoalService.
func NewGoalService(goals GoalRepository, activities ActivityRepository) *GoalService {
	return &GoalService{goals: goals, activities: activities}
}

// GoalInput captures the goal payload from the API layer.
type GoalInput struct {
	Title        string
	Description  string
	GoalType     GoalType
	TargetValue  float64
	ActivityType string
	StartDate    time.Time
	EndDate      time.Time
}

func validateGoalInput(input GoalInput) error {
	verr := NewValidationError()
	if strings.TrimSpace(input.Title) == "" {
		verr.Add("title", "This field is required.")
	}
	if _, ok := goalTypes[input.GoalType]; !ok {
		verr.Add("goal_type", "Goal type must be one of distance, duration, calories, frequency.")
	}
	// A zero or negative target is rejected at creation so progress math
	// never has to guard the divisor.
	if input.TargetValue <= 0 {
		verr.Add("target_value", "Target value must be greater than zero.")
	}
	if input.StartDate.IsZero() {
		verr.Add("start_date", "This field is required.")
	}
	if input.EndDate.IsZero() {
		verr.Add("end_date", "This field is required.")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		verr.Add("end_date", "End date must be on or after start date.")
	}
	return verr.ErrOrNil()
}

// CreateGoal validates the input and persists a new goal for userID.
func (s *GoalService) CreateGoal(ctx context.Context, userID string, input GoalInput) (*Goal, error) {
	if err := validateGoalInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	goal := Goal{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		GoalType:     input.GoalType,
		TargetValue:  input.TargetValue,
		ActivityType: input.ActivityType,
		StartDate:    truncateToDate(input.StartDate),
		EndDate:      truncateToDate(input.EndDate),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	if err := s.computeProgress(ctx, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// GetGoal fetches a goal owned by userID with progress fields populated.
func (s *GoalService) GetGoal(ctx context.Context, userID, goalID string) (*Goal, error) {
	goal, err := s.goals.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil || !Owns(goal.UserID, userID) {
		return nil, ErrNotFound
	}
	if err := s.computeProgress(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// ListGoals returns all goals for a user with progress fields populated.
func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if err := s.computeProgress(ctx, &goals[i]); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

// UpdateGoal replaces the mutable fields of an existing goal.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID string, input GoalInput) (*Goal, error) {
	existing, err := s.goals.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if err := validateGoalInput(input); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.GoalType = input.GoalType
	updated.TargetValue = input.TargetValue
	updated.ActivityType = input.ActivityType
	updated.StartDate = truncateToDate(input.StartDate)
	updated.EndDate = truncateToDate(input.EndDate)
	updated.UpdatedAt = time.Now().UTC()

	found, err := s.goals.Update(ctx, updated)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := s.computeProgress(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteGoal removes a goal owned by userID.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	deleted, err := s.goals.Delete(ctx, userID, goalID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// computeProgress fills the derived fields from the matching activity set.
func (s *GoalService) computeProgress(ctx context.Context, goal *Goal) error {
	current, err := s.activities.AggregateForGoal(ctx, goal.UserID, GoalAggregation{
		GoalType:     goal.GoalType,
		ActivityType: goal.ActivityType,
		StartDate:    goal.StartDate,
		EndDate:      goal.EndDate,
	})
	if err != nil {
		return err
	}
	goal.CurrentValue = current
	goal.ProgressPercentage = GoalProgress(current, goal.TargetValue)
	goal.IsCompleted = current >= goal.TargetValue
	return nil
}

// GoalProgress returns the completion percentage capped at 100. Targets are
// validated positive at creation, but a zero divisor still yields 0 rather
// than NaN.
func GoalProgress(currentValue, targetValue float64) float64 {
	if targetValue <= 0 {
		return 0
	}
	pct := currentValue / targetValue * 100
	if pct >= 100 {
		return 100
	}
	if pct <= 0 {
		return 0
	}
	return math.Round(pct*100) / 100
}
