package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubGoalRepo struct {
	goals map[string]Goal
}

func newStubGoalRepo() *stubGoalRepo {
	return &stubGoalRepo{goals: make(map[string]Goal)}
}

func (s *stubGoalRepo) Create(ctx context.Context, goal Goal) error {
	s.goals[goal.ID] = goal
	return nil
}

func (s *stubGoalRepo) Get(ctx context.Context, userID, goalID string) (*Goal, error) {
	goal, ok := s.goals[goalID]
	if !ok || goal.UserID != userID {
		return nil, nil
	}
	return &goal, nil
}

func (s *stubGoalRepo) ListByUser(ctx context.Context, userID string) ([]Goal, error) {
	out := make([]Goal, 0)
	for _, goal := range s.goals {
		if goal.UserID == userID {
			out = append(out, goal)
		}
	}
	return out, nil
}

func (s *stubGoalRepo) Update(ctx context.Context, goal Goal) (bool, error) {
	if existing, ok := s.goals[goal.ID]; !ok || existing.UserID != goal.UserID {
		return false, nil
	}
	s.goals[goal.ID] = goal
	return true, nil
}

func (s *stubGoalRepo) Delete(ctx context.Context, userID, goalID string) (bool, error) {
	if goal, ok := s.goals[goalID]; !ok || goal.UserID != userID {
		return false, nil
	}
	delete(s.goals, goalID)
	return true, nil
}

// stubActivityRepo implements only the aggregate used by goal progress.
type stubActivityRepo struct {
	aggregate float64
	lastAgg   GoalAggregation
}

func (s *stubActivityRepo) Create(ctx context.Context, activity Activity) error { return nil }
func (s *stubActivityRepo) Get(ctx context.Context, userID, activityID string) (*Activity, error) {
	return nil, nil
}
func (s *stubActivityRepo) List(ctx context.Context, userID string, filter ActivityFilter, order Ordering, offset, limit int) ([]Activity, int, error) {
	return nil, 0, nil
}
func (s *stubActivityRepo) Update(ctx context.Context, activity Activity) (bool, error) {
	return false, nil
}
func (s *stubActivityRepo) Delete(ctx context.Context, userID, activityID string) (bool, error) {
	return false, nil
}
func (s *stubActivityRepo) Summary(ctx context.Context, userID string, filter ActivityFilter) (ActivitySummary, error) {
	return ActivitySummary{ActivityBreakdown: map[string]int{}}, nil
}
func (s *stubActivityRepo) TypeStats(ctx context.Context, userID string, startDate, endDate *time.Time) ([]ActivityTypeStat, error) {
	return nil, nil
}
func (s *stubActivityRepo) AggregateForGoal(ctx context.Context, userID string, agg GoalAggregation) (float64, error) {
	s.lastAgg = agg
	return s.aggregate, nil
}

func validGoalInput() GoalInput {
	return GoalInput{
		Title:       "Run 50km in February",
		GoalType:    GoalTypeDistance,
		TargetValue: 50,
		StartDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
}

func TestGoalProgressClampedToHundred(t *testing.T) {
	require.Equal(t, float64(100), GoalProgress(250, 50))
	require.Equal(t, float64(100), GoalProgress(50, 50))
	require.Equal(t, float64(50), GoalProgress(25, 50))
	require.Equal(t, float64(0), GoalProgress(0, 50))
	require.Equal(t, float64(0), GoalProgress(10, 0))
}

func TestCreateGoalComputesProgress(t *testing.T) {
	activities := &stubActivityRepo{aggregate: 20}
	service := NewGoalService(newStubGoalRepo(), activities)

	goal, err := service.CreateGoal(context.Background(), "user-1", validGoalInput())
	require.NoError(t, err)
	require.Equal(t, float64(20), goal.CurrentValue)
	require.Equal(t, float64(40), goal.ProgressPercentage)
	require.False(t, goal.IsCompleted)
	require.Equal(t, GoalTypeDistance, activities.lastAgg.GoalType)
}

func TestCreateGoalRejectsNonPositiveTarget(t *testing.T) {
	service := NewGoalService(newStubGoalRepo(), &stubActivityRepo{})

	input := validGoalInput()
	input.TargetValue = 0
	_, err := service.CreateGoal(context.Background(), "user-1", input)
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, verr.Fields, "target_value")
}

func TestCreateGoalRejectsReversedDates(t *testing.T) {
	service := NewGoalService(newStubGoalRepo(), &stubActivityRepo{})

	input := validGoalInput()
	input.StartDate, input.EndDate = input.EndDate, input.StartDate
	_, err := service.CreateGoal(context.Background(), "user-1", input)
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, verr.Fields, "end_date")
}

func TestGetGoalMarksCompletion(t *testing.T) {
	activities := &stubActivityRepo{aggregate: 75}
	repo := newStubGoalRepo()
	service := NewGoalService(repo, activities)

	created, err := service.CreateGoal(context.Background(), "user-1", validGoalInput())
	require.NoError(t, err)

	goal, err := service.GetGoal(context.Background(), "user-1", created.ID)
	require.NoError(t, err)
	require.True(t, goal.IsCompleted)
	require.Equal(t, float64(100), goal.ProgressPercentage)
	require.Equal(t, float64(75), goal.CurrentValue)
}

func TestGetGoalHidesOtherUsers(t *testing.T) {
	repo := newStubGoalRepo()
	service := NewGoalService(repo, &stubActivityRepo{})

	created, err := service.CreateGoal(context.Background(), "user-1", validGoalInput())
	require.NoError(t, err)

	_, err = service.GetGoal(context.Background(), "user-2", created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGoalNotFound(t *testing.T) {
	service := NewGoalService(newStubGoalRepo(), &stubActivityRepo{})
	err := service.DeleteGoal(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
