package api

import (
	"context"
	"sort"
	"strings"
	"time"

	"example.com/fittrack/internal/domain"
)

// In-memory repositories mirroring the Postgres query semantics closely
// enough for handler tests: user scoping, filter bounds, ordering with
// created_at tiebreak, and NULL-skipping averages.

type memUserRepo struct {
	users []domain.User
}

func (m *memUserRepo) Create(ctx context.Context, user domain.User) error {
	m.users = append(m.users, user)
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].ID == userID {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].Username == username {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, _ := m.GetByUsername(ctx, username)
	return u != nil, nil
}

func (m *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	for i := range m.users {
		if m.users[i].Email != "" && m.users[i].Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) Update(ctx context.Context, user domain.User) error {
	for i := range m.users {
		if m.users[i].ID == user.ID {
			m.users[i] = user
			return nil
		}
	}
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].PasswordHash = passwordHash
		}
	}
	return nil
}

type memActivityRepo struct {
	activities []domain.Activity
}

func (m *memActivityRepo) Create(ctx context.Context, activity domain.Activity) error {
	m.activities = append(m.activities, activity)
	return nil
}

func (m *memActivityRepo) Get(ctx context.Context, userID, activityID string) (*domain.Activity, error) {
	for i := range m.activities {
		if m.activities[i].UserID == userID && m.activities[i].ID == activityID {
			a := m.activities[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memActivityRepo) List(ctx context.Context, userID string, filter domain.ActivityFilter, order domain.Ordering, offset, limit int) ([]domain.Activity, int, error) {
	matched := m.match(userID, filter)
	sortActivities(matched, order)
	total := len(matched)
	if offset >= total {
		return []domain.Activity{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memActivityRepo) Update(ctx context.Context, activity domain.Activity) (bool, error) {
	for i := range m.activities {
		if m.activities[i].UserID == activity.UserID && m.activities[i].ID == activity.ID {
			m.activities[i] = activity
			return true, nil
		}
	}
	return false, nil
}

func (m *memActivityRepo) Delete(ctx context.Context, userID, activityID string) (bool, error) {
	for i := range m.activities {
		if m.activities[i].UserID == userID && m.activities[i].ID == activityID {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memActivityRepo) Summary(ctx context.Context, userID string, filter domain.ActivityFilter) (domain.ActivitySummary, error) {
	matched := m.match(userID, filter)
	summary := domain.ActivitySummary{ActivityBreakdown: make(map[string]int)}
	summary.TotalActivities = len(matched)

	var distanceRows, calorieRows int
	var totalCalories float64
	for i := range matched {
		a := &matched[i]
		summary.TotalDuration += a.DurationMin
		if a.DistanceKm != nil {
			summary.TotalDistance += *a.DistanceKm
			distanceRows++
		}
		if a.CaloriesBurned != nil {
			totalCalories += float64(*a.CaloriesBurned)
			calorieRows++
		}
		summary.ActivityBreakdown[a.ActivityType]++
		date := a.Date
		if summary.EarliestDate == nil || date.Before(*summary.EarliestDate) {
			d := date
			summary.EarliestDate = &d
		}
		if summary.LatestDate == nil || date.After(*summary.LatestDate) {
			d := date
			summary.LatestDate = &d
		}
	}
	summary.TotalCalories = int(totalCalories)
	if len(matched) > 0 {
		summary.AverageDuration = float64(summary.TotalDuration) / float64(len(matched))
	}
	if distanceRows > 0 {
		summary.AverageDistance = summary.TotalDistance / float64(distanceRows)
	}
	if calorieRows > 0 {
		summary.AverageCalories = totalCalories / float64(calorieRows)
	}

	best := 0
	for activityType, count := range summary.ActivityBreakdown {
		if count > best || (count == best && activityType < summary.MostCommonActivity) {
			best = count
			summary.MostCommonActivity = activityType
		}
	}
	return summary, nil
}

func (m *memActivityRepo) TypeStats(ctx context.Context, userID string, startDate, endDate *time.Time) ([]domain.ActivityTypeStat, error) {
	matched := m.match(userID, domain.ActivityFilter{StartDate: startDate, EndDate: endDate})

	byType := make(map[string][]domain.Activity)
	for _, a := range matched {
		byType[a.ActivityType] = append(byType[a.ActivityType], a)
	}

	stats := make([]domain.ActivityTypeStat, 0, len(byType))
	for activityType, items := range byType {
		stat := domain.ActivityTypeStat{ActivityType: activityType, Count: len(items)}
		var distanceRows, calorieRows int
		var totalCalories float64
		for i := range items {
			stat.TotalDuration += items[i].DurationMin
			if items[i].DistanceKm != nil {
				stat.TotalDistance += *items[i].DistanceKm
				distanceRows++
			}
			if items[i].CaloriesBurned != nil {
				totalCalories += float64(*items[i].CaloriesBurned)
				calorieRows++
			}
		}
		stat.TotalCalories = int(totalCalories)
		stat.AverageDuration = float64(stat.TotalDuration) / float64(len(items))
		if distanceRows > 0 {
			stat.AverageDistance = stat.TotalDistance / float64(distanceRows)
		}
		if calorieRows > 0 {
			stat.AverageCalories = totalCalories / float64(calorieRows)
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].ActivityType < stats[j].ActivityType
	})
	return stats, nil
}

func (m *memActivityRepo) AggregateForGoal(ctx context.Context, userID string, agg domain.GoalAggregation) (float64, error) {
	filter := domain.ActivityFilter{
		ActivityType: agg.ActivityType,
		StartDate:    &agg.StartDate,
		EndDate:      &agg.EndDate,
	}
	var value float64
	for _, a := range m.match(userID, filter) {
		switch agg.GoalType {
		case domain.GoalTypeDistance:
			if a.DistanceKm != nil {
				value += *a.DistanceKm
			}
		case domain.GoalTypeDuration:
			value += float64(a.DurationMin)
		case domain.GoalTypeCalories:
			if a.CaloriesBurned != nil {
				value += float64(*a.CaloriesBurned)
			}
		case domain.GoalTypeFrequency:
			value++
		}
	}
	return value, nil
}

func (m *memActivityRepo) match(userID string, filter domain.ActivityFilter) []domain.Activity {
	matched := make([]domain.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		if a.UserID != userID {
			continue
		}
		if filter.ActivityType != "" && a.ActivityType != filter.ActivityType {
			continue
		}
		if filter.Intensity != "" && a.Intensity != filter.Intensity {
			continue
		}
		if filter.Search != "" && !searchMatch(&a, filter.Search) {
			continue
		}
		if filter.StartDate != nil && a.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && a.Date.After(*filter.EndDate) {
			continue
		}
		if filter.MinDuration != nil && a.DurationMin < *filter.MinDuration {
			continue
		}
		if filter.MaxDuration != nil && a.DurationMin > *filter.MaxDuration {
			continue
		}
		if filter.MinDistance != nil && (a.DistanceKm == nil || *a.DistanceKm < *filter.MinDistance) {
			continue
		}
		if filter.MaxDistance != nil && (a.DistanceKm == nil || *a.DistanceKm > *filter.MaxDistance) {
			continue
		}
		if filter.MinCalories != nil && (a.CaloriesBurned == nil || *a.CaloriesBurned < *filter.MinCalories) {
			continue
		}
		if filter.MaxCalories != nil && (a.CaloriesBurned == nil || *a.CaloriesBurned > *filter.MaxCalories) {
			continue
		}
		matched = append(matched, a)
	}
	return matched
}

func searchMatch(a *domain.Activity, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{a.Title, a.Notes, a.Location} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortActivities(items []domain.Activity, order domain.Ordering) {
	key := func(a *domain.Activity) float64 {
		switch order.Field {
		case "duration":
			return float64(a.DurationMin)
		case "distance":
			if a.DistanceKm == nil {
				return 0
			}
			return *a.DistanceKm
		case "calories_burned":
			if a.CaloriesBurned == nil {
				return 0
			}
			return float64(*a.CaloriesBurned)
		case "created_at":
			return float64(a.CreatedAt.UnixNano())
		default:
			return float64(a.Date.UnixNano())
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(&items[i]), key(&items[j])
		if ki != kj {
			if order.Desc {
				return ki > kj
			}
			return ki < kj
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

type memGoalRepo struct {
	goals []domain.Goal
}

func (m *memGoalRepo) Create(ctx context.Context, goal domain.Goal) error {
	m.goals = append(m.goals, goal)
	return nil
}

func (m *memGoalRepo) Get(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	for i := range m.goals {
		if m.goals[i].UserID == userID && m.goals[i].ID == goalID {
			g := m.goals[i]
			return &g, nil
		}
	}
	return nil, nil
}

func (m *memGoalRepo) ListByUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	out := make([]domain.Goal, 0)
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGoalRepo) Update(ctx context.Context, goal domain.Goal) (bool, error) {
	for i := range m.goals {
		if m.goals[i].UserID == goal.UserID && m.goals[i].ID == goal.ID {
			m.goals[i] = goal
			return true, nil
		}
	}
	return false, nil
}

func (m *memGoalRepo) Delete(ctx context.Context, userID, goalID string) (bool, error) {
	for i := range m.goals {
		if m.goals[i].UserID == userID && m.goals[i].ID == goalID {
			m.goals = append(m.goals[:i], m.goals[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
