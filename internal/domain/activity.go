package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Intensity levels accepted on activities.
const (
	IntensityLow      = "LOW"
	IntensityModerate = "MODERATE"
	IntensityHigh     = "HIGH"
	IntensityExtreme  = "EXTREME"
)

var intensityLevels = map[string]struct{}{
	IntensityLow: {}, IntensityModerate: {}, IntensityHigh: {}, IntensityExtreme: {},
}

// ValidIntensity reports whether level is a known intensity value.
func ValidIntensity(level string) bool {
	_, ok := intensityLevels[level]
	return ok
}

// Activity is the canonical workout record stored in PostgreSQL.
type Activity struct {
	ID               string
	UserID           string
	ActivityType     string
	Title            string
	Notes            string
	DurationMin      int
	DistanceKm       *float64
	CaloriesBurned   *int
	Intensity        string
	Date             time.Time
	Location         string
	AverageHeartRate *int
	MaxHeartRate     *int
	ElevationGainM   *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Pace derives minutes per kilometer for distance-based activities.
func (a *Activity) Pace() *float64 {
	if a.DistanceKm == nil || *a.DistanceKm <= 0 {
		return nil
	}
	pace := math.Round(float64(a.DurationMin) / *a.DistanceKm * 100) / 100
	return &pace
}

// Speed derives average km/h for distance-based activities.
func (a *Activity) Speed() *float64 {
	if a.DistanceKm == nil || *a.DistanceKm <= 0 || a.DurationMin <= 0 {
		return nil
	}
	hours := float64(a.DurationMin) / 60
	speed := math.Round(*a.DistanceKm / hours * 100) / 100
	return &speed
}

// ActivityFilter narrows an activity query. Nil fields are not applied; date
// bounds are inclusive.
type ActivityFilter struct {
	ActivityType string
	Intensity    string
	Search       string
	StartDate    *time.Time
	EndDate      *time.Time
	MinDuration  *int
	MaxDuration  *int
	MinDistance  *float64
	MaxDistance  *float64
	MinCalories  *int
	MaxCalories  *int
}

// Ordering describes the sort column and direction of a list query.
type Ordering struct {
	Field string
	Desc  bool
}

// DefaultOrdering sorts newest activities first.
var DefaultOrdering = Ordering{Field: "date", Desc: true}

var orderableFields = map[string]struct{}{
	"date": {}, "duration": {}, "distance": {}, "calories_burned": {}, "created_at": {},
}

// ParseOrdering validates an ordering query value such as "-date".
func ParseOrdering(raw string) (Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOrdering, nil
	}
	ordering := Ordering{Field: raw}
	if strings.HasPrefix(raw, "-") {
		ordering = Ordering{Field: raw[1:], Desc: true}
	}
	if _, ok := orderableFields[ordering.Field]; !ok {
		verr := NewValidationError()
		verr.Add("ordering", fmt.Sprintf("%q is not a valid ordering field.", raw))
		return Ordering{}, verr
	}
	return ordering, nil
}

// ActivitySummary holds the raw aggregates computed by the repository for the
// metrics endpoint. Averages are over the matched rows only.
type ActivitySummary struct {
	TotalActivities    int
	TotalDuration      int
	TotalDistance      float64
	TotalCalories      int
	AverageDuration    float64
	AverageDistance    float64
	AverageCalories    float64
	MostCommonActivity string
	ActivityBreakdown  map[string]int
	EarliestDate       *time.Time
	LatestDate         *time.Time
}

// ActivityTypeStat aggregates one activity type for the type-stats endpoint.
type ActivityTypeStat struct {
	ActivityType    string
	Count           int
	TotalDuration   int
	TotalDistance   float64
	TotalCalories   int
	AverageDuration float64
	AverageDistance float64
	AverageCalories float64
}

// GoalAggregation identifies which aggregate a goal tracks over activities.
type GoalAggregation struct {
	GoalType     GoalType
	ActivityType string
	StartDate    time.Time
	EndDate      time.Time
}

// ActivityRepository captures persistence operations. Every query is scoped
// to a single owning user; there is no cross-user access path.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	Get(ctx context.Context, userID, activityID string) (*Activity, error)
	List(ctx context.Context, userID string, filter ActivityFilter, order Ordering, offset, limit int) ([]Activity, int, error)
	Update(ctx context.Context, activity Activity) (bool, error)
	Delete(ctx context.Context, userID, activityID string) (bool, error)
	Summary(ctx context.Context, userID string, filter ActivityFilter) (ActivitySummary, error)
	TypeStats(ctx context.Context, userID string, startDate, endDate *time.Time) ([]ActivityTypeStat, error)
	AggregateForGoal(ctx context.Context, userID string, agg GoalAggregation) (float64, error)
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
