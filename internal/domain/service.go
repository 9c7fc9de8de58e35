package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityService orchestrates activity CRUD and aggregation workflows.
type ActivityService struct {
	repo ActivityRepository
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// ActivityInput captures the activity payload from the API layer.
type ActivityInput struct {
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
}

func validateActivityInput(input ActivityInput) error {
	verr := NewValidationError()
	if strings.TrimSpace(input.ActivityType) == "" {
		verr.Add("activity_type", "This field is required.")
	}
	if input.DurationMin <= 0 {
		verr.Add("duration", "Duration must be a positive number of minutes.")
	}
	if input.DistanceKm != nil && *input.DistanceKm < 0 {
		verr.Add("distance", "Distance cannot be negative.")
	}
	if input.CaloriesBurned != nil && *input.CaloriesBurned < 0 {
		verr.Add("calories_burned", "Calories burned cannot be negative.")
	}
	if input.Date.IsZero() {
		verr.Add("date", "This field is required.")
	} else if input.Date.After(truncateToDate(time.Now().UTC())) {
		verr.Add("date", "Activity date cannot be in the future.")
	}
	if input.Intensity != "" && !ValidIntensity(input.Intensity) {
		verr.Add("intensity", "Intensity must be one of LOW, MODERATE, HIGH, EXTREME.")
	}
	validateHeartRate(verr, "average_heart_rate", input.AverageHeartRate)
	validateHeartRate(verr, "max_heart_rate", input.MaxHeartRate)
	if input.AverageHeartRate != nil && input.MaxHeartRate != nil && *input.AverageHeartRate > *input.MaxHeartRate {
		verr.Add("average_heart_rate", "Average heart rate cannot be greater than max heart rate.")
	}
	if input.ElevationGainM != nil && *input.ElevationGainM < 0 {
		verr.Add("elevation_gain", "Elevation gain cannot be negative.")
	}
	return verr.ErrOrNil()
}

func validateHeartRate(verr *ValidationError, field string, bpm *int) {
	if bpm != nil && (*bpm < 30 || *bpm > 220) {
		verr.Add(field, "Heart rate must be between 30 and 220 BPM.")
	}
}

// CreateActivity validates the input and persists a new activity for userID.
func (s *ActivityService) CreateActivity(ctx context.Context, userID string, input ActivityInput) (*Activity, error) {
	if err := validateActivityInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	activity := Activity{
		ID:               uuid.NewString(),
		UserID:           userID,
		ActivityType:     input.ActivityType,
		Title:            input.Title,
		Notes:            input.Notes,
		DurationMin:      input.DurationMin,
		DistanceKm:       input.DistanceKm,
		CaloriesBurned:   input.CaloriesBurned,
		Intensity:        input.Intensity,
		Date:             truncateToDate(input.Date),
		Location:         input.Location,
		AverageHeartRate: input.AverageHeartRate,
		MaxHeartRate:     input.MaxHeartRate,
		ElevationGainM:   input.ElevationGainM,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if activity.Intensity == "" {
		activity.Intensity = IntensityModerate
	}
	if strings.TrimSpace(activity.Title) == "" {
		activity.Title = fmt.Sprintf("%s - %s", activity.ActivityType, activity.Date.Format("2006-01-02"))
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetActivity fetches an activity owned by userID.
func (s *ActivityService) GetActivity(ctx context.Context, userID, activityID string) (*Activity, error) {
	activity, err := s.repo.Get(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil || !Owns(activity.UserID, userID) {
		return nil, ErrNotFound
	}
	return activity, nil
}

// ListActivities returns one page of the user's activities plus the total
// match count. page is 1-based.
func (s *ActivityService) ListActivities(ctx context.Context, userID string, filter ActivityFilter, order Ordering, page, pageSize int) ([]Activity, int, error) {
	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, filter, order, offset, pageSize)
}

// UpdateActivity replaces the mutable fields of an existing activity.
func (s *ActivityService) UpdateActivity(ctx context.Context, userID, activityID string, input ActivityInput) (*Activity, error) {
	existing, err := s.GetActivity(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if err := validateActivityInput(input); err != nil {
		return nil, err
	}

	updated := *existing
	updated.ActivityType = input.ActivityType
	updated.Title = input.Title
	updated.Notes = input.Notes
	updated.DurationMin = input.DurationMin
	updated.DistanceKm = input.DistanceKm
	updated.CaloriesBurned = input.CaloriesBurned
	updated.Intensity = input.Intensity
	updated.Date = truncateToDate(input.Date)
	updated.Location = input.Location
	updated.AverageHeartRate = input.AverageHeartRate
	updated.MaxHeartRate = input.MaxHeartRate
	updated.ElevationGainM = input.ElevationGainM
	if updated.Intensity == "" {
		updated.Intensity = IntensityModerate
	}
	if strings.TrimSpace(updated.Title) == "" {
		updated.Title = fmt.Sprintf("%s - %s", updated.ActivityType, updated.Date.Format("2006-01-02"))
	}
	updated.UpdatedAt = time.Now().UTC()

	found, err := s.repo.Update(ctx, updated)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &updated, nil
}

// ActivityPatch carries a partial update. Nil fields are left unchanged.
type ActivityPatch struct {
	ActivityType     *string
	Title            *string
	Notes            *string
	DurationMin      *int
	DistanceKm       *float64
	CaloriesBurned   *int
	Intensity        *string
	Date             *time.Time
	Location         *string
	AverageHeartRate *int
	MaxHeartRate     *int
	ElevationGainM   *float64
}

// PatchActivity applies the set fields of patch and re-validates the result.
func (s *ActivityService) PatchActivity(ctx context.Context, userID, activityID string, patch ActivityPatch) (*Activity, error) {
	existing, err := s.GetActivity(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}

	input := ActivityInput{
		ActivityType:     existing.ActivityType,
		Title:            existing.Title,
		Notes:            existing.Notes,
		DurationMin:      existing.DurationMin,
		DistanceKm:       existing.DistanceKm,
		CaloriesBurned:   existing.CaloriesBurned,
		Intensity:        existing.Intensity,
		Date:             existing.Date,
		Location:         existing.Location,
		AverageHeartRate: existing.AverageHeartRate,
		MaxHeartRate:     existing.MaxHeartRate,
		ElevationGainM:   existing.ElevationGainM,
	}
	if patch.ActivityType != nil {
		input.ActivityType = *patch.ActivityType
	}
	if patch.Title != nil {
		input.Title = *patch.Title
	}
	if patch.Notes != nil {
		input.Notes = *patch.Notes
	}
	if patch.DurationMin != nil {
		input.DurationMin = *patch.DurationMin
	}
	if patch.DistanceKm != nil {
		input.DistanceKm = patch.DistanceKm
	}
	if patch.CaloriesBurned != nil {
		input.CaloriesBurned = patch.CaloriesBurned
	}
	if patch.Intensity != nil {
		input.Intensity = *patch.Intensity
	}
	if patch.Date != nil {
		input.Date = *patch.Date
	}
	if patch.Location != nil {
		input.Location = *patch.Location
	}
	if patch.AverageHeartRate != nil {
		input.AverageHeartRate = patch.AverageHeartRate
	}
	if patch.MaxHeartRate != nil {
		input.MaxHeartRate = patch.MaxHeartRate
	}
	if patch.ElevationGainM != nil {
		input.ElevationGainM = patch.ElevationGainM
	}

	return s.UpdateActivity(ctx, userID, activityID, input)
}

// DeleteActivity removes an activity owned by userID.
func (s *ActivityService) DeleteActivity(ctx context.Context, userID, activityID string) error {
	deleted, err := s.repo.Delete(ctx, userID, activityID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ActivityMetrics combines the aggregates with the effective reporting period.
type ActivityMetrics struct {
	ActivitySummary
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// Metrics computes summary statistics over the user's filtered activity set.
// The period echoes the requested bounds, falling back to the earliest and
// latest matched activity dates.
func (s *ActivityService) Metrics(ctx context.Context, userID string, filter ActivityFilter) (ActivityMetrics, error) {
	summary, err := s.repo.Summary(ctx, userID, filter)
	if err != nil {
		return ActivityMetrics{}, err
	}

	metrics := ActivityMetrics{ActivitySummary: summary}
	if filter.StartDate != nil {
		metrics.PeriodStart = filter.StartDate
	} else {
		metrics.PeriodStart = summary.EarliestDate
	}
	if filter.EndDate != nil {
		metrics.PeriodEnd = filter.EndDate
	} else {
		metrics.PeriodEnd = summary.LatestDate
	}
	return metrics, nil
}

// TypeStats returns per-type aggregates ordered by count descending.
func (s *ActivityService) TypeStats(ctx context.Context, userID string, startDate, endDate *time.Time) ([]ActivityTypeStat, error) {
	return s.repo.TypeStats(ctx, userID, startDate, endDate)
}

const recentActivityCount = 10

// RecentActivities returns the user's latest activities by date.
func (s *ActivityService) RecentActivities(ctx context.Context, userID string) ([]Activity, error) {
	items, _, err := s.repo.List(ctx, userID, ActivityFilter{}, DefaultOrdering, 0, recentActivityCount)
	return items, err
}
