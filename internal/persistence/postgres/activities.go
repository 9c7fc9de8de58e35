package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/observability"
)

// ActivityRepository provides Postgres-backed persistence for activities.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

const activityColumns = `activity_id, user_id, activity_type, title, notes, duration_min, distance_km, calories_burned, intensity, activity_date, location, average_heart_rate, max_heart_rate, elevation_gain_m, created_at, updated_at`

// Create persists a new activity row.
func (r *ActivityRepository) Create(ctx context.Context, activity domain.Activity) error {
	const stmt = `INSERT INTO activities (` + activityColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	_, err := r.pool.Exec(ctx, stmt,
		activity.ID,
		activity.UserID,
		activity.ActivityType,
		activity.Title,
		activity.Notes,
		activity.DurationMin,
		activity.DistanceKm,
		activity.CaloriesBurned,
		activity.Intensity,
		activity.Date,
		activity.Location,
		activity.AverageHeartRate,
		activity.MaxHeartRate,
		activity.ElevationGainM,
		activity.CreatedAt,
		activity.UpdatedAt,
	)
	if err != nil {
		return err
	}
	observability.RecordActivityLogged(activity.CreatedAt)
	return nil
}

// Get retrieves an activity scoped to its owner. Missing rows yield (nil, nil).
func (r *ActivityRepository) Get(ctx context.Context, userID, activityID string) (*domain.Activity, error) {
	const query = `SELECT ` + activityColumns + ` FROM activities WHERE user_id=$1 AND activity_id=$2`

	activity, err := scanActivity(r.pool.QueryRow(ctx, query, userID, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return activity, nil
}

// List returns one page of the user's activities plus the total match count.
func (r *ActivityRepository) List(ctx context.Context, userID string, filter domain.ActivityFilter, order domain.Ordering, offset, limit int) ([]domain.Activity, int, error) {
	where, args := buildActivityWhere(userID, filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM activities WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE ` + where +
		` ORDER BY ` + orderClause(order) +
		fmt.Sprintf(` OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := make([]domain.Activity, 0, limit)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Update replaces the mutable fields of an activity, scoped to its owner.
func (r *ActivityRepository) Update(ctx context.Context, activity domain.Activity) (bool, error) {
	const stmt = `UPDATE activities SET activity_type=$3, title=$4, notes=$5, duration_min=$6, distance_km=$7, calories_burned=$8, intensity=$9, activity_date=$10, location=$11, average_heart_rate=$12, max_heart_rate=$13, elevation_gain_m=$14, updated_at=$15
        WHERE user_id=$1 AND activity_id=$2`

	tag, err := r.pool.Exec(ctx, stmt,
		activity.UserID,
		activity.ID,
		activity.ActivityType,
		activity.Title,
		activity.Notes,
		activity.DurationMin,
		activity.DistanceKm,
		activity.CaloriesBurned,
		activity.Intensity,
		activity.Date,
		activity.Location,
		activity.AverageHeartRate,
		activity.MaxHeartRate,
		activity.ElevationGainM,
		activity.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an activity, scoped to its owner.
func (r *ActivityRepository) Delete(ctx context.Context, userID, activityID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE user_id=$1 AND activity_id=$2`, userID, activityID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Summary computes the aggregate statistics for the metrics endpoint in two
// queries: one for the totals/averages, one for the per-type breakdown.
func (r *ActivityRepository) Summary(ctx context.Context, userID string, filter domain.ActivityFilter) (domain.ActivitySummary, error) {
	where, args := buildActivityWhere(userID, filter)

	query := `SELECT COUNT(*),
        COALESCE(SUM(duration_min), 0)::float8,
        COALESCE(SUM(distance_km), 0)::float8,
        COALESCE(SUM(calories_burned), 0)::float8,
        COALESCE(AVG(duration_min), 0)::float8,
        COALESCE(AVG(distance_km), 0)::float8,
        COALESCE(AVG(calories_burned), 0)::float8,
        MIN(activity_date), MAX(activity_date)
        FROM activities WHERE ` + where

	summary := domain.ActivitySummary{ActivityBreakdown: make(map[string]int)}
	var totalDuration, totalCalories float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&summary.TotalActivities,
		&totalDuration,
		&summary.TotalDistance,
		&totalCalories,
		&summary.AverageDuration,
		&summary.AverageDistance,
		&summary.AverageCalories,
		&summary.EarliestDate,
		&summary.LatestDate,
	)
	if err != nil {
		return domain.ActivitySummary{}, err
	}
	summary.TotalDuration = int(totalDuration)
	summary.TotalCalories = int(totalCalories)

	breakdownQuery := `SELECT activity_type, COUNT(*) FROM activities WHERE ` + where +
		` GROUP BY activity_type ORDER BY COUNT(*) DESC, activity_type ASC`

	rows, err := r.pool.Query(ctx, breakdownQuery, args...)
	if err != nil {
		return domain.ActivitySummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var activityType string
		var count int
		if err := rows.Scan(&activityType, &count); err != nil {
			return domain.ActivitySummary{}, err
		}
		if summary.MostCommonActivity == "" {
			summary.MostCommonActivity = activityType
		}
		summary.ActivityBreakdown[activityType] = count
	}
	if err := rows.Err(); err != nil {
		return domain.ActivitySummary{}, err
	}
	return summary, nil
}

// TypeStats aggregates per activity type ordered by count descending.
func (r *ActivityRepository) TypeStats(ctx context.Context, userID string, startDate, endDate *time.Time) ([]domain.ActivityTypeStat, error) {
	filter := domain.ActivityFilter{StartDate: startDate, EndDate: endDate}
	where, args := buildActivityWhere(userID, filter)

	query := `SELECT activity_type, COUNT(*),
        COALESCE(SUM(duration_min), 0)::float8,
        COALESCE(SUM(distance_km), 0)::float8,
        COALESCE(SUM(calories_burned), 0)::float8,
        COALESCE(AVG(duration_min), 0)::float8,
        COALESCE(AVG(distance_km), 0)::float8,
        COALESCE(AVG(calories_burned), 0)::float8
        FROM activities WHERE ` + where +
		` GROUP BY activity_type ORDER BY COUNT(*) DESC, activity_type ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.ActivityTypeStat, 0)
	for rows.Next() {
		var stat domain.ActivityTypeStat
		var totalDuration, totalCalories float64
		if err := rows.Scan(
			&stat.ActivityType,
			&stat.Count,
			&totalDuration,
			&stat.TotalDistance,
			&totalCalories,
			&stat.AverageDuration,
			&stat.AverageDistance,
			&stat.AverageCalories,
		); err != nil {
			return nil, err
		}
		stat.TotalDuration = int(totalDuration)
		stat.TotalCalories = int(totalCalories)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// AggregateForGoal computes the aggregate a goal tracks over the owner's
// activities within the goal's date range.
func (r *ActivityRepository) AggregateForGoal(ctx context.Context, userID string, agg domain.GoalAggregation) (float64, error) {
	var expr string
	switch agg.GoalType {
	case domain.GoalTypeDistance:
		expr = `COALESCE(SUM(distance_km), 0)`
	case domain.GoalTypeDuration:
		expr = `COALESCE(SUM(duration_min), 0)`
	case domain.GoalTypeCalories:
		expr = `COALESCE(SUM(calories_burned), 0)`
	case domain.GoalTypeFrequency:
		expr = `COUNT(*)`
	default:
		return 0, fmt.Errorf("unknown goal type: %s", agg.GoalType)
	}

	query := `SELECT ` + expr + `::float8 FROM activities WHERE user_id=$1 AND activity_date BETWEEN $2 AND $3`
	args := []interface{}{userID, agg.StartDate, agg.EndDate}
	if agg.ActivityType != "" {
		query += ` AND activity_type=$4`
		args = append(args, agg.ActivityType)
	}

	var value float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// buildActivityWhere translates an ActivityFilter into a WHERE clause with
// positional args, always anchored on the owning user.
func buildActivityWhere(userID string, filter domain.ActivityFilter) (string, []interface{}) {
	clauses := []string{"user_id=$1"}
	args := []interface{}{userID}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.ActivityType != "" {
		add("activity_type=$%d", filter.ActivityType)
	}
	if filter.Intensity != "" {
		add("intensity=$%d", filter.Intensity)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR notes ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}
	if filter.StartDate != nil {
		add("activity_date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("activity_date <= $%d", *filter.EndDate)
	}
	if filter.MinDuration != nil {
		add("duration_min >= $%d", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		add("duration_min <= $%d", *filter.MaxDuration)
	}
	if filter.MinDistance != nil {
		add("distance_km >= $%d", *filter.MinDistance)
	}
	if filter.MaxDistance != nil {
		add("distance_km <= $%d", *filter.MaxDistance)
	}
	if filter.MinCalories != nil {
		add("calories_burned >= $%d", *filter.MinCalories)
	}
	if filter.MaxCalories != nil {
		add("calories_burned <= $%d", *filter.MaxCalories)
	}

	return strings.Join(clauses, " AND "), args
}

// orderClause maps a validated Ordering onto columns. Ties fall back to
// created_at and id so pages are stable.
func orderClause(order domain.Ordering) string {
	columns := map[string]string{
		"date":            "activity_date",
		"duration":        "duration_min",
		"distance":        "distance_km",
		"calories_burned": "calories_burned",
		"created_at":      "created_at",
	}
	column, ok := columns[order.Field]
	if !ok {
		column = "activity_date"
	}
	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, created_at DESC, activity_id DESC", column, direction)
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	err := row.Scan(
		&activity.ID,
		&activity.UserID,
		&activity.ActivityType,
		&activity.Title,
		&activity.Notes,
		&activity.DurationMin,
		&activity.DistanceKm,
		&activity.CaloriesBurned,
		&activity.Intensity,
		&activity.Date,
		&activity.Location,
		&activity.AverageHeartRate,
		&activity.MaxHeartRate,
		&activity.ElevationGainM,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &activity, nil
}
