package api

import (
	"math"
	"time"

	"example.com/fittrack/internal/domain"
)

const dateLayout = "2006-01-02"

// ProfileView exposes the nested profile object on user responses.
type ProfileView struct {
	DateOfBirth *string  `json:"date_of_birth"`
	Gender      *string  `json:"gender"`
	Height      *float64 `json:"height"`
	Weight      *float64 `json:"weight"`
	Bio         string   `json:"bio"`
	Age         *int     `json:"age"`
	BMI         *float64 `json:"bmi"`
}

// UserView exposes account details without credentials.
type UserView struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Profile    ProfileView `json:"profile"`
	DateJoined time.Time   `json:"date_joined"`
}

func toUserView(user domain.User) UserView {
	return UserView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Profile: ProfileView{
			DateOfBirth: formatDatePtr(user.DateOfBirth),
			Gender:      user.Gender,
			Height:      user.HeightCm,
			Weight:      user.WeightKg,
			Bio:         user.Bio,
			Age:         user.Age(time.Now().UTC()),
			BMI:         user.BMI(),
		},
		DateJoined: user.CreatedAt,
	}
}

// ActivityView exposes full details about an activity, including the derived
// pace and speed fields.
type ActivityView struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ActivityType     string    `json:"activity_type"`
	Title            string    `json:"title"`
	Notes            string    `json:"notes"`
	Duration         int       `json:"duration"`
	Distance         *float64  `json:"distance"`
	CaloriesBurned   *int      `json:"calories_burned"`
	Intensity        string    `json:"intensity"`
	Date             string    `json:"date"`
	Location         string    `json:"location"`
	AverageHeartRate *int      `json:"average_heart_rate"`
	MaxHeartRate     *int      `json:"max_heart_rate"`
	ElevationGain    *float64  `json:"elevation_gain"`
	Pace             *float64  `json:"pace"`
	Speed            *float64  `json:"speed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ID:               activity.ID,
		UserID:           activity.UserID,
		ActivityType:     activity.ActivityType,
		Title:            activity.Title,
		Notes:            activity.Notes,
		Duration:         activity.DurationMin,
		Distance:         activity.DistanceKm,
		CaloriesBurned:   activity.CaloriesBurned,
		Intensity:        activity.Intensity,
		Date:             activity.Date.Format(dateLayout),
		Location:         activity.Location,
		AverageHeartRate: activity.AverageHeartRate,
		MaxHeartRate:     activity.MaxHeartRate,
		ElevationGain:    activity.ElevationGainM,
		Pace:             activity.Pace(),
		Speed:            activity.Speed(),
		CreatedAt:        activity.CreatedAt,
		UpdatedAt:        activity.UpdatedAt,
	}
}

// GoalView exposes a goal with its derived progress fields.
type GoalView struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	GoalType           string    `json:"goal_type"`
	TargetValue        float64   `json:"target_value"`
	CurrentValue       float64   `json:"current_value"`
	ProgressPercentage float64   `json:"progress_percentage"`
	IsCompleted        bool      `json:"is_completed"`
	ActivityType       *string   `json:"activity_type"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toGoalView(goal domain.Goal) GoalView {
	view := GoalView{
		ID:                 goal.ID,
		UserID:             goal.UserID,
		Title:              goal.Title,
		Description:        goal.Description,
		GoalType:           string(goal.GoalType),
		TargetValue:        goal.TargetValue,
		CurrentValue:       goal.CurrentValue,
		ProgressPercentage: goal.ProgressPercentage,
		IsCompleted:        goal.IsCompleted,
		StartDate:          goal.StartDate.Format(dateLayout),
		EndDate:            goal.EndDate.Format(dateLayout),
		CreatedAt:          goal.CreatedAt,
		UpdatedAt:          goal.UpdatedAt,
	}
	if goal.ActivityType != "" {
		activityType := goal.ActivityType
		view.ActivityType = &activityType
	}
	return view
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
