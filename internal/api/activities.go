package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"example.com/fittrack/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateActivityRequest is the payload for POST and PUT on activities.
type CreateActivityRequest struct {
	ActivityType     string   `json:"activity_type"`
	Title            string   `json:"title"`
	Notes            string   `json:"notes"`
	Duration         int      `json:"duration"`
	Distance         *float64 `json:"distance"`
	CaloriesBurned   *int     `json:"calories_burned"`
	Intensity        string   `json:"intensity"`
	Date             string   `json:"date"`
	Location         string   `json:"location"`
	AverageHeartRate *int     `json:"average_heart_rate"`
	MaxHeartRate     *int     `json:"max_heart_rate"`
	ElevationGain    *float64 `json:"elevation_gain"`
}

func (req CreateActivityRequest) toInput() (domain.ActivityInput, error) {
	input := domain.ActivityInput{
		ActivityType:     req.ActivityType,
		Title:            req.Title,
		Notes:            req.Notes,
		DurationMin:      req.Duration,
		DistanceKm:       req.Distance,
		CaloriesBurned:   req.CaloriesBurned,
		Intensity:        req.Intensity,
		Location:         req.Location,
		AverageHeartRate: req.AverageHeartRate,
		MaxHeartRate:     req.MaxHeartRate,
		ElevationGainM:   req.ElevationGain,
	}
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			verr := domain.NewValidationError()
			verr.Add("date", "Date has wrong format. Use YYYY-MM-DD.")
			return domain.ActivityInput{}, verr
		}
		input.Date = parsed
	}
	return input, nil
}

// ListActivitiesResponse packages one page of results.
type ListActivitiesResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []ActivityView `json:"results"`
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	activity, err := h.activities.CreateActivity(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*activity))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	verr := domain.NewValidationError()
	filter := parseActivityFilter(query, verr)
	page := parsePositiveInt(query, "page", 1, verr)
	pageSize := parsePositiveInt(query, "page_size", defaultPageSize, verr)
	if pageSize > maxPageSize {
		verr.Add("page_size", "Page size cannot exceed 100.")
	}
	order, err := domain.ParseOrdering(query.Get("ordering"))
	if err != nil {
		if oerr, ok := domain.AsValidationError(err); ok {
			for field, messages := range oerr.Fields {
				for _, message := range messages {
					verr.Add(field, message)
				}
			}
		}
	}
	if !verr.Empty() {
		writeValidationError(w, verr)
		return
	}

	items, total, err := h.activities.ListActivities(r.Context(), userID, filter, order, page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	results := make([]ActivityView, 0, len(items))
	for _, item := range items {
		results = append(results, toActivityView(item))
	}

	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Count:    total,
		Next:     pageLink(r, page+1, page*pageSize < total),
		Previous: pageLink(r, page-1, page > 1),
		Results:  results,
	})
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		activity, err := h.activities.GetActivity(r.Context(), userID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toActivityView(*activity))
	case http.MethodPut:
		var req CreateActivityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Unable to parse request body.")
			return
		}
		input, err := req.toInput()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		activity, err := h.activities.UpdateActivity(r.Context(), userID, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toActivityView(*activity))
	case http.MethodPatch:
		patch, err := decodeActivityPatch(r)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		activity, err := h.activities.PatchActivity(r.Context(), userID, id, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toActivityView(*activity))
	case http.MethodDelete:
		if err := h.activities.DeleteActivity(r.Context(), userID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

// PatchActivityRequest is the payload for PATCH on an activity. Absent fields
// are left unchanged.
type PatchActivityRequest struct {
	ActivityType     *string  `json:"activity_type"`
	Title            *string  `json:"title"`
	Notes            *string  `json:"notes"`
	Duration         *int     `json:"duration"`
	Distance         *float64 `json:"distance"`
	CaloriesBurned   *int     `json:"calories_burned"`
	Intensity        *string  `json:"intensity"`
	Date             *string  `json:"date"`
	Location         *string  `json:"location"`
	AverageHeartRate *int     `json:"average_heart_rate"`
	MaxHeartRate     *int     `json:"max_heart_rate"`
	ElevationGain    *float64 `json:"elevation_gain"`
}

func decodeActivityPatch(r *http.Request) (domain.ActivityPatch, error) {
	var req PatchActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := domain.NewValidationError()
		verr.Add("body", "Unable to parse request body.")
		return domain.ActivityPatch{}, verr
	}

	patch := domain.ActivityPatch{
		ActivityType:     req.ActivityType,
		Title:            req.Title,
		Notes:            req.Notes,
		DurationMin:      req.Duration,
		DistanceKm:       req.Distance,
		CaloriesBurned:   req.CaloriesBurned,
		Intensity:        req.Intensity,
		Location:         req.Location,
		AverageHeartRate: req.AverageHeartRate,
		MaxHeartRate:     req.MaxHeartRate,
		ElevationGainM:   req.ElevationGain,
	}
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			verr := domain.NewValidationError()
			verr.Add("date", "Date has wrong format. Use YYYY-MM-DD.")
			return domain.ActivityPatch{}, verr
		}
		patch.Date = &parsed
	}
	return patch, nil
}

// ActivityMetricsResponse is the aggregation payload for the metrics endpoint.
type ActivityMetricsResponse struct {
	TotalActivities    int            `json:"total_activities"`
	TotalDuration      int            `json:"total_duration"`
	TotalDistance      float64        `json:"total_distance"`
	TotalCalories      int            `json:"total_calories"`
	AverageDuration    float64        `json:"average_duration"`
	AverageDistance    float64        `json:"average_distance"`
	AverageCalories    float64        `json:"average_calories"`
	MostCommonActivity *string        `json:"most_common_activity"`
	ActivityBreakdown  map[string]int `json:"activity_breakdown"`
	Period             PeriodView     `json:"period"`
}

// PeriodView echoes the effective date range of an aggregation.
type PeriodView struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

func (h *Handler) activityMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	verr := domain.NewValidationError()
	filter := parseActivityFilter(query, verr)

	// period is a shortcut for start_date relative to today. The anchor is
	// the calendar date, not the wall clock, so the boundary day stays in
	// range.
	if period := query.Get("period"); period != "" {
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		var days int
		switch period {
		case "week":
			days = 7
		case "month":
			days = 30
		case "year":
			days = 365
		default:
			verr.Add("period", "Period must be one of week, month, year.")
		}
		if days > 0 {
			start := today.AddDate(0, 0, -days)
			filter.StartDate = &start
		}
	}
	if !verr.Empty() {
		writeValidationError(w, verr)
		return
	}

	metrics, err := h.activities.Metrics(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ActivityMetricsResponse{
		TotalActivities:   metrics.TotalActivities,
		TotalDuration:     metrics.TotalDuration,
		TotalDistance:     round2(metrics.TotalDistance),
		TotalCalories:     metrics.TotalCalories,
		AverageDuration:   round2(metrics.AverageDuration),
		AverageDistance:   round2(metrics.AverageDistance),
		AverageCalories:   round2(metrics.AverageCalories),
		ActivityBreakdown: metrics.ActivityBreakdown,
		Period: PeriodView{
			StartDate: formatDatePtr(metrics.PeriodStart),
			EndDate:   formatDatePtr(metrics.PeriodEnd),
		},
	}
	if metrics.MostCommonActivity != "" {
		mostCommon := metrics.MostCommonActivity
		resp.MostCommonActivity = &mostCommon
	}
	writeJSON(w, http.StatusOK, resp)
}

// ActivityTypeStatsView is one row of the type-stats payload.
type ActivityTypeStatsView struct {
	ActivityType    string  `json:"activity_type"`
	Count           int     `json:"count"`
	TotalDuration   int     `json:"total_duration"`
	TotalDistance   float64 `json:"total_distance"`
	TotalCalories   int     `json:"total_calories"`
	AverageDuration float64 `json:"average_duration"`
	AverageDistance float64 `json:"average_distance"`
	AverageCalories float64 `json:"average_calories"`
}

func (h *Handler) activityTypeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	verr := domain.NewValidationError()
	startDate := parseDateParam(query, "start_date", verr)
	endDate := parseDateParam(query, "end_date", verr)
	if !verr.Empty() {
		writeValidationError(w, verr)
		return
	}

	stats, err := h.activities.TypeStats(r.Context(), userID, startDate, endDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]ActivityTypeStatsView, 0, len(stats))
	for _, stat := range stats {
		views = append(views, ActivityTypeStatsView{
			ActivityType:    stat.ActivityType,
			Count:           stat.Count,
			TotalDuration:   stat.TotalDuration,
			TotalDistance:   round2(stat.TotalDistance),
			TotalCalories:   stat.TotalCalories,
			AverageDuration: round2(stat.AverageDuration),
			AverageDistance: round2(stat.AverageDistance),
			AverageCalories: round2(stat.AverageCalories),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) recentActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	items, err := h.activities.RecentActivities(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]ActivityView, 0, len(items))
	for _, item := range items {
		views = append(views, toActivityView(item))
	}
	writeJSON(w, http.StatusOK, views)
}

func parseActivityFilter(query url.Values, verr *domain.ValidationError) domain.ActivityFilter {
	filter := domain.ActivityFilter{
		ActivityType: query.Get("activity_type"),
		Search:       query.Get("search"),
	}
	if intensity := query.Get("intensity"); intensity != "" {
		if !domain.ValidIntensity(intensity) {
			verr.Add("intensity", "Intensity must be one of LOW, MODERATE, HIGH, EXTREME.")
		}
		filter.Intensity = intensity
	}
	filter.StartDate = parseDateParam(query, "start_date", verr)
	filter.EndDate = parseDateParam(query, "end_date", verr)
	filter.MinDuration = parseIntParam(query, "min_duration", verr)
	filter.MaxDuration = parseIntParam(query, "max_duration", verr)
	filter.MinDistance = parseFloatParam(query, "min_distance", verr)
	filter.MaxDistance = parseFloatParam(query, "max_distance", verr)
	filter.MinCalories = parseIntParam(query, "min_calories", verr)
	filter.MaxCalories = parseIntParam(query, "max_calories", verr)
	return filter
}

func parseDateParam(query url.Values, key string, verr *domain.ValidationError) *time.Time {
	raw := query.Get(key)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		verr.Add(key, "Date has wrong format. Use YYYY-MM-DD.")
		return nil
	}
	return &parsed
}

func parseIntParam(query url.Values, key string, verr *domain.ValidationError) *int {
	raw := query.Get(key)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "A valid integer is required.")
		return nil
	}
	return &parsed
}

func parseFloatParam(query url.Values, key string, verr *domain.ValidationError) *float64 {
	raw := query.Get(key)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		verr.Add(key, "A valid number is required.")
		return nil
	}
	return &parsed
}

func parsePositiveInt(query url.Values, key string, fallback int, verr *domain.ValidationError) int {
	raw := query.Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		verr.Add(key, "A valid positive integer is required.")
		return fallback
	}
	return parsed
}

// pageLink builds a relative URL for an adjacent page, nil at the edges.
func pageLink(r *http.Request, page int, exists bool) *string {
	if !exists {
		return nil
	}
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
