package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"

	"server/internal/adapter/repo"
	"server/internal/providers/homedesigns"
	"server/internal/transform"
)

const maxOutputCount = 4

type transformationRequest struct {
	Container string `json:"container"`
	Directory string `json:"directory"`
	FileName  string `json:"file_name"`

	DesignType  string `json:"design_type"`
	DesignStyle string `json:"design_style"`
	OutputCount int    `json:"output_count"`

	RoomType   string `json:"room_type,omitempty"`
	HouseAngle string `json:"house_angle,omitempty"`
	GardenType string `json:"garden_type,omitempty"`

	Prompt            string `json:"prompt,omitempty"`
	CustomInstruction string `json:"custom_instruction,omitempty"`
	KeepStructure     *bool  `json:"keep_structural_element,omitempty"`

	RequireTransparency bool `json:"require_transparency,omitempty"`
}

type cachedRun struct {
	status int
	result *transform.Result
}

// RunTransformation drives one orchestration run. Failures after submission
// still produce the same structured payload shape as successes, just with a
// non-2xx status.
func (a *App) RunTransformation(w http.ResponseWriter, r *http.Request) {
	var req transformationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "file_name is required")
		return
	}
	if req.OutputCount <= 0 {
		req.OutputCount = 1
	}
	if req.OutputCount > maxOutputCount {
		req.OutputCount = maxOutputCount
	}

	// A client retry with the same request id replays the finished run
	// instead of resubmitting billable provider work.
	dedupeKey := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if dedupeKey != "" {
		if v, ok := a.results.Get(dedupeKey); ok {
			cached := v.(cachedRun)
			w.Header().Set("X-Replayed", "true")
			a.json(w, cached.status, cached.result)
			return
		}
	}

	result, err := a.Runner.Run(r.Context(), transform.Request{
		Source: transform.Source{
			Container: req.Container,
			Directory: req.Directory,
			FileName:  req.FileName,
		},
		DesignType:          homedesigns.DesignType(req.DesignType),
		DesignStyle:         req.DesignStyle,
		OutputCount:         req.OutputCount,
		RoomType:            req.RoomType,
		HouseAngle:          req.HouseAngle,
		GardenType:          req.GardenType,
		Prompt:              req.Prompt,
		CustomInstruction:   req.CustomInstruction,
		KeepStructure:       req.KeepStructure,
		RequireTransparency: req.RequireTransparency,
	})

	status := http.StatusOK
	if err != nil {
		status = statusForError(err)
	}

	a.recordRun(r, &req, result)

	if err == nil && dedupeKey != "" {
		a.results.Set(dedupeKey, cachedRun{status: status, result: result}, cache.DefaultExpiration)
	}
	a.json(w, status, result)
}

// RecentTransformations lists the newest recorded runs.
func (a *App) RecentTransformations(w http.ResponseWriter, r *http.Request) {
	if a.Runs == nil {
		a.error(w, http.StatusServiceUnavailable, "history_unavailable", "run history is not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	runs, err := a.Runs.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list runs failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run history")
		return
	}
	items := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		items = append(items, map[string]any{
			"id":            run.ID,
			"design_type":   run.DesignType,
			"design_style":  run.DesignStyle,
			"source_key":    run.SourceKey,
			"job_id":        run.JobID,
			"success":       run.Success,
			"error_message": run.ErrorMessage,
			"output_count":  run.OutputCount,
			"saved_count":   run.SavedCount,
			"elapsed_ms":    run.ElapsedMS,
			"created_at":    run.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// recordRun persists run history best effort; a storage hiccup never fails
// the request.
func (a *App) recordRun(r *http.Request, req *transformationRequest, result *transform.Result) {
	if a.Runs == nil || result == nil {
		return
	}
	run := &repo.TransformationRun{
		DesignType:   result.DesignType,
		DesignStyle:  result.DesignStyle,
		SourceKey:    transform.Source{Container: req.Container, Directory: req.Directory, FileName: req.FileName}.Key(),
		JobID:        result.JobID,
		Success:      result.Success,
		ErrorMessage: result.Error,
		OutputCount:  result.OutputCount,
		SavedCount:   result.SavedCount,
		ElapsedMS:    int64(result.ElapsedSeconds * 1000),
	}
	if err := a.Runs.Create(r.Context(), run); err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: record run failed")
	}
}

// statusForError maps the orchestrator's error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var (
		tooSmall     *transform.TooSmallError
		missingField *homedesigns.MissingFieldError
		timeout      *transform.TimeoutError
		provider     *homedesigns.ProviderError
	)
	switch {
	case errors.Is(err, transform.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.As(err, &tooSmall),
		errors.Is(err, transform.ErrMissingTransparency),
		errors.As(err, &missingField):
		return http.StatusBadRequest
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &provider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
