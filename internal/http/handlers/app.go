package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/transform"
)

// TransformationRunner is the orchestrator surface the HTTP layer consumes.
type TransformationRunner interface {
	Run(ctx context.Context, req transform.Request) (*transform.Result, error)
}

// RunStore records orchestration runs. It may be nil when no database is
// configured; recording is best effort either way.
type RunStore interface {
	Create(ctx context.Context, run *repo.TransformationRun) error
	ListRecent(ctx context.Context, limit int) ([]repo.TransformationRun, error)
}

// App carries the handler dependencies.
type App struct {
	Config *infra.Config
	Logger infra.Logger
	Runner TransformationRunner
	Runs   RunStore

	// results replays completed transformations by client request id so a
	// retried request does not resubmit billable provider work.
	results *cache.Cache
}

// NewApp wires the handler container.
func NewApp(cfg *infra.Config, logger infra.Logger, runner TransformationRunner, runs RunStore) *App {
	return &App{
		Config:  cfg,
		Logger:  logger,
		Runner:  runner,
		Runs:    runs,
		results: cache.New(15*time.Minute, 5*time.Minute),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
