package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Haven-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency. A nil pinger is reported as
// skipped so optional services don't fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, blobs Pinger) http.HandlerFunc {
	checks := []struct {
		name   string
		pinger Pinger
	}{
		{"database", db},
		{"redis", redis},
		{"storage", blobs},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Haven-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := map[string]string{}
		healthy := true
		for _, check := range checks {
			if check.pinger == nil {
				statuses[check.name] = "skipped"
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				statuses[check.name] = "down"
				healthy = false
				if logg != nil {
					logCtx := logg.WithFields(r.Context(), map[string]any{
						"dependency": check.name,
						"error":      err.Error(),
					})
					logg.Warn(logCtx, "readiness check failed")
				}
				continue
			}
			statuses[check.name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
