package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/onmall/onmall-backend/api/responses"
	"github.com/onmall/onmall-backend/pkg/config"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
)

const readyCheckTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OnMall-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
// Nil dependencies are skipped so partial wiring in tests stays usable.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, cacheP, mediaP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		dep  pinger
	}{
		{"db", dbP},
		{"redis", cacheP},
		{"media", mediaP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OnMall-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for _, entry := range deps {
			if entry.dep == nil {
				continue
			}
			if err := entry.dep.Ping(ctx); err != nil {
				checks[entry.name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", entry.name), "readiness check failed", err)
				}
				continue
			}
			checks[entry.name] = "up"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
