package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodshare-backend/api/responses"
	"github.com/angelmondragon/foodshare-backend/pkg/config"
	"github.com/angelmondragon/foodshare-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
	"github.com/angelmondragon/foodshare-backend/pkg/logger"
	"github.com/angelmondragon/foodshare-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodShare-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and session store answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, sessions redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodShare-Env", cfg.App.Env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if sessions != nil {
			if err := sessions.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
