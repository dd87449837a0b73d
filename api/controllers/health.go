package controllers

import (
	"net/http"

	"github.com/angelmondragon/tierpay/api/responses"
	"github.com/angelmondragon/tierpay/pkg/config"
	"github.com/angelmondragon/tierpay/pkg/logger"
	"github.com/angelmondragon/tierpay/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TierPay-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness; redis is optional and only checked when wired.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TierPay-Env", cfg.App.Env)
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "health.redis_down", err)
				}
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
