package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/types"
)

// handleHealth reports 500 once a notification could not be delivered
func handleHealth(health *model.HealthState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := health.Status(types.ServiceName, types.Version)

		code := http.StatusOK
		if status.Result != model.HealthResultOK {
			code = http.StatusInternalServerError
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{
		"message": "Welcome to the GitLab Webhooks to Telegram bot",
	})
}
