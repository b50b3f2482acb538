package handler

import (
	"net/http"

	"github.com/DMarby/blobcrop/internal/health"
)

// Health is a handler for health check status
func Health(healthChecker *health.Checker) Handler {
	return func(w http.ResponseWriter, r *http.Request) *Error {
		status := healthChecker.Status()

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Content-Type", jsonMediaType)

		if !status.Healthy {
			w.WriteHeader(http.StatusInternalServerError)
		}

		return WriteJSON(w, status)
	}
}
