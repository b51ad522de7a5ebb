package api

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the body of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Driver string `json:"driver,omitempty"`
}

// HealthHandler returns a handler for GET /health reporting the active
// store driver.
func HealthHandler(driver string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Driver: driver})
	}
}
