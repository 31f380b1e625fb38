package handlers

import "net/http"

// Health reports liveness for load balancer checks.
func (a *App) Health(w http.ResponseWriter, _ *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "virezo-api",
	})
}
