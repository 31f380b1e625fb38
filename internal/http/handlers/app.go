package handlers

import (
	"encoding/json"
	"net/http"

	"virezo-server/internal/generation"
	"virezo-server/internal/infra"
	"virezo-server/internal/registry"
)

// App bundles the collaborators the HTTP handlers need.
type App struct {
	Orchestrator *generation.Orchestrator
	Registry     registry.Store
	Logger       infra.Logger
}

// NewApp creates the handler container.
func NewApp(orc *generation.Orchestrator, store registry.Store, logger infra.Logger) *App {
	return &App{Orchestrator: orc, Registry: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
