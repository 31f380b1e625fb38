package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"virezo-server/internal/domain"
	"virezo-server/internal/generation"
	"virezo-server/internal/middleware"
)

type videoGenerateRequest struct {
	StartImage  string   `json:"start_image"`
	EndImage    string   `json:"end_image,omitempty"`
	Prompt      string   `json:"prompt"`
	StyleHints  []string `json:"style_hints,omitempty"`
	RequesterID string   `json:"requester_id"`
}

type videoGenerateResponse struct {
	Status      string `json:"status"`
	OperationID string `json:"operation_id"`
}

// VideosGenerate accepts a generation request and responds immediately with
// the operation ID; the work itself continues in the background and is
// observed through VideoStatus.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	requester := req.RequesterID
	if requester == "" {
		requester = r.Header.Get("X-User-ID")
	}

	operationID, err := a.Orchestrator.Generate(r.Context(), generation.Input{
		StartImage:  req.StartImage,
		EndImage:    req.EndImage,
		Prompt:      req.Prompt,
		StyleHints:  req.StyleHints,
		RequesterID: requester,
		Country:     middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthRequired):
			a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for video generation")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "unknown requester")
		default:
			a.Logger.Error().Err(err).Msg("handlers: video generate failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to start video generation")
		}
		return
	}

	a.json(w, http.StatusAccepted, videoGenerateResponse{Status: "processing", OperationID: operationID})
}

// VideoStatus reports operation progress. An absent record is reported as
// still processing: the orchestrator registers the record before handing out
// the ID, so absence is either transient or a consumed terminal result.
// Terminal records are deleted on first read.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	operationID := r.URL.Query().Get("operation_id")
	if operationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "operation_id required")
		return
	}

	op, err := a.Registry.Get(r.Context(), operationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, map[string]string{
				"status":  string(domain.OperationProcessing),
				"message": "Your video is still being generated",
			})
			return
		}
		a.Logger.Error().Err(err).Str("operation_id", operationID).Msg("handlers: status read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read operation status")
		return
	}

	if op.Terminal() {
		if err := a.Registry.Delete(r.Context(), operationID); err != nil {
			a.Logger.Warn().Err(err).Str("operation_id", operationID).Msg("handlers: terminal record delete failed")
		}
	}

	a.json(w, http.StatusOK, op)
}
