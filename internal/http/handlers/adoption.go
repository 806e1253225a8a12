package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/pawfam/internal/adoption"
	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/collab"
	"github.com/hongminglow/pawfam/internal/http/respond"
)

// AdoptionHandler serves the pet catalogue and accepts applications.
type AdoptionHandler struct {
	adoption    *adoption.Service
	requireAuth func(http.Handler) http.Handler
	logger      *slog.Logger
}

func NewAdoptionHandler(svc *adoption.Service, requireAuth func(http.Handler) http.Handler, logger *slog.Logger) *AdoptionHandler {
	return &AdoptionHandler{adoption: svc, requireAuth: requireAuth, logger: logger}
}

func (h *AdoptionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/adoption/pets", h.handlePets)
	mux.Handle("/adoption/applications", h.requireAuth(http.HandlerFunc(h.handleApply)))
}

type petsResponse struct {
	Pets   []adoption.Listing `json:"pets"`
	Source string             `json:"source"`
}

func (h *AdoptionHandler) handlePets(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	pets, source := h.adoption.Listings(r.Context())
	respond.JSON(w, http.StatusOK, petsResponse{
		Pets:   adoption.Filter(pets, r.URL.Query().Get("q")),
		Source: source,
	})
}

func (h *AdoptionHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var app adoption.Application
	if !decodeJSON(w, r, &app) {
		return
	}
	token, _ := auth.BearerToken(r)
	created, err := h.adoption.Submit(r.Context(), token, app)
	if err != nil {
		var (
			validation *adoption.ValidationError
			apiErr     *collab.Error
		)
		switch {
		case errors.As(err, &validation):
			respond.Error(w, http.StatusBadRequest, validation.Message)
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			respond.Error(w, apiErr.Status, apiErr.Message)
		default:
			h.logger.ErrorContext(r.Context(), "submit adoption application failed", "error", err)
			respond.Error(w, http.StatusBadGateway, "Failed to submit adoption application. Please try again.")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if len(created) == 0 {
		created = []byte(`{"message":"Adoption application submitted successfully"}`)
	}
	if _, err := w.Write(created); err != nil {
		h.logger.WarnContext(r.Context(), "write application response", "error", err)
	}
}
