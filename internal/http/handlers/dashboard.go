package handlers

import (
	"net/http"

	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/dashboard"
	"github.com/hongminglow/pawfam/internal/http/respond"
)

// DashboardHandler renders the signed-in customer's booking summary.
type DashboardHandler struct {
	dashboard   *dashboard.Service
	requireAuth func(http.Handler) http.Handler
}

func NewDashboardHandler(svc *dashboard.Service, requireAuth func(http.Handler) http.Handler) *DashboardHandler {
	return &DashboardHandler{dashboard: svc, requireAuth: requireAuth}
}

func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.Handle("/dashboard", h.requireAuth(http.HandlerFunc(h.handle)))
}

func (h *DashboardHandler) handle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	token, _ := auth.BearerToken(r)
	respond.JSON(w, http.StatusOK, h.dashboard.Report(r.Context(), token))
}
