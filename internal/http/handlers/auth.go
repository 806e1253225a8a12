package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/pawfam/internal/account"
	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/http/respond"
	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/models/dto"
	"github.com/hongminglow/pawfam/internal/storage"
)

// AuthHandler owns the register, login and session endpoints.
type AuthHandler struct {
	accounts    *account.Service
	store       storage.UserStore
	requireAuth func(http.Handler) http.Handler
	logger      *slog.Logger
}

// NewAuthHandler constructs the handler. requireAuth guards /me.
func NewAuthHandler(accounts *account.Service, store storage.UserStore, requireAuth func(http.Handler) http.Handler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, store: store, requireAuth: requireAuth, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.register(models.RoleCustomer, "User registered successfully", "Server error during registration"))
	mux.HandleFunc("/vendor/register", h.register(models.RoleVendor, "Vendor registered successfully", "Server error during vendor registration"))
	mux.HandleFunc("/login", h.login(false, "Login successful", "Server error during login"))
	mux.HandleFunc("/vendor/login", h.login(true, "Vendor login successful", "Server error during vendor login"))
	mux.HandleFunc("/forgot-password", h.handleForgotPassword)
	mux.Handle("/me", h.requireAuth(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) register(role models.Role, success, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req dto.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password, role)
		if err != nil {
			h.writeAccountError(w, r, err, failure)
			return
		}
		respond.JSON(w, http.StatusCreated, dto.AuthResponse{
			Token:   session.Token,
			User:    session.User.Public(),
			Message: success,
		})
	}
}

func (h *AuthHandler) login(vendorOnly bool, success, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req dto.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := h.accounts.Login(r.Context(), req.Email, req.Password, vendorOnly)
		if err != nil {
			h.writeAccountError(w, r, err, failure)
			return
		}
		respond.JSON(w, http.StatusOK, dto.AuthResponse{
			Token:   session.Token,
			User:    session.User.Public(),
			Message: success,
		})
	}
}

// handleForgotPassword only points callers at the OTP flow.
func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.store.FindByEmail(r.Context(), account.NormalizeEmail(req.Email)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "forgot password lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "Please use the new OTP-based password reset feature",
	})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	respond.JSON(w, http.StatusOK, dto.MeResponse{User: user.Public()})
}

func (h *AuthHandler) writeAccountError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	var (
		validation *account.ValidationError
		conflict   *storage.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		respond.Error(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &conflict):
		respond.Error(w, http.StatusBadRequest, conflictMessage(conflict.Field))
	case errors.Is(err, account.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, "Invalid credentials")
	default:
		h.logger.ErrorContext(r.Context(), "account request failed", "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, failure)
	}
}

func conflictMessage(field string) string {
	switch field {
	case "email":
		return "User already exists with this email"
	case "username":
		return "Username is already taken"
	default:
		return "This " + field + " is already registered"
	}
}
