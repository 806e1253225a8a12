package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/pawfam/internal/http/respond"
	"github.com/hongminglow/pawfam/internal/models/dto"
	"github.com/hongminglow/pawfam/internal/recovery"
	"github.com/hongminglow/pawfam/internal/storage"
)

// RecoveryHandler serves the emailed-code password reset.
type RecoveryHandler struct {
	recovery *recovery.Service
	logger   *slog.Logger
}

func NewRecoveryHandler(svc *recovery.Service, logger *slog.Logger) *RecoveryHandler {
	return &RecoveryHandler{recovery: svc, logger: logger}
}

func (h *RecoveryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/send-reset-otp", h.handleSend)
	mux.HandleFunc("/verify-reset-otp", h.handleVerify)
}

func (h *RecoveryHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.SendResetOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := h.recovery.RequestReset(r.Context(), req.Email)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, dto.SendResetOTPResponse{
			Message: "OTP has been sent to your email address",
			Email:   email,
		})
	case errors.Is(err, recovery.ErrMissingEmail):
		respond.Error(w, http.StatusBadRequest, "Please provide email address")
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "No account found with this email address")
	case errors.Is(err, recovery.ErrRateLimited):
		respond.Error(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	default:
		h.logger.ErrorContext(r.Context(), "send reset otp failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to send OTP. Please try again later.")
	}
}

func (h *RecoveryHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.VerifyResetOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.recovery.VerifyReset(r.Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, dto.VerifyResetOTPResponse{
			Message:  "OTP verified successfully. A temporary password has been sent to your email address. Please change it after logging in.",
			Verified: true,
		})
	case errors.Is(err, recovery.ErrMissingCode):
		respond.Error(w, http.StatusBadRequest, "Please provide email and OTP")
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, recovery.ErrNoPendingCode):
		respond.Error(w, http.StatusBadRequest, "No OTP found. Please request a new OTP.")
	case errors.Is(err, recovery.ErrCodeExpired):
		respond.Error(w, http.StatusBadRequest, "OTP has expired. Please request a new OTP.")
	case errors.Is(err, recovery.ErrCodeInvalid):
		respond.Error(w, http.StatusBadRequest, "Invalid OTP. Please try again.")
	case errors.Is(err, recovery.ErrRateLimited):
		respond.Error(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
	default:
		h.logger.ErrorContext(r.Context(), "verify reset otp failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to verify OTP. Please try again.")
	}
}
