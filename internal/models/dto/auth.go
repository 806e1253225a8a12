package dto

import "github.com/hongminglow/pawfam/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
	Message string            `json:"message,omitempty"`
}

type MeResponse struct {
	User models.PublicUser `json:"user"`
}

type SendResetOTPRequest struct {
	Email string `json:"email"`
}

type SendResetOTPResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type VerifyResetOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResetOTPResponse struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}
