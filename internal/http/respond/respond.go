package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("respond: encode payload failed", "error", err)
	}
}

// Error writes {"message": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// MethodNotAllowed rejects a request whose method the route does not serve.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
