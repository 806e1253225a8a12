package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hongminglow/pawfam/internal/http/respond"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst, answering 400 itself when the
// payload is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		respond.MethodNotAllowed(w)
		return false
	}
	return true
}
