// Package respond writes JSON responses in the service's error shape.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the only error shape clients ever see.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody. message defaults to the status text.
func Error(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	JSON(w, status, ErrorBody{StatusCode: status, Message: message})
}
