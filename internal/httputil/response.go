package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the {code, message, data} wrapper shared with the backend.
// Code 0 means success.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes v as JSON with the given HTTP status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// WriteOK writes data in a success envelope.
func WriteOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Envelope{Code: 0, Message: "success", Data: data})
}

// WriteError writes an error envelope whose code mirrors the HTTP status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Code: status, Message: message})
}
