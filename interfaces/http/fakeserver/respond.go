package fakeserver

import (
	"encoding/json"
	"net/http"
)

// ErrorInfo is the body of every non-2xx answer
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]ErrorInfo{
		"error": {Code: code, Message: message},
	})
}

func notFound(w http.ResponseWriter, what string) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
}
