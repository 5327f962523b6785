package web

import (
	"encoding/json"
	"net/http"
)

// pagination describes the page window of a list response.
type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// envelope is the JSON wrapper on every API response.
type envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

// apiJSON writes a successful JSON response.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	writeEnvelope(w, envelope{Success: true, Data: data}, code)
}

// apiMessage writes a successful response with a human-readable note
// and no data payload.
func apiMessage(w http.ResponseWriter, msg string, code int) {
	writeEnvelope(w, envelope{Success: true, Message: msg}, code)
}

// apiPage writes a successful paginated list response.
func apiPage(w http.ResponseWriter, data interface{}, p pagination) {
	writeEnvelope(w, envelope{Success: true, Data: data, Pagination: &p}, http.StatusOK)
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	writeEnvelope(w, envelope{Success: false, Error: msg}, code)
}

func writeEnvelope(w http.ResponseWriter, env envelope, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		http.Error(w, `{"success":false,"error":"encode failed"}`, http.StatusInternalServerError)
	}
}
