// Package response writes the wire envelope shared by every JSON endpoint:
// {"code": <business code>, "message": <string>, "data": <payload|null>}.
package response

import (
	"encoding/json"
	"net/http"
)

// Business codes carried in the envelope, distinct from HTTP status codes.
const (
	CodeOK              = 20000
	CodeUnauthenticated = 40100
	CodeValidation      = 40201
	CodeNotFound        = 40401
	CodeRateLimited     = 42900
	CodeInternal        = 50200
)

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// JSON writes a success envelope with HTTP 200.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: CodeOK, Message: "Success", Data: data})
}

// Created writes a success envelope with HTTP 201.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Code: CodeOK, Message: "Success", Data: data})
}

// Error writes an error envelope with a null data field.
func Error(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, envelope{Code: code, Message: message, Data: nil})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
