package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Details string           `json:"details,omitempty"`
	Fields  []FieldViolation `json:"fields,omitempty"`
}

// FieldViolation names one request field that failed validation
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorCodes are the machine-readable codes paired with each status
var errorCodes = map[int]string{
	http.StatusBadRequest:          "bad_request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not_found",
	http.StatusLocked:              "account_locked",
	http.StatusTooManyRequests:     "rate_limit_exceeded",
	http.StatusInternalServerError: "internal_error",
	http.StatusServiceUnavailable:  "service_unavailable",
}

// WriteJSON writes v as a JSON body with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: errorCode, Message: message})
}

func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: errorCode, Message: message, Details: details})
}

// WriteStatus writes an error body using the standard code for statusCode
func WriteStatus(w http.ResponseWriter, statusCode int, message string) {
	code, ok := errorCodes[statusCode]
	if !ok {
		code = "error"
	}
	WriteError(w, statusCode, code, message)
}

// WriteValidationError reports a 400 listing every offending field
func WriteValidationError(w http.ResponseWriter, fields []FieldViolation) {
	message := "Request validation failed"
	if len(fields) > 0 {
		message = fields[0].Field + ": " + fields[0].Message
	}
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   errorCodes[http.StatusBadRequest],
		Message: message,
		Fields:  fields,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusNotFound, message)
}

// WriteLocked reports a temporarily locked account (423)
func WriteLocked(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusLocked, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusTooManyRequests, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusInternalServerError, message)
}

// WriteServiceUnavailable reports a failing downstream dependency (503)
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusServiceUnavailable, message)
}
