// Package httputil writes the gateway's own JSON responses: health reports
// and errors for requests no mock module or backend answered.
package httputil

import (
	"encoding/json"
	"net/http"
)

// JSONContentType is used for every response written by this package.
const JSONContentType = "application/json"

// ErrorBody is the payload of error responses.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorBody{Error: errCode, Message: message})
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusNotFound, errCode, message)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusBadRequest, errCode, message)
}

// WriteBadGateway writes a 502 error response.
func WriteBadGateway(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusBadGateway, errCode, message)
}

// WriteTooLarge writes a 413 error response.
func WriteTooLarge(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, errCode, message)
}
