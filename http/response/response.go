package response

import (
	"encoding/json"
	"log"
	"net/http"

	"fees-module/errors"
)

// StandardResponse represents the standard API response structure
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse sends a success response with given status code, message, and data
func SuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	response := StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	SendJSON(w, statusCode, response)
}

// ErrorResponse sends an error response with given status code and error message
func ErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	response := StandardResponse{
		Status: "error",
		Error:  errorMsg,
	}
	SendJSON(w, statusCode, response)
}

// Err sends an error response with the status code derived from the
// application error kind.
func Err(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	msg := errors.MessageOf(err)
	if kind == errors.Other || kind == errors.Internal {
		// Do not leak internals to the client.
		log.Printf("internal error: %v", err)
	}
	ErrorResponse(w, kind.StatusCode(), msg)
}

// SendJSON encodes and sends a JSON response
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
