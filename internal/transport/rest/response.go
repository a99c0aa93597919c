package rest

import (
	"encoding/json"
	"log"
	"net/http"
)

// APIResponse is the envelope every endpoint answers with. Callers
// switch on status and error_code; message stays free-form text for
// the operator and error_code mirrors the HTTP status on failures.
type APIResponse struct {
	ErrorCode int    `json:"error_code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func writeResponse(w http.ResponseWriter, httpStatus int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[HTTP] write response error: %v", err)
	}
}

// Success answers 200 with optional data.
func Success(w http.ResponseWriter, message string, data any) {
	writeResponse(w, http.StatusOK, APIResponse{Status: statusSuccess, Message: message, Data: data})
}

// SuccessAccepted answers 202 for work that continues in the
// background, like sync runs and exports.
func SuccessAccepted(w http.ResponseWriter, message string, data any) {
	writeResponse(w, http.StatusAccepted, APIResponse{Status: statusSuccess, Message: message, Data: data})
}

func fail(w http.ResponseWriter, message string, httpStatus int) {
	writeResponse(w, httpStatus, APIResponse{ErrorCode: httpStatus, Status: statusError, Message: message})
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	fail(w, message, http.StatusBadRequest)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	fail(w, message, http.StatusNotFound)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	fail(w, message, http.StatusInternalServerError)
}
