package response

import (
	"encoding/json"
	"net/http"

	"github.com/mrops-br/products-contract-api/internal/app/dto"
)

// ContentTypeJSON is the content type of every JSON body the API writes
const ContentTypeJSON = "application/json; charset=utf-8"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is the body of not-found and unauthorized outcomes
type MessageResponse struct {
	Message string `json:"message"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, err error) {
	errorType := "error"
	switch status {
	case http.StatusNotFound:
		errorType = "not_found"
	case http.StatusBadRequest:
		errorType = "bad_request"
	case http.StatusUnauthorized:
		errorType = "unauthorized"
	case http.StatusInternalServerError:
		errorType = "internal_server_error"
	}

	JSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: err.Error(),
	})
}

// StatusFor maps an outcome kind to its HTTP status code
func StatusFor(kind dto.OutcomeKind) int {
	switch kind {
	case dto.OutcomeOK:
		return http.StatusOK
	case dto.OutcomeCreated:
		return http.StatusCreated
	case dto.OutcomeNotFound:
		return http.StatusNotFound
	case dto.OutcomeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Outcome renders a service outcome
func Outcome[T any](w http.ResponseWriter, o dto.Outcome[T]) {
	status := StatusFor(o.Kind)

	switch {
	case o.HasBody():
		JSON(w, status, o.Value)
	case o.Kind == dto.OutcomeServerError:
		JSON(w, status, ErrorResponse{Error: "internal_server_error", Message: o.Message})
	default:
		JSON(w, status, MessageResponse{Message: o.Message})
	}
}
