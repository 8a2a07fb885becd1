package response

import (
	"encoding/json"
	"net/http"

	apperror "github.com/jurix/jurix/pkg/error"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Code    string      `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, Envelope{Status: true, Message: message, Data: data})
}

// Error writes a failure envelope; data carries optional details
func Error(w http.ResponseWriter, statusCode int, code, message string, data interface{}) {
	WriteJSON(w, statusCode, Envelope{Status: false, Message: message, Data: data, Code: code})
}

// FromError maps err to its status and code and writes it
func FromError(w http.ResponseWriter, err error) {
	appErr := apperror.MapError(err)
	Error(w, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, apperror.CodeBadRequest, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, apperror.CodeUnauthorized, message, nil)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, apperror.CodeTooManyRequests, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, apperror.CodeInternal, message, nil)
}
