// Package response writes the JSON envelopes every endpoint returns:
//
//	{"success": true,  "data": ..., "message": "..."}
//	{"success": false, "message": "...", "error": "CODE"}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/pet-shop/internal/apperror"
	"github.com/benvon/pet-shop/internal/logger"
	"go.uber.org/zap"
)

// SuccessBody is the success envelope. Data is always present, possibly null.
type SuccessBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success envelope.
func Success(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, SuccessBody{Success: true, Data: data, Message: message})
}

// OK is Success with status 200.
func OK(w http.ResponseWriter, data any, message string) {
	Success(w, http.StatusOK, data, message)
}

// Created is Success with status 201.
func Created(w http.ResponseWriter, data any, message string) {
	Success(w, http.StatusCreated, data, message)
}

// Error writes the envelope for a classified error.
func Error(w http.ResponseWriter, e *apperror.Error) {
	write(w, e.Status(), ErrorBody{Success: false, Message: e.Message, Error: e.Code})
}

// FromError writes the envelope for any error. Classified errors keep their status,
// code and message; anything else becomes a generic 500 and only the log sees the cause.
func FromError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e, ok := apperror.As(err)
	if !ok {
		e = apperror.Internal(err)
	}

	if log != nil {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.Int("status", e.Status()),
			zap.String("code", e.Code),
		}
		if cause := e.Unwrap(); cause != nil {
			fields = append(fields, zap.String("error", logger.SanitizeError(cause)))
		}
		if e.Status() >= http.StatusInternalServerError {
			log.Error("request_failed", fields...)
		} else {
			log.Debug("request_rejected", fields...)
		}
	}

	Error(w, e)
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(body)
}
