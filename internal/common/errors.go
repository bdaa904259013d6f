package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotParticipant     = errors.New("user is not a participant of this conversation")
	ErrNotFound           = errors.New("not found")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrInvalidParticipant = errors.New("cannot start a conversation with yourself")
	ErrValidation         = errors.New("validation error")
)

// HTTPErrorResponse is the body written for every failed request.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

type HTTPErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorKind maps err onto the public error taxonomy.
func ErrorKind(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized_error"
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden_error"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrInvalidParticipant), errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteError logs server faults and writes the error envelope. Internal
// errors are not echoed back to the caller.
func WriteError(w http.ResponseWriter, err error, log zerolog.Logger) {
	code, kind := ErrorKind(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		msg = "internal server error"
	}
	WriteJSON(w, code, HTTPErrorResponse{Error: HTTPErrorDetail{Message: msg, Type: kind}})
}

func WriteJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// GRPCStatus converts a domain error into a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, ErrUnauthorized):
		code = codes.Unauthenticated
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrInvalidParticipant), errors.Is(err, ErrValidation):
		code = codes.InvalidArgument
	}
	return status.Error(code, err.Error())
}
