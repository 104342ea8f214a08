package response

import (
	"errors"
	"io"
	"net/http"

	"timesheet/apperror"
	"timesheet/logger"

	"github.com/bytedance/sonic"
)

// ErrorBody is returned for every failed request.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

func Created(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Message writes an error body with an explicit status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Code: status, Message: msg})
}

// Error writes err. AppErrors keep their status and message; anything else is
// logged and hidden behind a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		Message(w, appErr.HTTPStatus(), appErr.Message)
		return
	}

	logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	Message(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return apperror.Validation("failed to read request body")
	}
	if len(data) == 0 {
		return apperror.Validation("request body is required")
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return apperror.Validation("invalid request body: %s", err.Error())
	}
	return nil
}
