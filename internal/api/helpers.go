package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/pkg/potential"
)

var validate = validator.New()

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	apiErrors.WithLabelValues(c.Path(), errType).Inc()
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeEngineError maps inference failures onto the error envelope:
// bad observations are the caller's fault, a missing model is 404, anything
// else is a server error.
func writeEngineError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrModelNotFound):
		return writeNotFound(c, err.Error())
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, potential.ErrInvalidArgument):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "", invalidCode(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return writeError(c, http.StatusServiceUnavailable, "server_error", err.Error(), "", "request_cancelled")
	}
	logger.FromContext(c.Request().Context()).Error("request failed", "path", c.Path(), "error", err)
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
}

func invalidCode(err error) string {
	switch {
	case errors.Is(err, inference.ErrInput):
		return "unsupported_input"
	case errors.Is(err, potential.ErrEmptySequence):
		return "empty_sequence"
	}
	return ""
}

// decodeRequest reads a JSON body and runs struct validation on it.
func decodeRequest[T any](c *echo.Context) (T, error) {
	out, err := decodeJSON[T](c.Request().Body)
	if err != nil {
		return out, newInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := validate.Struct(out); err != nil {
		return out, newInvalidRequest(validationMessage(err))
	}
	return out, nil
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func toInferenceRequest(in SequenceInput, tables bool) *inference.Request {
	return &inference.Request{Symbols: in.Symbols, Vectors: in.Vectors, IncludeTables: tables}
}
