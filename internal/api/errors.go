package api

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrModelNotFound  = errors.New("model not found")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

type modelNotFoundError struct {
	id, where string
}

func (e modelNotFoundError) Error() string {
	if e.where == "" {
		return fmt.Sprintf("model %q not found", e.id)
	}
	return fmt.Sprintf("model %q not found in %s", e.id, e.where)
}

func (e modelNotFoundError) Unwrap() error {
	return ErrModelNotFound
}
