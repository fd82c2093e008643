package services

import (
	"fmt"
	"net/http"
)

// NotFoundError reports a lookup that matched nothing.
type NotFoundError struct {
	Resource string
	Field    string
	Value    interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s : '%v'", e.Resource, e.Field, e.Value)
}

// APIError is a domain failure that maps directly onto an HTTP status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func notFound(resource, field string, value interface{}) error {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

func badRequest(format string, args ...interface{}) error {
	return &APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

var (
	errBadCredentials  = &APIError{Status: http.StatusUnauthorized, Message: "invalid username/email or password"}
	errCommentMismatch = &APIError{Status: http.StatusBadRequest, Message: "Comment does not belong to post"}
)
