package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the workflow services. Handlers map these to HTTP
// status codes; Infrastructure failures are retried by the transport layer,
// never here.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindInfrastructure
)

// ServiceError carries the taxonomy kind alongside a caller-facing message.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func validationErr(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func infraErr(err error, msg string) *ServiceError {
	return &ServiceError{Kind: KindInfrastructure, Message: msg, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Unknown errors are
// treated as Infrastructure.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInfrastructure
}
