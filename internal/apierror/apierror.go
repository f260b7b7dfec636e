// Package apierror provides the coded error type shared by services and
// handlers, and the JSON envelopes returned to clients. Handlers never write
// raw store errors; they map codes through MetadataFor.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for the caller.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeDependency Code = "DEPENDENCY_ERROR"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced over HTTP.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	ShowDetail    bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "Error de validacion", ShowDetail: true},
	CodeNotFound:   {HTTPStatus: http.StatusNotFound, PublicMessage: "Recurso no encontrado", ShowDetail: true},
	CodeConflict:   {HTTPStatus: http.StatusConflict, PublicMessage: "Conflicto de estado", ShowDetail: true},
	CodeDependency: {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "Almacen de documentos no disponible"},
	CodeInternal:   {HTTPStatus: http.StatusInternalServerError, PublicMessage: "Error interno del servidor"},
}

// MetadataFor returns the HTTP mapping for code, defaulting to internal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error carrying an optional cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func NewError(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code to err. The cause stays reachable through errors.Is/As.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, or CodeInternal when it carries none.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   Code   `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError builds the envelope for err without leaking internal causes.
func FromError(err error) (int, *APIError) {
	code := CodeOf(err)
	meta := MetadataFor(code)
	detail := meta.PublicMessage
	if typed := As(err); typed != nil && meta.ShowDetail {
		detail = typed.Message()
	}
	return meta.HTTPStatus, &APIError{Detail: detail, Code: code}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
