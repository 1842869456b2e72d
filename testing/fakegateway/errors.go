package fakegateway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Gateway JSON error codes
const (
	codeGeneral     = 0
	codeUnknownUser = 10013
)

// APIError is an error answered in the gateway's {"message", "code"} shape.
type APIError struct {
	code       int
	message    string
	httpStatus int
}

// NewAPIError creates a new gateway error.
func NewAPIError(code int, message string, httpStatus int) *APIError {
	return &APIError{code: code, message: message, httpStatus: httpStatus}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.message
}

// Code returns the gateway error code.
func (e *APIError) Code() int {
	return e.code
}

// HTTPStatus returns the HTTP status code.
func (e *APIError) HTTPStatus() int {
	return e.httpStatus
}

func errUnauthorized() *APIError {
	return NewAPIError(codeGeneral, "401: Unauthorized", http.StatusUnauthorized)
}

func errUnknownUser() *APIError {
	return NewAPIError(codeUnknownUser, "Unknown User", http.StatusNotFound)
}

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// errorHandler answers every failure in the gateway's error shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorBody{Message: "500: Internal Server Error", Code: codeGeneral}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus()
		body = errorBody{Message: apiErr.Error(), Code: apiErr.Code()}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Message = http.StatusText(status)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			body.Message = msg
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
