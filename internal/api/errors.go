package api

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// ResponseError is the body of every error response.
type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeEngineError maps an engine error to an HTTP status by kind.
func writeEngineError(c *echo.Context, err error) error {
	kind := vmerr.KindOf(err)
	status := http.StatusInternalServerError
	errType := "server_error"
	switch kind {
	case vmerr.KindNotFound:
		status, errType = http.StatusNotFound, "not_found_error"
	case vmerr.KindInvalidArgument, vmerr.KindNullArgs, vmerr.KindUnknownScaffold:
		status, errType = http.StatusBadRequest, "invalid_request_error"
	case vmerr.KindInvalidThreadState:
		status, errType = http.StatusConflict, "conflict_error"
	case vmerr.KindInvalidEngineState:
		status, errType = http.StatusServiceUnavailable, "unavailable_error"
	}
	return writeError(c, status, errType, err.Error(), "", string(kind))
}
