package service

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler registers the router's custom error handler on e.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMap(), logger).Handler
}

// NewErrorCodeToStatusCodeMap creates the error-code to HTTP-status mapping
// used by HTTPErrorHandler, per spec §7.
func NewErrorCodeToStatusCodeMap() map[string]int {
	m := make(map[string]int)
	m[ErrBadParameter] = http.StatusBadRequest
	m[ErrEntityNotFound] = http.StatusNotFound
	m[ErrAssignment] = http.StatusInternalServerError
	m[ErrLookup] = http.StatusInternalServerError
	m[ErrUpstreamUnreachable] = http.StatusBadGateway
	m[ErrInternalServerError] = http.StatusInternalServerError
	return m
}

// HTTPErrorHandler renders errors returned from Echo handlers as JSON,
// mapping RouterError codes to HTTP status codes.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMap map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMap, logger: logger}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	if status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Handler handles errors returned by Echo handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	routerErr := ToRouterError(err)
	if routerErr == nil {
		routerErr = NewInternalServerError("an internal server error has occurred", err)
	}

	var statusCode int
	var he *echo.HTTPError
	if asHTTPErr, ok := err.(*echo.HTTPError); ok {
		he = asHTTPErr
		codeStr := ErrInternalServerError
		if he.Internal != nil {
			if inner, ok := he.Internal.(*echo.HTTPError); ok {
				he = inner
			}
			var requestErr *openapi3filter.RequestError
			if errors.As(he.Internal, &requestErr) {
				codeStr = ErrBadParameter
			}
		}
		msg, _ := he.Message.(string)
		routerErr = NewRouterError(codeStr, msg, err)
		statusCode = he.Code
	} else {
		statusCode = h.getStatusCode(routerErr.Code)
	}

	level.Error(h.logger).Log("msg", "HTTP request error", "err", err)

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead && he != nil {
			_ = c.NoContent(he.Code)
		} else if twoFieldErrorCodes[routerErr.Code] {
			details := ""
			if routerErr.Inner != nil {
				details = routerErr.Inner.Error()
			}
			_ = c.JSON(statusCode, ErrResponseWithDetails{Error: routerErr.Message, Details: details})
		} else {
			_ = c.JSON(statusCode, ErrResponse{Error: routerErr.Message})
		}
	}
}

// twoFieldErrorCodes are the RouterError codes rendered with the two-field
// {"error":"...","details":"..."} shape (spec §7: assignment, lookup, and
// upstream-transport failures), rather than the single-field
// {"error":"..."} shape used everywhere else.
var twoFieldErrorCodes = map[string]bool{
	ErrAssignment:          true,
	ErrLookup:              true,
	ErrUpstreamUnreachable: true,
}

// ErrResponse is the JSON envelope for error responses, matching spec §7's
// {"error":"..."} shape.
type ErrResponse struct {
	Error string `json:"error"`
}

// ErrResponseWithDetails is the two-field JSON envelope for assignment,
// lookup, and upstream-transport failures (spec §7), where Details carries
// the wrapped low-level error's message.
type ErrResponseWithDetails struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
