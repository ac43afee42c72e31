// Package handlers contains the router's HTTP handlers: start/stop agent
// proxying, the backend health probe, and the liveness ping.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"agentrouter/domain"
	"agentrouter/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// upstreamTimeout bounds every proxied call to a backend, per spec §4.5.
const upstreamTimeout = 30 * time.Second

// HTTPServer implements the router's four routed endpoints.
type HTTPServer struct {
	routing    *service.RoutingState
	backends   []domain.Backend
	httpClient *http.Client
	logger     log.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(routing *service.RoutingState, backends []domain.Backend, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(logger, "component", "HTTPServer")
	return &HTTPServer{
		routing:    routing,
		backends:   backends,
		httpClient: &http.Client{Timeout: upstreamTimeout},
		logger:     logger,
	}
}

// StartAgent handles POST /start_agent (spec §4.5.1).
func (h *HTTPServer) StartAgent(c echo.Context) error {
	var req domain.AgentRequest
	if err := c.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	if err := req.Validate(); err != nil {
		return service.NewBadParameterError(err.Error(), err)
	}

	ctx := c.Request().Context()
	clientID := h.routing.DeriveClientID(c.Request())

	backend, err := h.routing.GetOrAssignBackend(ctx, clientID)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to get or assign backend", "client_id", clientID, "err", err)
		return service.NewAssignmentError("Error assigning backend", err)
	}

	respBody, status, err := h.forward(ctx, backend, "/start_agent", req)
	if err != nil {
		var readErr *errUpstreamBodyRead
		if errors.As(err, &readErr) {
			level.Error(h.logger).Log("msg", "failed to read upstream response for /start_agent", "backend", backend, "client_id", clientID, "err", err)
			return service.NewInternalServerError("error reading upstream response body", err)
		}
		level.Error(h.logger).Log("msg", "failed to reach backend for /start_agent", "backend", backend, "client_id", clientID, "err", err)
		return service.NewUpstreamUnreachableError("Failed to reach backend service", err)
	}

	respData, err := augmentWithClientID(respBody, clientID)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to parse /start_agent upstream response", "backend", backend, "err", err)
		return service.NewInternalServerError("error parsing response body", err)
	}

	if status >= 200 && status < 300 {
		if err := h.routing.RecordActiveRequest(ctx, backend, clientID); err != nil {
			level.Warn(h.logger).Log("msg", "failed to record active request", "backend", backend, "client_id", clientID, "err", err)
		} else {
			level.Info(h.logger).Log("msg", "started agent", "backend", backend, "client_id", clientID)
		}
	}

	return c.JSON(status, respData)
}

// StopAgent handles POST /stop_agent (spec §4.5.2).
func (h *HTTPServer) StopAgent(c echo.Context) error {
	var req domain.AgentRequest
	if err := c.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	if err := req.Validate(); err != nil {
		return service.NewBadParameterError(err.Error(), err)
	}

	ctx := c.Request().Context()
	clientID := h.routing.DeriveClientID(c.Request())

	backend, err := h.routing.GetClientBackend(ctx, clientID)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to get client backend", "client_id", clientID, "err", err)
		return service.NewLookupError("Error retrieving backend", err)
	}

	respBody, status, err := h.forward(ctx, backend, "/stop_agent", req)
	if err != nil {
		var readErr *errUpstreamBodyRead
		if errors.As(err, &readErr) {
			level.Error(h.logger).Log("msg", "failed to read upstream response for /stop_agent", "backend", backend, "client_id", clientID, "err", err)
			return service.NewInternalServerError("error reading upstream response body", err)
		}
		level.Error(h.logger).Log("msg", "failed to reach backend for /stop_agent", "backend", backend, "client_id", clientID, "err", err)
		return service.NewUpstreamUnreachableError("Failed to reach backend service", err)
	}

	respData, err := augmentWithClientID(respBody, clientID)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to parse /stop_agent upstream response", "backend", backend, "err", err)
		return service.NewInternalServerError("error parsing response body", err)
	}

	if status >= 200 && status < 300 {
		if err := h.routing.ClearActiveRequest(ctx, backend, clientID); err != nil {
			level.Warn(h.logger).Log("msg", "failed to clear active request", "backend", backend, "client_id", clientID, "err", err)
		} else {
			level.Info(h.logger).Log("msg", "stopped agent", "backend", backend, "client_id", clientID)
		}
	}

	return c.JSON(status, respData)
}

// Health handles GET /health (spec §4.5.3): a liveness probe only, its
// result never feeds routing decisions.
func (h *HTTPServer) Health(c echo.Context) error {
	results := make(map[string]string, len(h.backends))
	for _, b := range h.backends {
		resp, err := http.Get(b.URL() + "/start_agent")
		if err != nil {
			results[b.Addr] = "Error: " + err.Error()
			continue
		}
		results[b.Addr] = "Status: " + resp.Status
		resp.Body.Close()
	}
	return c.JSON(http.StatusOK, results)
}

// Ping handles GET /ping (spec §4.5.4).
func (h *HTTPServer) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
}

// errUpstreamBodyRead marks a failure reading an already-received upstream
// response body, distinct from a transport failure (connection refused,
// timeout, DNS): the backend did respond, but its body could not be read.
// Callers map this to a 500, not the 502 used for transport failures
// (spec §7).
type errUpstreamBodyRead struct{ err error }

func (e *errUpstreamBodyRead) Error() string { return e.err.Error() }
func (e *errUpstreamBodyRead) Unwrap() error { return e.err }

// forward re-serializes req and POSTs it to backend's path, returning the
// raw upstream response body and status. Transport failures (including
// timeout) and body-read failures are both reported via the error return,
// distinguishable via errors.As(err, *errUpstreamBodyRead); upstream
// non-2xx statuses are returned as a normal (body, status, nil) result for
// pass-through.
func (h *HTTPServer) forward(ctx context.Context, backend, path string, req domain.AgentRequest) ([]byte, int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}

	backendReq, err := http.NewRequestWithContext(ctx, http.MethodPost, backendURL(backend, path), bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	backendReq.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(backendReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &errUpstreamBodyRead{err}
	}
	return respBody, resp.StatusCode, nil
}

func backendURL(backend, path string) string {
	return (domain.Backend{Addr: backend}).URL() + path
}

// augmentWithClientID parses body as a JSON object and sets its clientID
// field, overwriting any value the backend already set.
func augmentWithClientID(body []byte, clientID string) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	data["clientID"] = clientID
	return data, nil
}
