// Package domain holds the plain data shapes shared across the router:
// the agent request body, backend addressing, and Redis key naming.
package domain

import (
	"errors"

	"agentrouter/helpers"
)

// AgentRequest is the JSON body accepted by /start_agent and /stop_agent.
type AgentRequest struct {
	ChannelName string `json:"channel_name"`
	UID         int    `json:"uid"`
}

// Validate checks required fields. ChannelName must be non-empty; UID has
// no constraint of its own (the original session-affinity backends accept
// any integer, including zero).
func (r AgentRequest) Validate() error {
	if r.ChannelName == "" {
		return errors.New("channel_name is required")
	}
	return nil
}

// Backend is one member of the static pool of worker addresses. Each is
// reachable at http://{Addr}:8080.
type Backend struct {
	Addr string
}

// NewBackend creates a Backend, panicking if addr is blank. LoadConfig
// already drops blank BACKEND_IPS entries, so reaching here with one
// means a caller bug, not bad user input.
func NewBackend(addr string) Backend {
	return Backend{Addr: helpers.StrPanic(addr, "domain.NewBackend: addr is required")}
}

// URL returns the base URL for this backend, e.g. "http://10.0.0.1:8080".
func (b Backend) URL() string {
	return "http://" + b.Addr + ":8080"
}

// ClientKey returns the coordination-store key for the forward mapping
// client:{clientID} -> backend address.
func ClientKey(clientID string) string {
	return "client:" + clientID
}

// BackendKey returns the coordination-store key for a backend's active
// set, the sorted set backend:{addr} of live clientIDs scored by creation
// time in milliseconds.
func BackendKey(addr string) string {
	return "backend:" + addr
}

// LogoutTokensKey is the sorted set swept by the expired-token reclaimer.
// Nothing in this router currently populates it; the sweep is retained for
// schema compatibility (see spec §9).
const LogoutTokensKey = "logout_tokens"
