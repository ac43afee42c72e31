// Package helpers holds small, single-purpose Echo middleware and
// constructor-argument guards shared across the router.
package helpers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderNoCache instructs clients never to cache routed responses, per
// spec §4.3.2.
func HeaderNoCache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
			c.Response().Header().Set("Expires", "-1")
			c.Response().Header().Set("Pragma", "no-cache")
			return next(c)
		}
	}
}

// HeaderTimestamp stamps every routed response with X-Timestamp in RFC 3339,
// per spec §4.3.3. The value is taken once the handler writes its response,
// just before the headers go out (a header set after that is never sent).
func HeaderTimestamp() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Before(func() {
				c.Response().Header().Set("X-Timestamp", time.Now().Format(time.RFC3339))
			})
			return next(c)
		}
	}
}

// CORS builds the CORS middleware described in spec §4.3.1: if allowOrigin
// is "*" any origin is reflected, otherwise the request's Origin must match
// one of the comma-separated entries verbatim. Non-matching origins get a
// 403 with {"error":"Origin not allowed"} and the chain is not continued.
// OPTIONS preflight requests are answered with 204 and no body.
func CORS(allowOrigin string) echo.MiddlewareFunc {
	allowed := parseOrigins(allowOrigin)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if !originAllowed(allowed, origin) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Origin not allowed"})
			}
			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PATCH, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Date, X-Api-Version, X-Client-Id, Authorization")
			h.Set("Access-Control-Allow-Credentials", "true")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

func parseOrigins(allowOrigin string) []string {
	if allowOrigin == "*" {
		return nil
	}
	parts := strings.Split(allowOrigin, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// originAllowed returns true when allowed is nil (the "*" case) or origin
// matches one of allowed verbatim.
func originAllowed(allowed []string, origin string) bool {
	if allowed == nil {
		return true
	}
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
