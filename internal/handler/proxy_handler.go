package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkredacao/portal-client/internal/gateway"
	"github.com/mkredacao/portal-client/internal/response"
	"github.com/mkredacao/portal-client/internal/session"
)

// hopHeaders are connection-scoped and must not be forwarded either way.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// ProxyHandler forwards portal API calls to the backend through the
// gateway, so local pages and scripts get the bearer header injected from
// the credential store and the exact clear-on-401/403 semantics the real
// frontend has.
type ProxyHandler struct {
	gw  *gateway.Gateway
	log zerolog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(gw *gateway.Gateway, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		gw:  gw,
		log: log.With().Str("component", "proxy").Logger(),
	}
}

// Forward handles any method on any path.
func (h *ProxyHandler) Forward(c *gin.Context) {
	headers := http.Header{}
	for name, values := range c.Request.Header {
		if isHopHeader(name) {
			continue
		}
		for _, v := range values {
			headers.Add(name, v)
		}
	}

	var body io.Reader
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		body = c.Request.Body
	}

	path := c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		path += "?" + c.Request.URL.RawQuery
	}

	res, err := h.gw.Do(c.Request.Context(), c.Request.Method, path, body, &gateway.RequestOptions{
		Headers: headers,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	defer res.Body.Close()

	for name, values := range res.Header {
		if isHopHeader(name) {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	c.Status(res.StatusCode)
	if _, err := io.Copy(c.Writer, res.Body); err != nil {
		h.log.Warn().Err(err).Msg("Copy upstream body interrupted")
	}
}

func (h *ProxyHandler) fail(c *gin.Context, err error) {
	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		// The gateway already cleared the credential store.
		response.Fail(c, authErr.Status, response.ErrSessionExpired)
		return
	}

	h.log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Upstream request failed")
	response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnreachable)
}

// Status answers the proxy's own health/session endpoint: whether a session
// is present and for which role, without calling the backend.
func (h *ProxyHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	user := session.User(ctx, h.gw.Store)

	payload := gin.H{
		"authenticated": session.Authenticated(ctx, h.gw.Store),
	}
	if user != nil {
		payload["role"] = string(user.NormalizedRole())
		payload["user_id"] = string(user.ID)
	}
	response.Success(c, http.StatusOK, payload)
}

func isHopHeader(name string) bool {
	for _, hop := range hopHeaders {
		if strings.EqualFold(name, hop) {
			return true
		}
	}
	return false
}
