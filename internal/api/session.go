package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionIDKey = "session_id"

// bindSession resolves the caller's session from its cookie, issuing a new
// session when the cookie is missing or no longer verifies.
func (h *Handler) bindSession(c *gin.Context) {
	if id, ok := h.verifiedSession(c); ok {
		c.Set(sessionIDKey, id)
		c.Next()
		return
	}

	id, token, err := h.issuer.Issue()
	if err != nil {
		h.logger.Errorf("issue session token: %v", err)
		writeError(c, http.StatusInternalServerError, "failed to start session", err)
		c.Abort()
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, int(h.issuer.TTL().Seconds()), "/", "", h.opts.SecureCookie, true)
	c.Set(sessionIDKey, id)
	c.Next()
}

func (h *Handler) verifiedSession(c *gin.Context) (string, bool) {
	token, err := c.Cookie(h.opts.CookieName)
	if err != nil || token == "" {
		return "", false
	}

	id, err := h.issuer.Verify(token)
	if err != nil {
		h.logger.Debugf("discarding session cookie: %v", err)
		return "", false
	}
	return id, true
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
