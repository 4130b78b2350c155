package guard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/expert-buddy/expertbuddy-backend/internal/session/service"
)

const (
	// ClientIDHeader identifies the calling client instance; it keys
	// the durable session record.
	ClientIDHeader = "X-Client-Id"

	CtxClientID = "client_id"
	CtxUserID   = "session_user_id"
	CtxRole     = "session_role"

	// PromptHeader is set on responses when the caller should surface
	// a profile-completion prompt. Non-blocking.
	PromptHeader = "X-Profile-Prompt"
)

// WithClient resolves the calling client's session manager and stashes
// the client id in the request context. Requests without a client id
// are rejected outright; there is no anonymous handle to attach a
// session to.
func WithClient(registry *service.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := strings.TrimSpace(c.GetHeader(ClientIDHeader))
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + ClientIDHeader + " header"})
			c.Abort()
			return
		}

		c.Set(CtxClientID, clientID)
		c.Next()
	}
}

// RequireRole gates a route group on the guard's decision for the
// current session. Redirect decisions become 401/403 bodies carrying
// the redirect target and notice.
func RequireRole(registry *service.Registry, required Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString(CtxClientID)
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing client id"})
			c.Abort()
			return
		}

		mgr, err := registry.Get(c.Request.Context(), clientID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			c.Abort()
			return
		}

		s := mgr.Current()
		decision := Evaluate(required, s)

		if !decision.Allow {
			status := http.StatusForbidden
			if s == nil {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{
				"error":    decision.Notice,
				"redirect": decision.RedirectTo,
			})
			c.Abort()
			return
		}

		if decision.PromptProfile {
			c.Header(PromptHeader, "incomplete")
		}

		c.Set(CtxUserID, s.UserID)
		c.Set(CtxRole, string(s.Role))
		c.Next()
	}
}

// UserID extracts the signed-in user's id from the Gin context. Set by
// RequireRole.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}
