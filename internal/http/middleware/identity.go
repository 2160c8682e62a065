// Package middleware – request identity resolution.
//
// This file resolves the caller's identity once per request from trusted
// headers set by the fronting auth proxy, and records whether the caller is
// privileged (streamer or moderator). Handlers and services consume the
// resolved Identity; nothing downstream re-reads headers or re-derives the
// privilege bit.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamverse/superchat-backend/internal/sysutil"
)

// Identity headers populated by the auth proxy.
const (
	HeaderUserID      = "X-User-Id"
	HeaderDisplayName = "X-Display-Name"
)

// Context keys for the resolved identity.
const (
	ctxKeyUserID      = "userID"
	ctxKeyDisplayName = "displayName"
	ctxKeyPrivileged  = "privileged"
)

// Identity carries the resolved caller of a request.
type Identity struct {
	UserID      string
	DisplayName string
	Privileged  bool
}

// RequireIdentity returns middleware that resolves the caller from the
// identity headers. Requests without a user id are rejected with 401; the
// feed is viewable anonymously over the websocket, but every mutation needs
// an author. admins lists the user ids that hold pin privileges.
func RequireIdentity(admins []string) gin.HandlerFunc {
	adminSet := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		adminSet[a] = struct{}{}
	}
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "missing identity",
			})
			return
		}
		display := sysutil.FirstNonEmpty(c.GetHeader(HeaderDisplayName), userID)
		_, privileged := adminSet[userID]

		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyDisplayName, display)
		c.Set(ctxKeyPrivileged, privileged)
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by RequireIdentity. The zero
// Identity is returned on routes where the middleware did not run.
func IdentityFrom(c *gin.Context) Identity {
	id := Identity{}
	if v, ok := c.Get(ctxKeyUserID); ok {
		id.UserID, _ = v.(string)
	}
	if v, ok := c.Get(ctxKeyDisplayName); ok {
		id.DisplayName, _ = v.(string)
	}
	if v, ok := c.Get(ctxKeyPrivileged); ok {
		id.Privileged, _ = v.(bool)
	}
	return id
}
