package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/service/anonymous"
)

const (
	customerHeader = "X-Customer-ID"
	sessionCookie  = "storefront_session"
	ownerKey       = "cartOwner"
	adminHeader    = "X-Admin-Key"
)

// ownerMiddleware resolves who owns the cart for this request. A customer id
// header wins; otherwise the session cookie is resolved, and a fresh
// anonymous session is minted when the cookie is absent or expired.
func ownerMiddleware(sessions SessionService, cookieTTL int, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if customerID := c.GetHeader(customerHeader); customerID != "" {
			c.Set(ownerKey, domain.CustomerOwner(customerID))
			c.Next()
			return
		}

		if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
			sessionID, err := sessions.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(ownerKey, domain.SessionOwner(sessionID))
				c.Next()
				return
			}
			if !errors.Is(err, anonymous.ErrInvalidToken) {
				logger.Printf("session resolve: %v", err)
			}
		}

		token, sessionID, err := sessions.Issue(c.Request.Context())
		if err != nil {
			logger.Printf("session issue: %v", err)
			writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
			c.Abort()
			return
		}
		c.SetCookie(sessionCookie, token, cookieTTL, "/", "", false, true)
		c.Set(ownerKey, domain.SessionOwner(sessionID))
		c.Next()
	}
}

func cartOwner(c *gin.Context) domain.CartOwner {
	if v, ok := c.Get(ownerKey); ok {
		if owner, ok := v.(domain.CartOwner); ok {
			return owner
		}
	}
	return domain.CartOwner{}
}

// customerID returns the authenticated customer or fails the request. Order
// endpoints require a real customer, not an anonymous session.
func customerID(c *gin.Context) (string, bool) {
	owner := cartOwner(c)
	if owner.IsAnonymous() {
		writeError(c, http.StatusUnauthorized, "unauthorized", "customer identity required")
		return "", false
	}
	return owner.CustomerID, true
}

func adminMiddleware(key string, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader(adminHeader) != key {
			logger.Printf("rejected admin request to %s", c.FullPath())
			writeError(c, http.StatusUnauthorized, "unauthorized", "invalid admin key")
			c.Abort()
			return
		}
		c.Next()
	}
}
