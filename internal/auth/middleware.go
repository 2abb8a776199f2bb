package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CookieName holds the signed session token.
const CookieName = "church_session"

const (
	contextKey = "session"
	issuedKey  = "session_issued"
)

// Session makes sure every request carries a session id, issuing a new
// signed cookie when the request has none or an invalid one. The id scopes
// the attendance store, chat panel and recent searches.
func Session(signer Signer, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, err := c.Cookie(CookieName); err == nil {
			if id, err := signer.Parse(tok); err == nil {
				c.Set(contextKey, id)
				c.Next()
				return
			}
		}

		id := uuid.NewString()
		tok, exp, err := signer.Issue(id, time.Now())
		if err != nil {
			log.Printf("session issue failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session issue failed"})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, tok, int(time.Until(exp).Seconds()), "/", "", secure, true)
		c.Set(contextKey, id)
		c.Set(issuedKey, true)
		c.Next()
	}
}

// SessionID returns the id set by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(contextKey)
}

// RateKey charges requests that came back with a valid cookie to their
// session. A session issued on this request yields "" so the limiter falls
// back to the client IP; dropping the cookie does not buy a new bucket.
func RateKey(c *gin.Context) string {
	if c.GetBool(issuedKey) {
		return ""
	}
	return SessionID(c)
}
