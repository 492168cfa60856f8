package httpserver

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/dmitrijs2005/appauth/internal/server/auth"
	"github.com/dmitrijs2005/appauth/internal/server/authctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenVerifier checks a bearer token; see auth.TokenCodec.
type TokenVerifier interface {
	Verify(token string) (auth.TokenClaims, error)
}

// principalKey holds the authctx.Principal in the gin context.
const principalKey = "principal"

// Authenticate rejects requests without a valid token with 401 and the
// fixed "not logged in" body. The reason is only logged. On success the
// principal is stored in both the gin context and the request context.
func (s *Server) Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c.Request)
		if token == "" {
			s.rejectUnauthenticated(c, "missing token")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			s.rejectUnauthenticated(c, err.Error())
			return
		}

		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			s.rejectUnauthenticated(c, "malformed sub")
			return
		}

		p := authctx.Principal{UserID: userID}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), p))
		c.Next()
	}
}

// tokenFromRequest prefers a non-empty "token" cookie over the
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(common.TokenCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (s *Server) rejectUnauthenticated(c *gin.Context, reason string) {
	s.logger.Debug(c.Request.Context(), "authentication failed", "path", c.Request.URL.Path, "reason", reason)
	c.AbortWithStatusJSON(http.StatusUnauthorized, failBody(notLoggedInMessage))
}

// principalFrom returns the principal set by Authenticate.
func principalFrom(c *gin.Context) (authctx.Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(authctx.Principal); ok {
			return p, true
		}
	}
	return authctx.Get(c.Request.Context())
}
