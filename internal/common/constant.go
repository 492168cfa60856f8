package common

const (
	// TokenCookieName is the cookie that carries the bearer token set on login.
	TokenCookieName = "token"

	// AuthorizationHeaderName carries "Bearer <token>" when no cookie is sent.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is stripped from the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is read from and echoed on every HTTP response.
	RequestIDHeaderName = "X-Request-Id"
)
