package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	notLoggedInMessage        = "You are not logged in, please provide token"
	invalidCredentialsMessage = "Invalid username or password"
	internalErrorMessage      = "Internal server error"
)

// errorBody is the shape of every 4xx and 5xx response.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func failBody(msg string) errorBody {
	return errorBody{Status: "fail", Message: msg}
}

// statusFor maps service errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusBadRequest, invalidCredentialsMessage
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, notLoggedInMessage
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// abortWithError writes the mapped error and logs anything that is not the
// caller's fault.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else {
		s.logger.Debug(c.Request.Context(), "request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, failBody(msg))
}
