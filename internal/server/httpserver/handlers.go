package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/dmitrijs2005/appauth/internal/server/auth"
	"github.com/dmitrijs2005/appauth/internal/server/models"
	"github.com/dmitrijs2005/appauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const healthMessage = "JWT Authentication in Go using Gin"

// AuthService is the business API behind the routes.
type AuthService interface {
	RegisterApplication(ctx context.Context, name string) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	InsertUser(ctx context.Context, appID string, nu models.NewUser) (*models.FilteredUser, error)
	FindAllUsers(ctx context.Context, appID string) ([]models.FilteredUser, error)
	Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*models.FilteredUser, error)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": healthMessage})
}

func (s *Server) registerApplication(c *gin.Context) {
	app, err := s.svc.RegisterApplication(c.Request.Context(), c.Param("app_name"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) listApplications(c *gin.Context) {
	apps, err := s.svc.ListApplications(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeEncodedList(c, apps)
}

func (s *Server) insertUser(c *gin.Context) {
	var nu models.NewUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		s.abortWithError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	user, err := s.svc.InsertUser(c.Request.Context(), c.Param("app_id"), nu)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.svc.FindAllUsers(c.Request.Context(), c.Param("app_id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeEncodedList(c, users)
}

// login serves both GET (legacy, JSON body on a GET) and POST.
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	res, err := s.svc.Login(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	http.SetCookie(c.Writer, s.tokenCookie(res.Token))
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": res.Token})
}

func (s *Server) me(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		s.abortWithError(c, common.ErrorUnauthorized)
		return
	}

	user, err := s.svc.CurrentUser(c.Request.Context(), p.UserID.String())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}

// writeEncodedList answers with a JSON string whose content is the JSON
// array, the shape existing clients of the list endpoints parse.
func (s *Server) writeEncodedList(c *gin.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, string(b))
}

func (s *Server) tokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: s.opts.sameSite(),
	}
}
