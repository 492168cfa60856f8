// Package services contains server-side business logic. AuthService handles
// application registration, user provisioning and login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/appauth/internal/blocking"
	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/server/auth"
	"github.com/dmitrijs2005/appauth/internal/server/config"
	"github.com/dmitrijs2005/appauth/internal/server/models"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/appauth/internal/server/services"

// LoginResult is a freshly issued access token.
type LoginResult struct {
	Token  string
	Claims auth.TokenClaims
}

// AuthService provides the tenant and credential operations:
//   - RegisterApplication / ListApplications: tenants
//   - InsertUser / FindAllUsers / CurrentUser: users of a tenant
//   - Login: verify credentials and mint an access token
//
// Every repository call runs on the blocking pool.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pool        *blocking.Pool
	hasher      PasswordHasher
	tokens      *auth.TokenCodec
	clock       Clock
	ids         IDGenerator
	tracer      trace.Tracer

	secret    []byte
	dummyOnce sync.Once
	dummyHash string
}

type Option func(*AuthService)

func WithClock(c Clock) Option { return func(s *AuthService) { s.clock = c } }

func WithIDGenerator(g IDGenerator) Option { return func(s *AuthService) { s.ids = g } }

func WithHasher(h PasswordHasher) Option { return func(s *AuthService) { s.hasher = h } }

func WithPool(p *blocking.Pool) Option { return func(s *AuthService) { s.pool = p } }

// NewAuthService constructs an AuthService from repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		hasher:      auth.NewArgon2Hasher(),
		clock:       systemClock{},
		ids:         uuidV7Generator{},
		tracer:      otel.Tracer(tracerName),
		secret:      []byte(cfg.JWTSecret),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = blocking.New(cfg.DBMaxConns, cfg.DBCheckoutTimeout)
	}
	s.tokens = auth.NewTokenCodec(s.secret, s.clock.Now)
	return s
}

// TokenCodec exposes the codec used to mint tokens so the request
// authenticator verifies with the same secret and clock.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.tokens
}

// RegisterApplication creates a tenant. Names are not unique; any non-empty
// name of at most 255 characters is accepted.
func (s *AuthService) RegisterApplication(ctx context.Context, name string) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.RegisterApplication")
	defer func() { endSpan(span, err) }()

	if err := (models.NewApplication{AppName: name}).Validate(); err != nil {
		return nil, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	span.SetAttributes(attribute.String("app.id", id))

	return blocking.Run(ctx, s.pool, func(ctx context.Context) (*models.Application, error) {
		return s.repomanager.Applications(s.db).Create(ctx, &models.Application{ID: id, AppName: name})
	})
}

// ListApplications returns all tenants in registration order.
func (s *AuthService) ListApplications(ctx context.Context) (apps []models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ListApplications")
	defer func() { endSpan(span, err) }()

	return blocking.Run(ctx, s.pool, func(ctx context.Context) ([]models.Application, error) {
		return s.repomanager.Applications(s.db).List(ctx)
	})
}

// InsertUser creates a user in appID and returns its public projection. The
// application check, insert and re-read share one transaction.
func (s *AuthService) InsertUser(ctx context.Context, appID string, nu models.NewUser) (fu *models.FilteredUser, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.InsertUser", trace.WithAttributes(attribute.String("app.id", appID)))
	defer func() { endSpan(span, err) }()

	if err := nu.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	id, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	now := s.clock.Now()

	user := &models.User{
		ID:            id,
		Username:      nu.Username,
		Email:         nu.Email,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
		ApplicationID: appID,
	}

	stored, err := blocking.Run(ctx, s.pool, func(ctx context.Context) (*models.User, error) {
		var out *models.User
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := s.repomanager.Applications(tx).GetByID(ctx, appID); err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return fmt.Errorf("application %s: %w", appID, common.ErrorNotFound)
				}
				return err
			}
			repo := s.repomanager.Users(tx)
			if err := repo.Create(ctx, user); err != nil {
				return err
			}
			var err error
			out, err = repo.GetByID(ctx, user.ID)
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", stored.ID))
	filtered := stored.Filtered()
	return &filtered, nil
}

// FindAllUsers lists the users of appID. An unknown application yields an
// empty list.
func (s *AuthService) FindAllUsers(ctx context.Context, appID string) (out []models.FilteredUser, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.FindAllUsers", trace.WithAttributes(attribute.String("app.id", appID)))
	defer func() { endSpan(span, err) }()

	users, err := blocking.Run(ctx, s.pool, func(ctx context.Context) ([]models.User, error) {
		return s.repomanager.Users(s.db).ListByApplication(ctx, appID)
	})
	if err != nil {
		return nil, err
	}

	out = make([]models.FilteredUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Filtered())
	}
	return out, nil
}

// Login checks the credentials and issues a one-hour token. With
// ApplicationID set the lookup is scoped to that tenant; without it a
// username present in several tenants is rejected. Unknown users and wrong
// passwords both fail with common.ErrorInvalidCredentials after the same
// amount of hashing work.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (res *LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := blocking.Run(ctx, s.pool, func(ctx context.Context) (*models.User, error) {
		repo := s.repomanager.Users(s.db)
		if req.ApplicationID != "" {
			return repo.GetByApplicationAndUsername(ctx, req.ApplicationID, req.Username)
		}
		return repo.GetByUsername(ctx, req.Username)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAmbiguous) {
			s.hasher.Verify(req.Password, s.getDummyHash())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	return &LoginResult{Token: token, Claims: claims}, nil
}

// CurrentUser returns the public projection of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (fu *models.FilteredUser, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CurrentUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	user, err := blocking.Run(ctx, s.pool, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	filtered := user.Filtered()
	return &filtered, nil
}

// --- helpers below ---

// getDummyHash returns a hash no password matches; verifying against it
// costs the same as a real verification.
func (s *AuthService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err == nil {
			s.dummyHash, _ = s.hasher.Hash(pw)
		}
	})
	return s.dummyHash
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
