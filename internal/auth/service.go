package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/earnpro/rewards-backend/pkg/auth"
	"github.com/earnpro/rewards-backend/pkg/auth/session"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service authenticates the single configured operator.
type Service interface {
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogout(ctx context.Context, tokenID string) error
}

type sessionManager interface {
	Start(ctx context.Context, username string) (string, error)
	Revoke(ctx context.Context, tokenID string) error
	TTL() time.Duration
}

type service struct {
	session  sessionManager
	jwtCfg   config.JWTConfig
	admin    config.AdminConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Admin          config.AdminConfig
	Password       config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

// NewService constructs an admin login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if strings.TrimSpace(params.Admin.Username) == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		admin:    params.Admin,
		password: params.Password,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if err := s.authenticate(ctx, username, req.Password); err != nil {
		return nil, err
	}

	tokenID, err := s.session.Start(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start admin session")
	}

	now := s.now().UTC()
	ttl := s.session.TTL()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Username: username,
		Role:     enums.RoleAdmin,
		JTI:      tokenID,
		TTL:      ttl,
	})
	if err != nil {
		if revokeErr := s.session.Revoke(ctx, tokenID); revokeErr != nil && s.logg != nil {
			s.logg.Error(ctx, "revoke orphaned admin session", revokeErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "admin", username), "admin login")
	}
	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(ttl),
		Username:    username,
	}, nil
}

func (s *service) AdminLogout(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}
	if err := s.session.Revoke(ctx, tokenID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if strings.TrimSpace(s.admin.PasswordHash) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(strings.TrimSpace(s.admin.Username))) == 1
	valid, err := security.VerifyPassword(password, s.admin.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !userMatch || !valid {
		if s.logg != nil {
			s.logg.Warn(ctx, "admin login rejected")
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if rehash, err := security.NeedsRehash(s.admin.PasswordHash, s.password); err == nil && rehash && s.logg != nil {
		s.logg.Warn(ctx, "admin password hash uses outdated argon2 parameters")
	}
	return nil
}
