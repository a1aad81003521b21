package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/earnpro/rewards-backend/pkg/auth"
	"github.com/earnpro/rewards-backend/pkg/auth/session"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/security"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "earnpro", ExpirationMinutes: 30}

func TestAdminLoginExpiryFollowsSessionTTL(t *testing.T) {
	fixed := time.Now().UTC().Truncate(time.Second)
	svc, _ := buildTestService(t, "op-secret", func() time.Time { return fixed })

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Username: "ops", Password: "op-secret"})
	require.NoError(t, err)
	assert.Equal(t, "ops", resp.Username)
	assert.Equal(t, fixed.Add(2*time.Hour), resp.ExpiresAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(2*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestAdminLoginTokenCarriesSession(t *testing.T) {
	svc, sessions := buildTestService(t, "op-secret", nil)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Username: " ops ", Password: "op-secret"})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
	require.Len(t, sessions.started, 1)
	assert.Equal(t, sessions.started[0], claims.ID)
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	svc, sessions := buildTestService(t, "op-secret", nil)

	cases := []LoginRequest{
		{Username: "ops", Password: "wrong"},
		{Username: "root", Password: "op-secret"},
		{Username: "", Password: "op-secret"},
		{Username: "ops", Password: ""},
	}
	for _, req := range cases {
		_, err := svc.AdminLogin(context.Background(), req)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "%+v", req)
	}
	assert.Empty(t, sessions.started)
}

func TestAdminLoginWithoutConfiguredHash(t *testing.T) {
	sessions := &stubSessionManager{ttl: time.Hour}
	svc, err := NewService(ServiceParams{
		SessionManager: sessions,
		JWTConfig:      testJWT,
		Admin:          config.AdminConfig{Username: "ops"},
	})
	require.NoError(t, err)

	_, err = svc.AdminLogin(context.Background(), LoginRequest{Username: "ops", Password: "anything"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdminLoginSessionStoreDown(t *testing.T) {
	svc, sessions := buildTestService(t, "op-secret", nil)
	sessions.startErr = errors.New("redis down")

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Username: "ops", Password: "op-secret"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestAdminLogout(t *testing.T) {
	svc, sessions := buildTestService(t, "op-secret", nil)

	require.NoError(t, svc.AdminLogout(context.Background(), "token-1"))
	assert.Equal(t, []string{"token-1"}, sessions.revoked)

	err := svc.AdminLogout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	sessions.revokeErr = errors.New("redis down")
	err = svc.AdminLogout(context.Background(), "token-2")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	sessions.revokeErr = session.ErrSessionNotFound
	err = svc.AdminLogout(context.Background(), "token-3")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestNewServiceRequiresUsername(t *testing.T) {
	_, err := NewService(ServiceParams{SessionManager: &stubSessionManager{}})
	assert.Error(t, err)
}

func buildTestService(t *testing.T, password string, now func() time.Time) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{ttl: 2 * time.Hour}
	svc, err := NewService(ServiceParams{
		SessionManager: sessions,
		JWTConfig:      testJWT,
		Admin:          config.AdminConfig{Username: "ops", PasswordHash: mustHashPassword(t, password)},
		Now:            now,
	})
	require.NoError(t, err)
	return svc, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	return hash
}

type stubSessionManager struct {
	ttl       time.Duration
	started   []string
	revoked   []string
	startErr  error
	revokeErr error
}

func (s *stubSessionManager) Start(ctx context.Context, username string) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	id := session.NewTokenID()
	s.started = append(s.started, id)
	return id, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, tokenID string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = append(s.revoked, tokenID)
	return nil
}

func (s *stubSessionManager) TTL() time.Duration {
	return s.ttl
}
