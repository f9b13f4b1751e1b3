package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

func TestAuthServiceValidateIssuedToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "idp", Audience: "shuankun"})

	token, err := svc.IssueToken(models.JWTClaims{UserID: "user-1", Email: "t@example.jp"}, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ActorID())
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceAcceptsSubjectOnlyTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	token, err := svc.IssueToken(models.JWTClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-9"}}, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-9", claims.ActorID())
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Audience: "shuankun"})
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Audience: "shuankun"})
	wrongAudience := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Audience: "elsewhere"})

	forged, err := other.IssueToken(models.JWTClaims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)
	foreign, err := wrongAudience.IssueToken(models.JWTClaims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)
	expired, err := svc.IssueToken(models.JWTClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}, 0)
	require.NoError(t, err)
	anonymous, err := svc.IssueToken(models.JWTClaims{}, time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":   "not-a-token",
		"forged":    forged,
		"audience":  foreign,
		"expired":   expired,
		"anonymous": anonymous,
	} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code, name)
	}
}
