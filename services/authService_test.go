package services

import (
	"context"
	"testing"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *AuthService {
		return NewAuthService(newStores(t).users, "test-secret", time.Hour, testTracer)
	}

	t.Run("register then log in", func(t *testing.T) {
		svc := setup(t)

		token, user, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.NotEqual(t, "secret1", user.Password)

		userId, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.Id, userId)

		token, logged, err := svc.LogIn(ctx, "ana@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, user.Id, logged.Id)
		assert.NotEmpty(t, token)

		me, err := svc.Me(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, "Ana", me.Name)
	})

	t.Run("register validation", func(t *testing.T) {
		svc := setup(t)

		_, _, err := svc.Register(ctx, RegisterInput{Name: "", Email: "nope", Password: "123"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := setup(t)

		_, _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ANA@example.com", Password: "secret2"})
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists())
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)

		_, _, err = svc.LogIn(ctx, "ana@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials())
		_, _, err = svc.LogIn(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials())
	})

	t.Run("rejected tokens", func(t *testing.T) {
		svc := setup(t)

		expired := NewAuthService(nil, "test-secret", -time.Hour, testTracer)
		expired.tokenTTL = -time.Minute
		token, err := expired.CreateToken(domain.User{Id: "u1"})
		require.NoError(t, err)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken())

		other := NewAuthService(nil, "other-secret", time.Hour, testTracer)
		token, err = other.CreateToken(domain.User{Id: "u1"})
		require.NoError(t, err)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken())

		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(time.Hour).Unix()})
		token, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken())

		_, err = svc.VerifyToken("garbage")
		assert.ErrorIs(t, err, domain.ErrInvalidToken())
	})

	t.Run("users list hides passwords", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
		require.NoError(t, err)

		users, err := svc.Users(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Empty(t, users[0].Password)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}
