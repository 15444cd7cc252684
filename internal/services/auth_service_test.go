package services

import (
	"context"
	"testing"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(env *testEnv) (AuthService, *utils.TokenIssuer) {
	tokens := utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(env.profiles, tokens, AuthOptions{PasswordMinLength: 6, BcryptCost: bcrypt.MinCost}, env.log), tokens
}

func TestSignUpAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	auth, tokens := newAuth(env)
	ctx := context.Background()

	resp, err := auth.SignUp(ctx, &SignUpRequest{
		Email:    "  Amal@OusTaa.ly ",
		Password: "secret1",
		UserType: "driver",
		FullName: "Amal",
		CarModel: "Kia Rio",
		CarPlate: "5-998877",
	})
	require.NoError(t, err)
	assert.Equal(t, "amal@oustaa.ly", resp.Profile.Email)
	assert.Equal(t, models.UserTypeDriver, resp.Profile.UserType)
	assert.Equal(t, "Kia Rio", resp.Profile.CarModel)
	assert.NotEqual(t, "secret1", resp.Profile.PasswordHash)

	claims, err := tokens.ValidateAccessToken(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, claims.UserID)
	assert.Equal(t, "driver", claims.UserType)

	signedIn, err := auth.SignIn(ctx, &SignInRequest{Email: "amal@oustaa.ly", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, signedIn.Profile.ID)

	refreshed, err := auth.Refresh(ctx, signedIn.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, refreshed.Profile.ID)

	_, err = auth.Refresh(ctx, signedIn.Tokens.AccessToken)
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))
}

func TestSignUpRejections(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuth(env)
	ctx := context.Background()

	_, err := auth.SignUp(ctx, &SignUpRequest{Email: "a@oustaa.ly", Password: "12345", UserType: "rider", FullName: "Ali"})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	_, err = auth.SignUp(ctx, &SignUpRequest{Email: "a@oustaa.ly", Password: "123456", UserType: "pilot", FullName: "Ali"})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	_, err = auth.SignUp(ctx, &SignUpRequest{Email: "a@oustaa.ly", Password: "123456", UserType: "rider", FullName: "Ali"})
	require.NoError(t, err)
	_, err = auth.SignUp(ctx, &SignUpRequest{Email: "A@oustaa.ly", Password: "123456", UserType: "rider", FullName: "Ali"})
	assert.ErrorIs(t, err, utils.ConflictError(utils.CodeConflict, ""))
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuth(env)
	ctx := context.Background()

	_, err := auth.SignUp(ctx, &SignUpRequest{Email: "a@oustaa.ly", Password: "123456", UserType: "rider", FullName: "Ali"})
	require.NoError(t, err)

	_, err = auth.SignIn(ctx, &SignInRequest{Email: "a@oustaa.ly", Password: "wrong-one"})
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))

	_, err = auth.SignIn(ctx, &SignInRequest{Email: "nobody@oustaa.ly", Password: "123456"})
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))
}
