package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/pkg/jwt"
)

var admin = jwt.Identity{UserID: "u1", CompanyID: "c1", Role: "admin"}

func TestGenerateYParse_IdaYVuelta(t *testing.T) {
	token, err := jwt.Generate("secreto", admin, "stockledger", 5*time.Minute)
	require.NoError(t, err)

	id, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, admin, id)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := jwt.Generate("secreto", admin, "stockledger", 5*time.Minute)
	require.NoError(t, err)
	_, err = jwt.Parse("otro", token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestParse_TokenExpiradoFueraDeTolerancia(t *testing.T) {
	token, err := jwt.Generate("secreto", admin, "stockledger", -time.Hour)
	require.NoError(t, err)
	_, err = jwt.Parse("secreto", token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestParse_ExpiradoDentroDeTolerancia(t *testing.T) {
	token, err := jwt.Generate("secreto", admin, "stockledger", -5*time.Second)
	require.NoError(t, err)
	_, err = jwt.Parse("secreto", token)
	assert.NoError(t, err)
}

func TestParse_SinUserID(t *testing.T) {
	token, err := jwt.Generate("secreto", jwt.Identity{CompanyID: "c1"}, "stockledger", time.Minute)
	require.NoError(t, err)
	_, err = jwt.Parse("secreto", token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestParse_RechazaAlgoritmoNone(t *testing.T) {
	tok := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = jwt.Parse("secreto", s)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestGenerate_SinSecreto(t *testing.T) {
	_, err := jwt.Generate("", admin, "x", time.Minute)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}
