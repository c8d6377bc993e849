package tokens

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"kiosk/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mint(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := mint(t, &Claims{
		Role: Roles{globals.RoleSeller},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "s-42",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, globals.RoleSeller, claims.PrimaryRole())
	assert.Equal(t, "s-42", claims.SubjectID())
	got, ok := claims.Expiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestDecodeIgnoresSignature(t *testing.T) {
	token := mint(t, jwt.MapClaims{"role": "customer", "userId": "c-1"})
	// Any signature is accepted; only the payload matters client side.
	tampered := token[:len(token)-4] + "AAAA"

	claims, err := Decode(tampered)
	require.NoError(t, err)
	assert.Equal(t, globals.RoleCustomer, claims.PrimaryRole())
	assert.Equal(t, "c-1", claims.SubjectID())
}

func TestDecodeMalformed(t *testing.T) {
	notJSON := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"
	notObject := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(`"str"`)) + ".sig"

	for name, token := range map[string]string{
		"empty":        "",
		"one segment":  "abc",
		"two segments": "abc.def",
		"four":         "a.b.c.d",
		"bad base64":   "a.!!!.c",
		"not json":     notJSON,
		"not object":   notObject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFormat))
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second))}}
	exact := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now)}}
	future := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}

	assert.True(t, IsExpired(past, now))
	assert.True(t, IsExpired(exact, now), "now == expiry counts as expired")
	assert.False(t, IsExpired(future, now))
	assert.False(t, IsExpired(&Claims{}, now), "no exp claim")
}

func TestValidate(t *testing.T) {
	expired := mint(t, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	_, err := Validate(expired, time.Now())
	assert.ErrorIs(t, err, ErrExpired)

	_, err = Validate("garbage", time.Now())
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestRolesUnmarshal(t *testing.T) {
	var r Roles
	require.NoError(t, r.UnmarshalJSON([]byte(`["admin","seller"]`)))
	assert.Equal(t, Roles{globals.RoleAdmin, globals.RoleSeller}, r)

	require.NoError(t, r.UnmarshalJSON([]byte(`"customer"`)))
	assert.Equal(t, Roles{globals.RoleCustomer}, r)

	assert.Error(t, r.UnmarshalJSON([]byte(`42`)))
}
