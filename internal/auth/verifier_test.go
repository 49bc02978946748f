package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJWKS(t *testing.T, kid string, pub *rsa.PublicKey) string {
	t.Helper()
	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	url := serveJWKS(t, "k1", &key.PublicKey)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	v, err := NewJWKSVerifier(ctx, url, "https://project.supabase.co/auth/v1")
	require.NoError(t, err)

	claims := Claims{Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-9",
		Issuer:    "https://project.supabase.co/auth/v1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	got, err := v.Validate(signRS256(t, key, "k1", claims))
	require.NoError(t, err)
	assert.Equal(t, "user-9", got.UserID())

	claims.Issuer = "https://evil.example.com"
	_, err = v.Validate(signRS256(t, key, "k1", claims))
	assert.Error(t, err)

	hs, err := SignToken("user-9", "authenticated", "secret", time.Hour)
	require.NoError(t, err)
	_, err = v.Validate(hs)
	assert.Error(t, err)
}

func TestNewJWKSVerifierRequiresURL(t *testing.T) {
	_, err := NewJWKSVerifier(context.Background(), "", "")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	chain := Chain{NewHMACVerifier("first"), NewHMACVerifier("second")}

	token, err := SignToken("user-1", "authenticated", "second", time.Hour)
	require.NoError(t, err)
	claims, err := chain.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())

	token, err = SignToken("user-1", "authenticated", "third", time.Hour)
	require.NoError(t, err)
	_, err = chain.Validate(token)
	assert.Error(t, err)

	_, err = Chain{}.Validate(token)
	assert.Error(t, err)
}
