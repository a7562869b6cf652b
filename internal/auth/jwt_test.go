package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"RestyAPI/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var testNow = time.Unix(1730000000, 0)

func hsConfig() config.JWTConfig {
	return config.JWTConfig{
		ValidationType: "HS256",
		Issuer:         "auth-service",
		Audience:       "resty-api",
		HMACSecret:     "super-secret",
	}
}

func newValidator(t *testing.T, cfg config.JWTConfig) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(cfg)
	if err != nil {
		t.Fatalf("NewJWTValidator failed: %v", err)
	}
	v.clockFunc = func() time.Time { return testNow }
	return v
}

func validClaims(cfg config.JWTConfig) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
		"iat": testNow.Unix() - 10,
		"nbf": testNow.Unix() - 5,
		"exp": testNow.Unix() + 30,
		"sub": "user-1",
	}
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return token
}

func TestHS256ValidateToken(t *testing.T) {
	cfg := hsConfig()
	v := newValidator(t, cfg)

	claims, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(cfg.HMACSecret), validClaims(cfg)))
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims["sub"] != "user-1" {
		t.Fatalf("unexpected sub: %v", claims["sub"])
	}
}

func TestValidateTokenRejects(t *testing.T) {
	cfg := hsConfig()
	v := newValidator(t, cfg)

	cases := map[string]func(jwt.MapClaims){
		"expired":       func(c jwt.MapClaims) { c["exp"] = testNow.Unix() - 1 },
		"not yet valid": func(c jwt.MapClaims) { c["nbf"] = testNow.Unix() + 10 },
		"future iat":    func(c jwt.MapClaims) { c["iat"] = testNow.Unix() + 10 },
		"issuer":        func(c jwt.MapClaims) { c["iss"] = "someone-else" },
		"audience":      func(c jwt.MapClaims) { c["aud"] = "other-api" },
		"missing exp":   func(c jwt.MapClaims) { delete(c, "exp") },
		"missing nbf":   func(c jwt.MapClaims) { delete(c, "nbf") },
		"missing iat":   func(c jwt.MapClaims) { delete(c, "iat") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			claims := validClaims(cfg)
			mutate(claims)
			if _, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(cfg.HMACSecret), claims)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("wrong"), validClaims(cfg))); err == nil {
		t.Fatalf("expected signature error")
	}
	if _, err := v.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestClockSkewAllowsLateToken(t *testing.T) {
	cfg := hsConfig()
	cfg.ClockSkewSec = 30
	v := newValidator(t, cfg)

	claims := validClaims(cfg)
	claims["exp"] = testNow.Unix() - 10
	if _, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(cfg.HMACSecret), claims)); err != nil {
		t.Fatalf("expected token within skew to pass: %v", err)
	}
}

func TestAudienceList(t *testing.T) {
	cfg := hsConfig()
	v := newValidator(t, cfg)

	claims := validClaims(cfg)
	claims["aud"] = []string{"other-api", cfg.Audience}
	if _, err := v.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(cfg.HMACSecret), claims)); err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
}

func TestRS256ValidateToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	cfg := config.JWTConfig{
		ValidationType: "RS256",
		Issuer:         "auth-service",
		Audience:       "resty-api",
		PublicKeyPEM:   publicPEM(t, &priv.PublicKey),
	}
	v := newValidator(t, cfg)

	if _, err := v.ValidateToken(sign(t, jwt.SigningMethodRS256, priv, validClaims(cfg))); err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	// a token signed with the right secret for the wrong algorithm
	hs := sign(t, jwt.SigningMethodHS256, []byte("super-secret"), validClaims(cfg))
	if _, err := v.ValidateToken(hs); err == nil {
		t.Fatalf("expected alg mismatch error")
	}
}

func TestES256ValidateTokenFromPath(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte(publicPEM(t, &priv.PublicKey)), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	cfg := config.JWTConfig{
		ValidationType: "ES256",
		Issuer:         "auth-service",
		Audience:       "resty-api",
		PublicKeyPath:  path,
	}
	v := newValidator(t, cfg)

	if _, err := v.ValidateToken(sign(t, jwt.SigningMethodES256, priv, validClaims(cfg))); err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
}

func TestNewJWTValidatorConfigErrors(t *testing.T) {
	cases := []config.JWTConfig{
		{ValidationType: "HS256", Audience: "a", HMACSecret: "s"},
		{ValidationType: "HS256", Issuer: "i", HMACSecret: "s"},
		{ValidationType: "HS256", Issuer: "i", Audience: "a"},
		{ValidationType: "RS256", Issuer: "i", Audience: "a"},
		{ValidationType: "RS256", Issuer: "i", Audience: "a", PublicKeyPEM: "garbage"},
		{ValidationType: "none", Issuer: "i", Audience: "a"},
	}
	for i, cfg := range cases {
		if _, err := NewJWTValidator(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestHook(t *testing.T) {
	cfg := hsConfig()
	hook := newValidator(t, cfg).Hook()

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if _, reply := hook(req); reply == nil || reply.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %+v", reply)
	}

	req.Header.Set("Authorization", "Bearer garbage")
	if _, reply := hook(req); reply == nil || reply.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %+v", reply)
	}

	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(cfg.HMACSecret), validClaims(cfg)))
	next, reply := hook(req)
	if reply != nil {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	claims, ok := ClaimsFromContext(next.Context())
	if !ok || claims["sub"] != "user-1" {
		t.Fatalf("claims not attached: %v", claims)
	}
}

func publicPEM(t *testing.T, pub any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey failed: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}
