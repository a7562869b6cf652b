package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"RestyAPI/internal/config"
	"RestyAPI/internal/logger"
	"RestyAPI/internal/router"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsContextKey contextKey = "jwt_claims"

type JWTValidator struct {
	cfg       config.JWTConfig
	key       any
	parser    *jwt.Parser
	clockFunc func() time.Time
}

func NewJWTValidator(cfg config.JWTConfig) (*JWTValidator, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("jwt audience is required")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.ValidationType))
	if alg == "" {
		return nil, errors.New("jwt validation type is required")
	}

	v := &JWTValidator{cfg: cfg, clockFunc: time.Now}

	switch alg {
	case "HS256":
		if cfg.HMACSecret == "" {
			return nil, errors.New("jwt hmac secret is required for HS256")
		}
		v.key = []byte(cfg.HMACSecret)
	case "RS256":
		keyPEM, err := loadPublicKeyPEM(cfg)
		if err != nil {
			return nil, err
		}
		if v.key, err = jwt.ParseRSAPublicKeyFromPEM(keyPEM); err != nil {
			return nil, fmt.Errorf("jwt public key is not RSA: %w", err)
		}
	case "ES256":
		keyPEM, err := loadPublicKeyPEM(cfg)
		if err != nil {
			return nil, err
		}
		if v.key, err = jwt.ParseECPublicKeyFromPEM(keyPEM); err != nil {
			return nil, fmt.Errorf("jwt public key is not ECDSA: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported jwt validation type: %s", cfg.ValidationType)
	}

	skew := cfg.ClockSkewSec
	if skew < 0 {
		skew = 0
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(time.Duration(skew)*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		// indirection so tests can move the clock after construction
		jwt.WithTimeFunc(func() time.Time { return v.clockFunc() }),
	)
	return v, nil
}

// ValidateToken verifies the signature and the registered claims. exp, nbf
// and iat are all required.
func (v *JWTValidator) ValidateToken(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, err
	}
	if nbf, _ := claims.GetNotBefore(); nbf == nil {
		return nil, errors.New("jwt claim nbf is required")
	}
	if iat, _ := claims.GetIssuedAt(); iat == nil {
		return nil, errors.New("jwt claim iat is required")
	}
	return claims, nil
}

// Hook authenticates every dispatch with a bearer token and stores the
// claims in the request context.
func (v *JWTValidator) Hook() router.Hook {
	return func(r *http.Request) (*http.Request, *router.Reply) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return nil, &router.Reply{Status: http.StatusUnauthorized, Message: "Authorization required"}
		}
		claims, err := v.ValidateToken(token)
		if err != nil {
			logger.Warn("auth_rejected", map[string]any{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			return nil, &router.Reply{Status: http.StatusUnauthorized, Message: "Invalid token"}
		}
		return r.WithContext(WithClaims(r.Context(), claims)), nil
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (map[string]any, bool) {
	claims, ok := ctx.Value(claimsContextKey).(map[string]any)
	return claims, ok
}

func loadPublicKeyPEM(cfg config.JWTConfig) ([]byte, error) {
	keyPEM := strings.TrimSpace(cfg.PublicKeyPEM)
	if keyPEM == "" && strings.TrimSpace(cfg.PublicKeyPath) != "" {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		keyPEM = string(data)
	}
	if keyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}
	return []byte(keyPEM), nil
}
