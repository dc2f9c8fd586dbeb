package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"diaryshare/internal/infra/logging"
	"diaryshare/internal/infra/metrics"
)

// ===== Bearer token primitives =====

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

type AuthConfig struct {
	HMACSecret []byte
	Issuer     string
	TTL        time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret, issuer string, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret: []byte(secret),
		Issuer:     issuer,
		TTL:        ttl,
	}}
}

// AccountClaims carries the identity provider's account id as the subject.
type AccountClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Mint issues a token for accountID. The service only verifies tokens; Mint
// exists for the identity provider side and for tests.
func (a *AuthManager) Mint(accountID, username string) (string, error) {
	now := time.Now()
	claims := AccountClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   accountID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.cfg.HMACSecret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*AccountClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return nil, errMissingToken
	}
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errInvalidToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*AccountClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	claims := &AccountClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, opts...)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ===== Request identity =====

type ctxKey struct{}

func withAccount(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// AccountFrom returns the authenticated account id for the request.
func AccountFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// requireAccount verifies the bearer token and registers the account on first sight.
func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			if errors.Is(err, errMissingToken) {
				metrics.IncAuth("missing")
			} else {
				metrics.IncAuth("invalid")
			}
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		username := claims.Username
		if username == "" {
			username = claims.Subject
		}
		ctx := logging.WithAccountID(r.Context(), claims.Subject)
		if _, err := s.entitlements.EnsureAccount(ctx, claims.Subject, username); err != nil {
			s.fail(w, r, err)
			return
		}
		metrics.IncAuth("authorized")
		next.ServeHTTP(w, r.WithContext(withAccount(ctx, claims.Subject)))
	})
}
