package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/udrf/internal/domain/apperr"
)

// Roles carried in the token's role claim.
const (
	RoleExpert = "expert"
	RoleAdmin  = "admin"
)

const tokenIssuer = "udrf"

// Claims identifies the caller. Sub is the expert ID every review
// operation is scoped to.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies the bearer tokens issued by the session service.
type Authenticator struct {
	hmac []byte
	ttl  time.Duration
}

// NewAuthenticator creates an HS256 authenticator for secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{hmac: []byte(secret), ttl: 8 * time.Hour}
}

// IssueToken signs a token for sub with role.
func (a *Authenticator) IssueToken(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

// Parse verifies tokenStr and returns its claims.
func (a *Authenticator) Parse(tokenStr string) (*Claims, error) {
	const op = "api.parse_token"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apperr.WrapKind(op, ErrUnauthorized, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(c.Sub) == "" {
		return nil, apperr.NewKind(op, ErrUnauthorized, "token has no subject")
	}
	return c, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "api.auth"
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, apperr.NewKind(op, ErrUnauthorized, "missing bearer token"))
			return
		}
		claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeError(w, apperr.NewKind(op, ErrUnauthorized, "invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFrom(r.Context())
			if !ok || !strings.EqualFold(c.Role, role) {
				writeError(w, apperr.Newf("api.require_role", ErrForbidden, "role %s required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the caller's claims stored by the middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// expertID returns the authenticated expert.
func expertID(r *http.Request) (string, error) {
	c, ok := ClaimsFrom(r.Context())
	if !ok {
		return "", apperr.NewKind("api.expert_id", ErrUnauthorized, "no caller identity")
	}
	return c.Sub, nil
}
