// Package auth guards the API: kiosks present the anonymous API key, staff
// exchange the shared staff password for a short-lived JWT.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
)

const (
	APIKeyHeader = "apikey"
	RoleStaff    = "staff"
)

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	AnonKey           string
	StaffPassword     string
	StaffPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration
	Issuer            string
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Authenticator struct {
	anonKey []byte
	pwHash  []byte
	secret  []byte
	ttl     time.Duration
	issuer  string
	now     func() time.Time
}

// New prepares the authenticator. A plaintext staff password is hashed once here
// so comparisons always go through bcrypt.
func New(cfg Config) (*Authenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	hash := []byte(cfg.StaffPasswordHash)
	if len(hash) == 0 {
		if cfg.StaffPassword == "" {
			return nil, errors.New("staff password is not configured")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.StaffPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash staff password: %w", err)
		}
		hash = h
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("staff password hash: %w", err)
	}
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		anonKey: []byte(cfg.AnonKey),
		pwHash:  hash,
		secret:  []byte(cfg.JWTSecret),
		ttl:     ttl,
		issuer:  cfg.Issuer,
		now:     time.Now,
	}, nil
}

// CheckStaffPassword returns domain.ErrInvalidPassword on mismatch.
func (a *Authenticator) CheckStaffPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(a.pwHash, []byte(password)); err != nil {
		return domain.ErrInvalidPassword
	}
	return nil
}

func (a *Authenticator) IssueStaffToken(password string) (domain.TokenResponse, error) {
	if err := a.CheckStaffPassword(password); err != nil {
		return domain.TokenResponse{}, err
	}
	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   RoleStaff,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: RoleStaff,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.TokenResponse{AccessToken: signed, ExpiresAt: exp, TokenType: "Bearer"}, nil
}

func (a *Authenticator) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return a.secret, nil }, opts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != RoleStaff {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// ValidAPIKey compares in constant time. An empty configured key disables the check.
func (a *Authenticator) ValidAPIKey(key string) bool {
	if len(a.anonKey) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare(a.anonKey, []byte(key)) == 1
}

// RequireAPIKey accepts the key from the apikey header or the apikey query parameter
// (websocket clients cannot set headers from browsers).
func (a *Authenticator) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			key = r.URL.Query().Get(APIKeyHeader)
		}
		if !a.ValidAPIKey(key) {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "missing or invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := a.ParseToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			httpx.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

type claimsKey struct{}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// Login handles POST /staff/login: the staff password in, a bearer token out.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	tok, err := a.IssueStaffToken(req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tok)
}
