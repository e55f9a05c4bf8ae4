// Package auth issues and verifies credentials: bcrypt password hashes,
// short-lived JWT access tokens and rotating refresh tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/interfaces"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("an account already exists for this email")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	issuer = "slim-api"
)

// Claims are carried by access tokens. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenPair is returned on signup, signin and refresh.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Options configures a Service.
type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
}

// Service authenticates users.
type Service struct {
	users  interfaces.UserStore
	tokens interfaces.TokenStore
	opts   Options
	// compared against when the email is unknown, so both paths cost one bcrypt run
	dummyHash []byte
}

// NewService builds an auth service. Secret must not be empty.
func NewService(users interfaces.UserStore, tokens interfaces.TokenStore, opts Options) (*Service, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("slim-api-timing"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &Service{users: users, tokens: tokens, opts: opts, dummyHash: dummy}, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Signup creates a patient account and signs it in.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*entities.User, TokenPair, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entities.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		BasicInfo:    entities.BasicInfo{Name: name},
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	logging.Info("User signed up", "user_id", u.ID)
	return u, pair, nil
}

// Signin checks credentials, records the login and returns a token pair.
func (s *Service) Signin(ctx context.Context, email, password string) (*entities.User, TokenPair, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	now := s.opts.Now().UTC()
	if err := s.users.RecordLogin(ctx, u.ID, now); err != nil {
		logging.Warn("Failed to record login", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked. Presenting an already revoked token revokes every session of
// its user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entities.User, TokenPair, error) {
	stored, err := s.tokens.GetRefreshToken(ctx, HashToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if stored.Revoked {
		return nil, TokenPair{}, s.tokenReused(ctx, stored.UserID)
	}
	if !s.opts.Now().Before(stored.ExpiresAt) {
		return nil, TokenPair{}, ErrTokenExpired
	}

	u, err := s.users.GetUser(ctx, stored.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return nil, TokenPair{}, err
	}

	// a concurrent refresh may have rotated the token since it was read
	err = s.tokens.RevokeRefreshToken(ctx, stored.TokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, s.tokenReused(ctx, stored.UserID)
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *Service) tokenReused(ctx context.Context, userID string) error {
	logging.Warn("Revoked refresh token reused, revoking all sessions", "user_id", userID)
	if err := s.tokens.RevokeUserTokens(ctx, userID); err != nil {
		logging.Error("Failed to revoke user sessions", "user_id", userID, "error", err)
	}
	return ErrInvalidToken
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.RevokeRefreshToken(ctx, HashToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// CreateAdmin creates an administrator, or promotes the existing account
// and resets its password.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (*entities.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.users.UpdateUser(ctx, existing.ID, func(u *entities.User) error {
			u.IsAdmin = true
			u.PasswordHash = hash
			if name != "" {
				u.Name = name
			}
			return nil
		})
	case errors.Is(err, store.ErrNotFound):
		u := &entities.User{Email: email, Name: name, PasswordHash: hash, IsAdmin: true}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, err
	}
}

// IssueAccessToken signs an access token for u.
func (s *Service) IssueAccessToken(u *entities.User) (string, error) {
	now := s.opts.Now()
	claims := Claims{
		Email: u.Email,
		Admin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies a token and returns its claims.
func (s *Service) ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) issue(ctx context.Context, u *entities.User) (TokenPair, error) {
	access, err := s.IssueAccessToken(u)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := newRefreshSecret()
	if err != nil {
		return TokenPair{}, err
	}
	now := s.opts.Now().UTC()
	err = s.tokens.SaveRefreshToken(ctx, &entities.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: HashToken(refresh),
		ExpiresAt: now.Add(s.opts.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.opts.AccessTTL.Seconds()),
	}, nil
}

func newRefreshSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken is the stored form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type contextKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}
