package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"
	"waitlist_funnel/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionStarter is notified after a successful login so the operator's
// dashboard can be loaded once.
type SessionStarter interface {
	Start(ctx context.Context, sid string) error
}

// OperatorSession is what a successful login hands back to the client.
type OperatorSession struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sid"`
	AdminID   int       `json:"admin_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OperatorClaims are the JWT claims of an operator token.
type OperatorClaims struct {
	AdminID   int    `json:"admin_id"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type AuthUsecase struct {
	creds     interfaces.CredentialStore
	jwtSecret []byte
	tokenTTL  time.Duration
	starter   SessionStarter
	now       func() time.Time
}

func NewAuthUsecase(creds interfaces.CredentialStore, secret string, tokenTTL time.Duration, starter SessionStarter) *AuthUsecase {
	return &AuthUsecase{
		creds:     creds,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		starter:   starter,
		now:       time.Now,
	}
}

// Login looks up the admin row by exact email and verifies the password.
// It returns ErrCredentialNotFound or ErrInvalidPassword on the two
// recoverable failures. A dashboard load failure does not fail the login;
// the dashboard shows it as a failed load instead.
func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (*OperatorSession, error) {
	admin, err := uc.creds.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if !VerifyPassword(admin.Password, password) {
		return nil, ErrInvalidPassword
	}
	if admin.Password.Kind == entities.PasswordPlaintext {
		log.Ctx(ctx).Warn().Int("admin_id", admin.ID).Msg("admin password stored in plaintext")
	}

	expires := uc.now().Add(uc.tokenTTL)
	sid := uuid.NewString()
	claims := OperatorClaims{
		AdminID:   admin.ID,
		Email:     admin.Email,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(uc.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if uc.starter != nil {
		if err := uc.starter.Start(ctx, sid); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("initial dashboard load failed")
		}
	}

	return &OperatorSession{
		Token:     tokenString,
		SessionID: sid,
		AdminID:   admin.ID,
		Email:     admin.Email,
		ExpiresAt: expires,
	}, nil
}

// ParseToken validates an operator token and returns its claims.
func (uc *AuthUsecase) ParseToken(tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return uc.jwtSecret, nil
	}, jwt.WithTimeFunc(uc.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureAdmin creates the bootstrap admin if no row exists for email
// (called on startup). Existing rows are never modified.
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := uc.creds.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := uc.creds.Create(ctx, email, hashed); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Ctx(ctx).Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}
