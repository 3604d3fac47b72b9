package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kreedentials/store/internal/auth"
	"github.com/kreedentials/store/internal/domain"
	"github.com/kreedentials/store/internal/repository"
	apperrors "github.com/kreedentials/store/pkg/errors"
	"github.com/kreedentials/store/pkg/middleware"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// AuthService implements sign-up, sign-in and sign-out for shoppers.
type AuthService struct {
	accounts   repository.AccountRepository
	blocklist  repository.TokenBlocklist
	jwtManager *auth.JWTManager
	logger     *slog.Logger
	hashCost   int
	now        func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	accounts repository.AccountRepository,
	blocklist repository.TokenBlocklist,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		blocklist:  blocklist,
		jwtManager: jwtManager,
		logger:     logger,
		hashCost:   bcryptCost,
		now:        time.Now,
	}
}

// Credentials holds an email and password pair.
type Credentials struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful sign-up or sign-in.
type AuthResult struct {
	User        domain.Identity `json:"user"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// SignUp registers a new account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in Credentials) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		authAttempts.WithLabelValues("signup", outcome(err)).Inc()
		return nil, fmt.Errorf("create account: %w", err)
	}

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	authAttempts.WithLabelValues("signup", outcome(nil)).Inc()
	s.logger.InfoContext(ctx, "account registered",
		slog.String("user_id", account.ID),
	)
	return result, nil
}

// SignIn authenticates an account by email and password.
func (s *AuthService) SignIn(ctx context.Context, in Credentials) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if in.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get account: %w", err)
		}
		authAttempts.WithLabelValues("signin", "unauthorized").Inc()
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		authAttempts.WithLabelValues("signin", "unauthorized").Inc()
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	authAttempts.WithLabelValues("signin", outcome(nil)).Inc()
	s.logger.InfoContext(ctx, "account signed in",
		slog.String("user_id", account.ID),
	)
	return result, nil
}

// SignOut revokes token until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.blocklist.Block(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.logger.InfoContext(ctx, "account signed out",
		slog.String("user_id", claims.UserID),
	)
	return nil
}

// ValidateToken verifies token and checks it has not been revoked. It has the
// shape of middleware.TokenValidator.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	blocked, err := s.blocklist.IsBlocked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if blocked {
		return nil, apperrors.Unauthorized("token has been revoked")
	}

	return &middleware.Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CurrentUser resolves token to the signed-in identity. An invalid, revoked
// or orphaned token yields (Identity{}, false, nil).
func (s *AuthService) CurrentUser(ctx context.Context, token string) (domain.Identity, bool, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, fmt.Errorf("get account: %w", err)
	}

	return account.Identity(), true, nil
}

func (s *AuthService) issue(account *domain.Account) (*AuthResult, error) {
	token, claims, err := s.jwtManager.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{
		User:        account.Identity(),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one letter and one digit")
	}

	return nil
}
