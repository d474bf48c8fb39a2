package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	domainUser "github.com/midas-vault/midas-vault/internal/domain/user"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", domainExchange.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", domainExchange.ErrUnauthorized)
	ErrUserDisabled       = fmt.Errorf("%w: user is disabled", domainExchange.ErrUnauthorized)
	ErrUsernameTaken      = fmt.Errorf("%w: username is already taken", domainExchange.ErrPrecondition)
	ErrEmailTaken         = fmt.Errorf("%w: email is already registered", domainExchange.ErrPrecondition)
	ErrAdminExists        = fmt.Errorf("%w: an admin already exists", domainExchange.ErrStateConflict)
)

// AuditLogger records account events.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Claims are carried in every access token.
type Claims struct {
	Username string          `json:"username"`
	Role     domainUser.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service handles registration, login and bearer tokens.
type Service struct {
	users    domainUser.Repository
	secret   []byte
	tokenTTL time.Duration
	auditSvc AuditLogger
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates an auth service. auditSvc may be nil.
func NewService(users domainUser.Repository, secret []byte, tokenTTL time.Duration, auditSvc AuditLogger, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "auth").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput defines a new account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domainUser.User, error) {
	username := domainUser.NormalizeUsername(input.Username)
	email := domainUser.NormalizeEmail(input.Email)
	if err := domainUser.ValidateUsername(username); err != nil {
		return nil, domainExchange.Invalid(err)
	}
	if err := domainUser.ValidateEmail(email); err != nil {
		return nil, domainExchange.Invalid(err)
	}
	if err := domainUser.ValidatePassword(input.Password, username); err != nil {
		return nil, domainExchange.Invalid(err)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := domainUser.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &domainUser.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         domainUser.RoleUser,
		Status:       domainUser.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("username", u.Username).Msg("user registered")
	return u, nil
}

// LoginResult contains login response.
type LoginResult struct {
	User      *domainUser.User `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, domainUser.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if u == nil || !domainUser.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrUserDisabled
	}

	token, expiresAt, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user login")
	return &LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// IssueToken signs an HS256 token for u.
func (s *Service) IssueToken(u *domainUser.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate validates a bearer token and resolves the caller.
// Role is re-read from the store so demotions take effect before expiry.
func (s *Service) Authenticate(ctx context.Context, token string) (domainUser.Actor, error) {
	if token == "" {
		return domainUser.Actor{}, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return domainUser.Actor{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domainUser.Actor{}, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domainUser.Actor{}, err
	}
	if u == nil {
		return domainUser.Actor{}, ErrInvalidToken
	}
	if !u.IsActive() {
		return domainUser.Actor{}, ErrUserDisabled
	}
	return domainUser.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, actor domainUser.Actor) (*domainUser.User, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domainExchange.NotFound("user")
	}
	return u, nil
}

// Bootstrap promotes the caller to ADMIN while the marketplace has none.
func (s *Service) Bootstrap(ctx context.Context, actor domainUser.Actor) (*domainUser.User, error) {
	admins, err := s.users.CountByRole(ctx, domainUser.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		return nil, ErrAdminExists
	}
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	u.Role = domainUser.RoleAdmin
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Warn().Str("user_id", u.ID.String()).Msg("bootstrap admin promoted")
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, &audit.AuditEntry{
			EntityType: audit.EntityUser,
			EntityID:   u.ID.String(),
			Action:     audit.ActionPromote,
			Actor:      actor.String(),
			ActorRole:  string(actor.Role),
			NewValues:  map[string]string{"role": string(u.Role)},
			RiskLevel:  audit.RiskLevelHigh,
		})
	}
	return u, nil
}

// IsAuthError reports whether err should surface as a 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserDisabled)
}
