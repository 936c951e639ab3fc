package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/auth"
	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/domain"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	apperrors "github.com/spec-kit/ticket-assigner/pkg/util/errorutil"
)

// TokenRevoker denylists token ids until they would have expired anyway.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService coordinates registration, login and account administration.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	revoker    TokenRevoker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Revoker    TokenRevoker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// SignupInput is the self-service registration payload.
type SignupInput struct {
	Email    string
	Password string
	Skills   []string
}

// UpdateUserInput changes another account's role or skills. Empty skills keep the current set.
type UpdateUserInput struct {
	Email  string
	Role   *domain.UserRole
	Skills []string
}

// Session is an issued token together with its owner.
type Session struct {
	User        *domain.User
	AccessToken string
	Token       domain.Token
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		revoker:    deps.Revoker,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup creates a regular user account and signs it in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !apperrors.IsCode(apperrors.MapError(err), apperrors.CodeNotFound) {
		return nil, apperrors.NewStoreFailure("lookup user", err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
		Skills:       CleanSkills(input.Skills),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewStoreFailure("create user", err)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserSignup,
		Actor:     events.Actor{Type: events.ActorUser, UserID: &user.ID},
		Timestamp: time.Now(),
		Payload:   events.UserSignupPayload{UserID: user.ID, Email: user.Email},
	})

	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsCode(apperrors.MapError(err), apperrors.CodeNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewStoreFailure("lookup user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// Logout revokes the presented token for the rest of its lifetime. Without a revoker
// tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, token domain.Token) error {
	if s.revoker == nil || token.ID == "" {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, token.ID, time.Until(token.ExpiresAt)); err != nil {
		return apperrors.NewStoreFailure("revoke token", err)
	}
	return nil
}

// UpdateUser changes the role and skills of the account identified by email.
func (s *AuthService) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(apperrors.MapError(err), apperrors.CodeNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.NewStoreFailure("lookup user", err)
	}

	if input.Role != nil {
		user.Role = *input.Role
	}
	if skills := CleanSkills(input.Skills); len(skills) > 0 {
		user.Skills = skills
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewStoreFailure("update user", err)
	}
	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Strings("skills", user.Skills))
	return user, nil
}

// ListUsers returns accounts, optionally filtered by role.
func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreFailure("list users", err)
	}
	return users, nil
}

// ListModerators returns moderators eligible for assignment.
func (s *AuthService) ListModerators(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListModerators(ctx)
	if err != nil {
		return nil, apperrors.NewStoreFailure("list moderators", err)
	}
	return users, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	raw, meta, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, AccessToken: raw, Token: meta}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// CleanSkills trims skills and drops blanks and case-insensitive duplicates.
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
