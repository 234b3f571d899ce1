package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/houseprice/internal/database"
	"github.com/mrlokans/houseprice/internal/database/users"
	"github.com/mrlokans/houseprice/internal/entities"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrBadCredentials   = errors.New("incorrect username or password")
)

// TokenType is the token_type reported to clients.
const TokenType = "bearer"

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service implements registration, login and password management.
type Service struct {
	users  *users.Repository
	hasher *Hasher
	tokens *TokenService
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{
		users:  repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a credential record for username. Taken usernames are
// rejected before the password is hashed.
func (s *Service) Register(ctx context.Context, username, password string) (*entities.User, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
// Unknown usernames and wrong passwords both yield ErrBadCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// Login authenticates the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*entities.User, *AccessToken, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return user, nil, err
	}
	return user, token, nil
}

// IssueToken creates an access token for user with the configured lifetime.
func (s *Service) IssueToken(user *entities.User) (*AccessToken, error) {
	ttl := s.tokens.TTL()
	signed, err := s.tokens.Issue(Claims{Subject: user.Username, IdentityID: user.ID}, ttl)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresIn:   int64(ttl / time.Second),
	}, nil
}

// CurrentIdentity resolves a bearer token to the stored user it names.
// The token must be valid and its subject must still exist with the same id.
func (s *Service) CurrentIdentity(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	// A deleted and re-registered username must not inherit old tokens.
	if claims.IdentityID != 0 && claims.IdentityID != user.ID {
		return nil, ErrNotAuthenticated
	}

	return user, nil
}

// ResetPassword replaces the password of targetID on behalf of actor.
//
// With requireOwnership the actor must be the target, checked before any
// lookup so a forbidden call leaves state untouched. A non-nil oldPassword
// must match the stored hash.
func (s *Service) ResetPassword(ctx context.Context, actor *entities.User, targetID uint, oldPassword *string, newPassword string, requireOwnership bool) (*entities.User, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	if requireOwnership && actor.ID != targetID {
		return nil, ErrForbidden
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if oldPassword != nil && !s.hasher.Verify(*oldPassword, target.PasswordHash) {
		return nil, ErrBadCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdatePasswordHash(ctx, targetID, hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	return updated, nil
}

// ChangePassword lets a user change their own password.
func (s *Service) ChangePassword(ctx context.Context, actor *entities.User, targetID uint, oldPassword, newPassword string) (*entities.User, error) {
	return s.ResetPassword(ctx, actor, targetID, &oldPassword, newPassword, true)
}

// AdminResetPassword sets the password of any user. There is no role system,
// so any authenticated actor may call it; callers are expected to audit it.
func (s *Service) AdminResetPassword(ctx context.Context, actor *entities.User, targetID uint, newPassword string) (*entities.User, error) {
	return s.ResetPassword(ctx, actor, targetID, nil, newPassword, false)
}

// CreateUser registers an account outside of HTTP (CLI bootstrap).
func (s *Service) CreateUser(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	return s.Register(ctx, username, password)
}
