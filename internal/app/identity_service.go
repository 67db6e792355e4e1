package app

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gamified-lms/internal/domain"
)

const minPasswordLength = 6

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(u domain.User) (string, error)
}

// IdentityService owns registration, login and role management.
type IdentityService struct {
	users      UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

func NewIdentityService(users UserRepository, tokens TokenIssuer, bcryptCost int) *IdentityService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &IdentityService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Registration is the self-service sign-up payload.
type Registration struct {
	FullName string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a student or teacher account. Admins are only created through SeedAdmin.
func (s *IdentityService) Register(ctx context.Context, reg Registration) (domain.User, error) {
	name := strings.TrimSpace(reg.FullName)
	if name == "" {
		return domain.User{}, domain.Validation("full_name", "is required")
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return domain.User{}, err
	}
	if len(reg.Password) < minPasswordLength {
		return domain.User{}, domain.Validation("password", "must be at least %d characters", minPasswordLength)
	}
	role := reg.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if role != domain.RoleStudent && role != domain.RoleTeacher {
		return domain.User{}, domain.Validation("role", "must be student or teacher")
	}
	return s.create(ctx, name, email, reg.Password, role)
}

// SeedAdmin creates the first admin account when the store has no users yet.
// It reports whether an account was created.
func (s *IdentityService) SeedAdmin(ctx context.Context, fullName, email, password string) (bool, error) {
	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if len(password) < minPasswordLength {
		return false, domain.Validation("password", "must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = "Administrator"
	}
	if _, err := s.create(ctx, fullName, normalized, password, domain.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *IdentityService) create(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.CreateUser(ctx, domain.User{
		FullName:     name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
}

// Authenticate checks credentials and returns the user with a fresh bearer token.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (domain.User, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, normalized)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, token, nil
}

// Profile returns the actor's own account.
func (s *IdentityService) Profile(ctx context.Context, actor domain.Actor) (domain.User, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return domain.User{}, err
	}
	return s.users.GetUserByID(ctx, actor.UserID)
}

// UpdateProfile changes the actor's display name. Email and role are not self-editable.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor domain.Actor, fullName string) (domain.User, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return domain.User{}, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.User{}, domain.Validation("full_name", "is required")
	}
	return s.users.UpdateUserName(ctx, actor.UserID, fullName)
}

// ListUsers is admin only.
func (s *IdentityService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := domain.Authorize(actor.Role, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// SetRole changes a user's role; admin only.
func (s *IdentityService) SetRole(ctx context.Context, actor domain.Actor, userID int64, role domain.Role) (domain.User, error) {
	if err := domain.Authorize(actor.Role, domain.RoleAdmin); err != nil {
		return domain.User{}, err
	}
	if !role.Valid() {
		return domain.User{}, domain.Validation("role", "must be student, teacher or admin")
	}
	return s.users.UpdateUserRole(ctx, userID, role)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.Validation("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Validation("email", "is not a valid address")
	}
	return email, nil
}
