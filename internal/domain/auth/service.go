package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"workshop/internal/domain/validation"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Secret() string {
	return s.secret
}

// Login verifies the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", User{}, err
	}
	if user.ID == "" || CheckPassword(user.PasswordHash, password) != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		Grants: user.Permissions,
	}, s.ttl)
	if err != nil {
		return "", User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *Service) CreateUser(ctx context.Context, actor Actor, in NewUserInput) (User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return User{}, err
	}

	v := &validation.Collector{}
	v.MinLength("name", in.Name, minNameLength)
	v.Email("email", in.Email)
	if len(in.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	role, err := ParseRole(in.Role)
	if err != nil || role == RoleAdmin {
		v.Add("role", "must be one of user, supervisor")
	}
	grants := make([]Permission, 0, len(in.Permissions))
	for _, raw := range in.Permissions {
		perm, err := ParsePermission(raw)
		if err != nil {
			v.Add("permissions", fmt.Sprintf("unknown permission %q", raw))
			continue
		}
		grants = append(grants, perm)
	}
	if role == RoleUser && len(grants) == 0 {
		v.Add("permissions", "at least one permission is required for the user role")
	}
	if err := v.Err(); err != nil {
		return User{}, err
	}

	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		Permissions:  dedupe(grants),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, actor Actor) ([]User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrSelfDelete
	}
	return s.store.DeleteUser(ctx, id)
}

// ResolveActor rebuilds the actor for a token from the stored user, so a
// deleted user is refused and role or grant changes apply at once.
func (s *Service) ResolveActor(ctx context.Context, claims *Claims) (Actor, error) {
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return Actor{}, err
	}
	return user.Actor(), nil
}

func (s *Service) Profile(ctx context.Context, actor Actor) (User, error) {
	return s.store.GetUser(ctx, actor.UserID)
}

// UpdateProfile changes the actor's own name, email and optionally password.
func (s *Service) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (User, error) {
	user, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return User{}, err
	}

	v := &validation.Collector{}
	v.MinLength("name", in.Name, minNameLength)
	v.Email("email", in.Email)
	if in.Password != "" && len(in.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := v.Err(); err != nil {
		return User{}, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, user.ID); err != nil {
		return User{}, err
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = normalizeEmail(in.Email)
	if in.Password != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the seed administrator unless a user with that email
// already exists. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing.ID != "" {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	admin := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         RoleAdmin,
		Permissions:  []Permission{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveUser(ctx, admin); err != nil {
		return false, fmt.Errorf("save admin: %w", err)
	}
	return true, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("list users: %w", err)
	}
	wanted := normalizeEmail(email)
	for _, user := range users {
		if user.Email == wanted {
			return user, nil
		}
	}
	return User{}, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing.ID != "" && existing.ID != ownerID {
		return ErrEmailTaken
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(perms []Permission) []Permission {
	seen := map[Permission]struct{}{}
	out := make([]Permission, 0, len(perms))
	for _, perm := range perms {
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, perm)
	}
	return out
}
