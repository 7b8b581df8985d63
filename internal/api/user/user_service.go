package user

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for account operations.
// It is the only component permitted to reason about plaintext vs. hashed
// passwords. Every operation is a blocking store round-trip (plus at most one
// bcrypt computation) and must be called from a request goroutine, never from
// an accept loop.
type UserService interface {
	// SignUp hashes the plaintext password and persists the new account,
	// returning the store-assigned identifier.
	SignUp(ctx context.Context, u api.User) (string, error)
	// Login verifies the plaintext password against the stored hash for the
	// first user matching username. An unknown username yields (false, nil),
	// indistinguishable from a wrong password.
	Login(ctx context.Context, username, password string) (bool, error)
	// Read fetches an account by identifier; nil means not found.
	Read(ctx context.Context, id string) (*api.User, error)
	// Update replaces the full document and returns the previous one, or nil
	// if nothing matched. The password field is persisted exactly as supplied.
	Update(ctx context.Context, id string, u api.User) (*api.User, error)
	// Delete removes an account and returns the removed document, or nil if
	// nothing matched.
	Delete(ctx context.Context, id string) (*api.User, error)
}

// UserServiceImpl provides the implementation for UserService. It is
// stateless between calls; the repository owns the shared collection handle.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// SignUp registers a new account. The password is hashed with a randomized
// per-call salt before the document ever reaches the store; the insert is
// attempted exactly once.
func (s *UserServiceImpl) SignUp(ctx context.Context, u api.User) (string, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "SignUp", trace.WithAttributes(
		attribute.String("user.username", u.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SignUp"), slog.String("username", u.Username))
	l.DebugContext(ctx, "Registering new user")

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		// Only reachable with an out-of-range cost factor: a configuration
		// defect, not a per-request condition.
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to hash password")
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	u.Password = string(hashed)

	id, err := s.repo.Insert(ctx, u)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert user")
		return "", fmt.Errorf("error registering user: %w", err)
	}

	metrics.Get().SignUpRequestsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "User registered successfully", slog.String("userID", id))
	span.SetStatus(codes.Ok, "User registered successfully")
	return id, nil
}

// Login authenticates a username/password pair against the stored hash.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (bool, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Login", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("username", username))
	l.DebugContext(ctx, "Authenticating user")

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to look up user")
		return false, fmt.Errorf("error authenticating user: %w", err)
	}

	metrics.Get().LoginAttemptsTotal.Add(ctx, 1)

	// Unknown username is a valid negative outcome, not an error
	if u == nil {
		l.InfoContext(ctx, "Login rejected")
		span.SetStatus(codes.Ok, "Login rejected")
		return false, nil
	}

	ok := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	if ok {
		l.InfoContext(ctx, "Login accepted")
	} else {
		l.InfoContext(ctx, "Login rejected")
	}
	span.SetStatus(codes.Ok, "Login processed")
	return ok, nil
}

// Read retrieves an account by identifier.
func (s *UserServiceImpl) Read(ctx context.Context, id string) (*api.User, error) {
	l := s.logger.With(slog.String("method", "Read"), slog.String("userID", id))
	l.DebugContext(ctx, "Fetching user")

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	return u, nil
}

// Update performs a full-document replace. The caller supplies the complete
// desired state; the password field is not re-hashed here, so callers are
// responsible for sending a hashed value when changing credentials.
func (s *UserServiceImpl) Update(ctx context.Context, id string, u api.User) (*api.User, error) {
	l := s.logger.With(slog.String("method", "Update"), slog.String("userID", id))
	l.DebugContext(ctx, "Replacing user document")

	prev, err := s.repo.Replace(ctx, id, u)
	if err != nil {
		l.ErrorContext(ctx, "Failed to replace user document", slog.Any("error", err))
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	if prev != nil {
		l.InfoContext(ctx, "User updated successfully")
	}
	return prev, nil
}

// Delete removes an account by identifier.
func (s *UserServiceImpl) Delete(ctx context.Context, id string) (*api.User, error) {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("userID", id))
	l.DebugContext(ctx, "Deleting user")

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		return nil, fmt.Errorf("error deleting user: %w", err)
	}

	if removed != nil {
		l.InfoContext(ctx, "User deleted successfully")
	}
	return removed, nil
}
