// Package user registers users and checks their credentials.
package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/roach88/wellbeing/internal/database"
	"github.com/roach88/wellbeing/internal/observability"
)

const (
	selectByEmail = "SELECT * FROM users WHERE email = $1;"
	insertUser    = "INSERT INTO users (email, password) VALUES ($1, $2);"
)

var (
	emailRe = regexp.MustCompile(`\A[^@\s]+@([^@\s]+\.)+[^@\s]+\z`)

	// ErrMissingCredentials is returned by Register when the email or
	// password is empty.
	ErrMissingCredentials = errors.New("unable to register user: missing user information")
	// ErrEmailTaken is returned by Register when the email is already in use.
	ErrEmailTaken = errors.New("email is taken")
)

// Credentials is what a user logs in or registers with.
type Credentials struct {
	Email    string
	Password string
}

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"email", "password"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, field+" "+msg)
		}
	}
	return "invalid credentials: " + strings.Join(parts, ", ")
}

// Validate checks the email shape and the password length. bcrypt only
// reads the first 72 bytes of a password, so longer ones are rejected.
func (c Credentials) Validate() error {
	fields := map[string]string{}

	switch {
	case c.Password == "":
		fields["password"] = "is required"
	case len(c.Password) < 6:
		fields["password"] = "is too short (min. 6 characters)"
	case len(c.Password) > 72:
		fields["password"] = "is too long (max. 72 characters)"
	}

	switch {
	case c.Email == "":
		fields["email"] = "is required"
	case len(c.Email) < 5 || !emailRe.MatchString(c.Email):
		fields["email"] = "is invalid"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Hasher hashes passwords and compares a password with a hash.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, password, hash string) (bool, error)
}

// Service looks users up and registers them through a database.Runner.
type Service struct {
	run    database.Runner
	hasher Hasher
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(run database.Runner, hasher Hasher, logger *zap.Logger) *Service {
	return &Service{run: run, hasher: hasher, logger: observability.OrNop(logger)}
}

// GetUserByEmail returns the raw query result for an email.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (database.Result, error) {
	result, err := s.run.Query(ctx, selectByEmail, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return result, nil
}

// Login reports whether the credentials belong to a user, and returns the
// user row when they do. Missing credentials, an unknown email and a wrong
// password all yield false without an error.
func (s *Service) Login(ctx context.Context, creds *Credentials) (bool, database.Row, error) {
	if creds == nil || creds.Email == "" || creds.Password == "" {
		return false, nil, nil
	}
	s.logger.Debug("logging in", zap.String("email", creds.Email))

	result, err := s.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		return false, nil, err
	}

	row := database.FirstRow(result)
	if row == nil {
		return false, nil, nil
	}

	hash, _ := row["password"].(string)
	ok, err := s.hasher.Compare(ctx, creds.Password, hash)
	if err != nil {
		return false, nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return false, nil, nil
	}
	return true, row, nil
}

// Register stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, creds *Credentials) error {
	if creds == nil || creds.Email == "" || creds.Password == "" {
		return ErrMissingCredentials
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	s.logger.Debug("registering user", zap.String("email", creds.Email))

	hash, err := s.hasher.Hash(ctx, creds.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.run.Query(ctx, insertUser, creds.Email, hash); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
