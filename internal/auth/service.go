package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

const (
	// sessionKeyPrefix namespaces session tokens in Redis.
	sessionKeyPrefix = "session:"

	// sessionTokenBytes of entropy per token, hex-encoded to 64 chars.
	sessionTokenBytes = 32

	minPasswordLen = 8
)

// AuthService is the business logic contract for accounts and sessions.
// Handlers go through this interface, never the repository.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
}

type authService struct {
	repo       UserRepository
	redis      *redis.Client
	sessionTTL time.Duration
}

func NewAuthService(repo UserRepository, rdb *redis.Client, sessionTTL time.Duration) AuthService {
	return &authService{repo: repo, redis: rdb, sessionTTL: sessionTTL}
}

// Register validates the input, hashes the password with argon2id, and
// persists the account.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	fields := make(map[string]string)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "a valid email address is required"
	}
	if input.Name == "" {
		fields["name"] = "a display name is required"
	}
	if len(input.Password) < minPasswordLen {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLen)
	}
	if input.Age != nil && (*input.Age < 1 || *input.Age > 150) {
		fields["age"] = "age must be between 1 and 150"
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	// Duplicate check before the expensive hash.
	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Gender:       input.Gender,
		Age:          input.Age,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
	return user, nil
}

// Login checks the credentials and opens a Redis session. A missing account
// and a wrong password return the same message.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			return "", nil, apperror.NewUnauthorized("invalid email or password")
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, apperror.NewUnauthorized("invalid email or password")
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
	return token, user, nil
}

// ValidateSession resolves a token to its session, or unauthorized if the
// token is unknown or expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}
	return &session, nil
}

// DestroySession logs the user out by deleting the Redis key.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session: %w", err))
	}
	return nil
}

func (s *authService) openSession(ctx context.Context, user *User) (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	data, err := json.Marshal(Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}
