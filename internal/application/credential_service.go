package application

import (
	"context"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/saedev/sae-portal/internal/domain/entity"
	repo "github.com/saedev/sae-portal/internal/domain/repository"
	"github.com/saedev/sae-portal/pkg/helpers"
)

// Service implements the credential lifecycle for teacher accounts:
// registration, login, token verification, and profile/password/avatar
// mutation. All state lives in the injected repository; Redis only caches
// session metadata and is never consulted for authorization decisions.
type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *Service {
	return &Service{Repo: r, JWT: jwt, Redis: rdb, Logger: logger}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

// Register validates the triple, checks email uniqueness before username
// uniqueness, and persists a new account with a fresh id. The store's own
// unique constraints backstop the narrow race between check and insert.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	if len(username) < 3 || len(username) > 50 {
		return nil, validationErr("Username must be between 3 and 50 characters")
	}
	if email == "" {
		return nil, validationErr("Email is required")
	}
	if len(password) < 6 {
		return nil, validationErr("Password must be at least 6 characters")
	}

	if taken, err := s.Repo.EmailInUse(ctx, email, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, conflictErr("email", "Email already registered")
	}
	if taken, err := s.Repo.UsernameInUse(ctx, username, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, conflictErr("username", "Username already taken")
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, mapDuplicate(err)
	}
	return u, nil
}

// Login authenticates by email and issues a bearer token with the user id
// as subject. Unknown email and wrong password return the identical error.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, *entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", time.Time{}, nil, ErrInvalidCredentials
		}
		return "", time.Time{}, nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	token, exp, err := s.JWT.Generate(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token generation failed")
		}
		return "", time.Time{}, nil, err
	}

	s.cacheSession(ctx, u, exp)
	return token, exp, u, nil
}

// VerifyToken checks the signature and expiry only; callers must still
// confirm the subject exists so deleted accounts lazily invalidate
// outstanding tokens.
func (s *Service) VerifyToken(token string) (string, error) {
	claims, err := s.JWT.Parse(token)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// GetProfile loads the account for an authenticated subject.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	Username string
	Email    string
}

// UpdateProfile applies the provided fields after per-field uniqueness
// checks that exclude the acting user; untouched fields are preserved.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		if taken, err := s.Repo.UsernameInUse(ctx, in.Username, userID); err != nil {
			return nil, err
		} else if taken {
			return nil, conflictErr("username", "Username already taken")
		}
		u.Username = in.Username
	}
	if in.Email != "" {
		if taken, err := s.Repo.EmailInUse(ctx, in.Email, userID); err != nil {
			return nil, err
		} else if taken {
			return nil, conflictErr("email", "Email already registered")
		}
		u.Email = in.Email
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, mapDuplicate(err)
	}

	s.touchSession(ctx, u.ID, func(rec *sessionRecord) {
		rec.Username = u.Username
		rec.Email = u.Email
	})
	return u, nil
}

// UpdatePassword rotates the hash after re-authenticating with the current
// password. Previously issued tokens stay valid until they expire.
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return validationErr("New password must be at least 6 characters")
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	// Cached session metadata dies with the old credentials; the next
	// login rewrites it. Outstanding tokens stay valid until expiry.
	s.dropSession(ctx, userID)
	return nil
}

// UpdateAvatar overwrites the avatar unconditionally; content is opaque to
// the server beyond presence.
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	if avatar == "" {
		return validationErr("Avatar is required")
	}
	if err := s.Repo.UpdateAvatar(ctx, userID, avatar); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.touchSession(ctx, userID, func(rec *sessionRecord) {
		rec.Avatar = avatar
	})
	return nil
}

// mapDuplicate converts the store's unique-violation rejection into the
// same conflict the pre-checks would have produced.
func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repo.ErrDuplicateEmail):
		return conflictErr("email", "Email already registered")
	case errors.Is(err, repo.ErrDuplicateUsername):
		return conflictErr("username", "Username already taken")
	}
	return err
}

// sessionRecord is the JSON blob cached per login under user:session:<id>.
// It is telemetry for operators, never an authorization input.
type sessionRecord struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	LoggedIn  string `json:"logged_in_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *Service) cacheSession(ctx context.Context, u *entity.User, exp time.Time) {
	if s.Redis == nil {
		return
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return
	}
	key := sessionKey(u.ID)
	rec := sessionRecord{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		LoggedIn: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, key, rec, ttl); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("session cache write failed")
	}
}

// touchSession updates the cached record only when a live session exists,
// preserving its remaining TTL; mutations never create cache keys.
func (s *Service) touchSession(ctx context.Context, userID string, apply func(*sessionRecord)) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(userID)
	var rec sessionRecord
	found, err := helpers.RedisGetJSON(ctx, s.Redis, key, &rec)
	if err != nil || !found {
		return
	}
	ttl, err := s.Redis.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return
	}
	apply(&rec)
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := helpers.RedisSetJSON(ctx, s.Redis, key, rec, ttl); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("session cache write failed")
	}
}

func (s *Service) dropSession(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, sessionKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session cache delete failed")
	}
}
