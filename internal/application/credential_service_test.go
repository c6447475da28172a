package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/saedev/sae-portal/internal/application"
	"github.com/saedev/sae-portal/internal/domain/entity"
	repo "github.com/saedev/sae-portal/internal/domain/repository"
	"github.com/saedev/sae-portal/pkg/helpers"
)

// memRepo is an in-memory UserRepository enforcing the same uniqueness the
// Postgres schema does, so service tests exercise both the pre-checks and
// the store-rejection path.
type memRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}}
}

func (m *memRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return repo.ErrDuplicateUsername
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) EmailInUse(_ context.Context, email, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) UsernameInUse(_ context.Context, username, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for _, other := range m.users {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return repo.ErrDuplicateUsername
		}
	}
	stored.Username = u.Username
	stored.Email = u.Email
	stored.UpdatedAt = time.Now().UTC()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRepo) UpdateAvatar(_ context.Context, id, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Avatar = avatar
	u.UpdatedAt = time.Now().UTC()
	return nil
}

var _ repo.UserRepository = (*memRepo)(nil)

func newService(ttl time.Duration) (*application.Service, *memRepo) {
	r := newMemRepo()
	return application.NewService(r, helpers.NewJWTManager("test-secret", ttl), nil, nil), r
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "secret1", u.PasswordHash)
	require.Equal(t, u.CreatedAt, u.UpdatedAt)

	token, exp, logged, err := svc.Login(ctx, "ana@x.edu", "secret1")
	require.NoError(t, err)
	require.Equal(t, u.ID, logged.ID)
	require.True(t, exp.After(time.Now()))

	uid, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, uid)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		detail   string
	}{
		{"short username", "ab", "a@x.edu", "secret1", "Username must be between 3 and 50 characters"},
		{"long username", string(make([]byte, 51)), "a@x.edu", "secret1", "Username must be between 3 and 50 characters"},
		{"empty email", "ana", "", "secret1", "Email is required"},
		{"short password", "ana", "a@x.edu", "12345", "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			var verr *application.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.detail, verr.Detail)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	// Different username, same email: still a conflict.
	_, err = svc.Register(ctx, "otrauser", "ana@x.edu", "secret2")
	var cerr *application.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "email", cerr.Field)
	require.Equal(t, "Email already registered", cerr.Detail)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ana", "otra@x.edu", "secret2")
	var cerr *application.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "username", cerr.Field)
	require.Equal(t, "Username already taken", cerr.Detail)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	_, _, _, errWrongPwd := svc.Login(ctx, "ana@x.edu", "wrong")
	_, _, _, errNoUser := svc.Login(ctx, "nobody@x.edu", "secret1")

	require.ErrorIs(t, errWrongPwd, application.ErrInvalidCredentials)
	require.ErrorIs(t, errNoUser, application.ErrInvalidCredentials)
	require.Equal(t, errWrongPwd.Error(), errNoUser.Error())
}

func TestVerifyTokenExpiredVsInvalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	expired, memStore := newService(-1 * time.Second)
	u, err := expired.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)
	token, _, _, err := expired.Login(ctx, "ana@x.edu", "secret1")
	require.NoError(t, err)

	_, err = expired.VerifyToken(token)
	require.ErrorIs(t, err, application.ErrTokenExpired)

	fresh := application.NewService(memStore, helpers.NewJWTManager("test-secret", time.Hour), nil, nil)
	_, err = fresh.VerifyToken("garbage.token.value")
	require.ErrorIs(t, err, application.ErrTokenInvalid)

	// A valid, unexpired token for an existing user still resolves.
	tok, _, _, err := fresh.Login(ctx, "ana@x.edu", "secret1")
	require.NoError(t, err)
	uid, err := fresh.VerifyToken(tok)
	require.NoError(t, err)
	require.Equal(t, u.ID, uid)
}

func TestUpdateProfileEmailConflictLeavesUsernameUntouched(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "luis", "luis@x.edu", "secret2")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, ana.ID, application.UpdateProfileInput{
		Username: "ana.renamed",
		Email:    "luis@x.edu",
	})
	var cerr *application.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "email", cerr.Field)

	got, err := svc.GetProfile(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "ana", got.Username)
	require.Equal(t, "ana@x.edu", got.Email)
}

func TestUpdateProfileKeepsUntouchedFields(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	got, err := svc.UpdateProfile(ctx, ana.ID, application.UpdateProfileInput{Username: "ana.g"})
	require.NoError(t, err)
	require.Equal(t, "ana.g", got.Username)
	require.Equal(t, "ana@x.edu", got.Email)
	require.True(t, got.UpdatedAt.After(ana.UpdatedAt) || got.UpdatedAt.Equal(ana.UpdatedAt))

	// Reclaiming your own value is not a conflict.
	_, err = svc.UpdateProfile(ctx, ana.ID, application.UpdateProfileInput{Email: "ana@x.edu"})
	require.NoError(t, err)
}

func TestUpdatePasswordRotation(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, ana.ID, "secret1", "12345")
	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "New password must be at least 6 characters", verr.Detail)

	err = svc.UpdatePassword(ctx, ana.ID, "nope", "newsecret")
	require.ErrorIs(t, err, application.ErrWrongPassword)

	require.NoError(t, svc.UpdatePassword(ctx, ana.ID, "secret1", "newsecret"))

	_, _, _, err = svc.Login(ctx, "ana@x.edu", "secret1")
	require.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, _, _, err = svc.Login(ctx, "ana@x.edu", "newsecret")
	require.NoError(t, err)
}

func TestUpdateAvatar(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	ctx := context.Background()

	ana, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)

	err = svc.UpdateAvatar(ctx, ana.ID, "")
	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Avatar is required", verr.Detail)

	require.NoError(t, svc.UpdateAvatar(ctx, ana.ID, "data:image/png;base64,AAAA"))
	got, err := svc.GetProfile(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "data:image/png;base64,AAAA", got.Avatar)
}

// The session cache is best effort: every credential operation must succeed
// whether Redis is absent or unreachable, and the mutation paths only
// refresh an existing session rather than minting cache keys of their own.
func TestMutationsSurviveCacheOutage(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)
	svc.Redis = redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = svc.Redis.Close() })
	ctx := context.Background()

	ana, err := svc.Register(ctx, "ana", "ana@x.edu", "secret1")
	require.NoError(t, err)
	_, _, _, err = svc.Login(ctx, "ana@x.edu", "secret1")
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, ana.ID, application.UpdateProfileInput{Username: "ana.g"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateAvatar(ctx, ana.ID, "data:image/png;base64,AAAA"))
	require.NoError(t, svc.UpdatePassword(ctx, ana.ID, "secret1", "newsecret"))
}

func TestGetProfileUnknownUser(t *testing.T) {
	t.Parallel()
	svc, _ := newService(time.Hour)

	_, err := svc.GetProfile(context.Background(), "missing-id")
	require.ErrorIs(t, err, application.ErrUserNotFound)
}
