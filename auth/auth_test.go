package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/store"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *store.SQLiteStore, *clock) {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	c := &clock{now: time.Now()}
	svc, err := NewService(s, s, Options{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        c.Now,
	})
	require.NoError(t, err)
	return svc, s, c
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := NewService(nil, nil, Options{})
	assert.Error(t, err)
}

func TestSignupAndSignin(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	u, pair, err := svc.Signup(ctx, "Patient@Example.com", "s3cret-pass", "Jeanne")
	require.NoError(t, err)
	assert.Equal(t, "patient@example.com", u.Email)
	assert.Equal(t, "Jeanne", u.BasicInfo.Name)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	_, _, err = svc.Signup(ctx, "patient@example.com", "another-pass", "Other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	signedIn, _, err := svc.Signin(ctx, "PATIENT@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, signedIn.ID)
	require.NotNil(t, signedIn.LastLoginAt)

	stored, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	_, _, err = svc.Signin(ctx, "patient@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Signin(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccessToken(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService(t)

	u, pair, err := svc.Signup(ctx, "a@example.com", "password1", "A")
	require.NoError(t, err)

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.False(t, claims.Admin)

	clk.now = clk.now.Add(16 * time.Minute)
	_, err = svc.ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = svc.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessToken_RejectsOtherSecretsAndAlgorithms(t *testing.T) {
	svc, _, clk := newTestService(t)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(clk.now.Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, first, err := svc.Signup(ctx, "b@example.com", "password1", "B")
	require.NoError(t, err)

	_, second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// reusing the rotated token revokes the whole family
	_, _, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// staleTokens returns the token as it was before any revocation, which is
// what a refresh racing another one observes.
type staleTokens struct {
	*store.SQLiteStore
}

func (s staleTokens) GetRefreshToken(ctx context.Context, tokenHash string) (*entities.RefreshToken, error) {
	t, err := s.SQLiteStore.GetRefreshToken(ctx, tokenHash)
	if err == nil {
		t.Revoked = false
	}
	return t, err
}

func TestRefreshLostRaceIsReuse(t *testing.T) {
	ctx := context.Background()
	svc, s, clk := newTestService(t)

	_, first, err := svc.Signup(ctx, "race@example.com", "password1", "Race")
	require.NoError(t, err)
	_, second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	racing, err := NewService(s, staleTokens{s}, Options{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		BcryptCost: bcrypt.MinCost,
		Now:        clk.Now,
	})
	require.NoError(t, err)

	_, _, err = racing.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the winner's session is revoked too
	_, _, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, pair, err := svc.Signup(ctx, "conc@example.com", "password1", "Conc")
	require.NoError(t, err)

	const n = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load(), "exactly one refresh may rotate the token")
}

func TestRefreshExpired(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService(t)

	_, pair, err := svc.Signup(ctx, "c@example.com", "password1", "C")
	require.NoError(t, err)

	clk.now = clk.now.Add(2 * time.Hour)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, pair, err := svc.Signup(ctx, "d@example.com", "password1", "D")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "unknown"))

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	admin, err := svc.CreateAdmin(ctx, "admin@example.com", "admin-pass", "Admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	u, _, err := svc.Signup(ctx, "promote@example.com", "old-pass1", "P")
	require.NoError(t, err)
	promoted, err := svc.CreateAdmin(ctx, "promote@example.com", "new-pass1", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin)
	assert.Equal(t, "P", promoted.Name)

	_, pair, err := svc.Signin(ctx, "promote@example.com", "new-pass1")
	require.NoError(t, err)
	claims, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Email: "x@example.com"})
	c, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x@example.com", c.Email)
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
