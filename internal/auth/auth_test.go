package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"spielapi/internal/platform/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestUsers(t *testing.T) *StaticUsers {
	t.Helper()
	hash, err := crypto.HashPassword("p")
	require.NoError(t, err)
	return NewStaticUsers([]User{
		{Username: "admin", PasswordHash: hash, Roles: []string{"ADMIN", "Mitarbeiter"}},
		{Username: "dirk.delta", PasswordHash: hash, Roles: []string{"kunde", "superuser"}},
	})
}

func TestNormalizeRoles(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"Admin"}, []string{RoleAdmin}},
		{[]string{"ADMIN", "admin", " mitarbeiter "}, []string{RoleAdmin, RoleMitarbeiter}},
		{[]string{"root", "AbteilungsLeiter", "kunde"}, []string{RoleAbteilungsleiter, RoleKunde}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRoles(tt.in), "%v", tt.in)
	}
}

func TestParseUsers(t *testing.T) {
	raw := []byte(`
users:
  - username: Admin
    password_hash: "$2a$10$abc"
    roles: [admin, MITARBEITER, ghost]
  - username: kunde
    password: p
`)
	users, err := ParseUsers(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, users.Len())

	u, err := users.FindByUsername(context.Background(), "ADMIN")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, []string{RoleAdmin, RoleMitarbeiter}, u.Roles)

	u, err = users.FindByUsername(context.Background(), "kunde")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, crypto.VerifyPassword(u.PasswordHash, "p"))
	assert.Empty(t, u.Password)

	u, err = users.FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = ParseUsers([]byte("users:\n  - username: x\n"))
	assert.Error(t, err)

	_, err = ParseUsers([]byte("users: ["))
	assert.Error(t, err)
}

func TestLoadUsers_MissingFile(t *testing.T) {
	_, err := LoadUsers("does/not/exist.yaml")
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	svc := NewService(testSecret, "spielapi", time.Hour, newTestUsers(t), NewMemoryBlacklist(), nil)
	ctx := context.Background()

	tok, err := svc.Login(ctx, "admin", "p")
	require.NoError(t, err)
	assert.Equal(t, 3600, tok.ExpiresIn)
	assert.Equal(t, []string{RoleAdmin, RoleMitarbeiter}, tok.Roles)

	claims, err := crypto.ParseToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Sub)
	assert.Equal(t, "spielapi", claims.Issuer)
	assert.Equal(t, []string{RoleAdmin, RoleMitarbeiter}, claims.Roles)

	tok, err = svc.Login(ctx, "dirk.delta", "p")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleKunde}, tok.Roles)

	_, err = svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "ghost", "p")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_Logout(t *testing.T) {
	bl := NewMemoryBlacklist()
	svc := NewService(testSecret, "spielapi", time.Hour, newTestUsers(t), bl, nil)
	ctx := context.Background()

	tok, err := svc.Login(ctx, "admin", "p")
	require.NoError(t, err)
	claims, err := crypto.ParseToken(testSecret, tok.Token)
	require.NoError(t, err)

	revoked, err := bl.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, tok.Token))

	revoked, err = bl.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, svc.Logout(ctx, "garbage"), ErrUnauthorized)
}

func TestMemoryBlacklist_Expiry(t *testing.T) {
	bl := NewMemoryBlacklist()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, bl.Add(ctx, "old", now.Add(-time.Minute)))

	ok, _ := bl.IsBlacklisted(ctx, "a")
	assert.True(t, ok)
	ok, _ = bl.IsBlacklisted(ctx, "old")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = bl.IsBlacklisted(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, bl.Add(ctx, "b", now.Add(time.Minute)))
	assert.Len(t, bl.entries, 1)
}

func TestRedisBlacklist(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	bl, err := OpenRedisBlacklist(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bl.Close() })

	jti := "test-" + time.Now().Format("150405.000000000")
	ok, err := bl.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bl.Add(ctx, jti, time.Now().Add(time.Minute)))
	ok, err = bl.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.True(t, ok)
}
