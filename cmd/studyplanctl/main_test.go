package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"alcyxob/intern-platform/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", t.TempDir()))
	err := Execute(context.Background())
	return out.String(), err
}

func TestIssueToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("JWT_ISSUER", "dev-issuer")
	userID := primitive.NewObjectID().Hex()

	out, err := run(t, "issue-token", "--user", userID, "--role", "admin", "--ttl", "1h")
	require.NoError(t, err)

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(string(bytes.TrimSpace([]byte(out))), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("dev-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "dev-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestIssueToken_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	userID := primitive.NewObjectID().Hex()

	_, err := run(t, "issue-token", "--user", "nope", "--role", "student", "--ttl", "1h")
	assert.ErrorContains(t, err, "invalid --user")

	_, err = run(t, "issue-token", "--user", userID, "--role", "captain", "--ttl", "1h")
	assert.ErrorContains(t, err, "unknown --role")
}

func TestStoreCommands_MemoryDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")

	out, err := run(t, "ensure-indexes")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexes are in place.")

	out, err = run(t, "migrate-slugs")
	require.NoError(t, err)
	assert.Contains(t, out, "Slugs written: 0 plans, 0 days, 0 lessons")

	out, err = run(t, "lessons", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached lessons.")
}

func TestSignToken(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	signed, err := signToken("k", "iss", "abc", domain.RoleStudent, time.Hour, now)
	require.NoError(t, err)

	claims := &tokenClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(signed, claims)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.Subject)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}
