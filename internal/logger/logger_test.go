package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"plan_id", "abc",
		"api_key", "sk-live",
		"Authorization", "Bearer x",
		"dangling",
	})
	assert.Equal(t, []interface{}{
		"plan_id", "abc",
		"api_key", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"dangling",
	}, got)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("hello", "k", 1)
	l.With("req", "1").Warn("still quiet")
}
