package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuestion(t *testing.T) {
	assert.NoError(t, ValidateQuestion(""))
	assert.NoError(t, ValidateQuestion("What is the notice period?"))
	assert.NoError(t, ValidateQuestion(strings.Repeat("a", 2000)))
	assert.Error(t, ValidateQuestion(strings.Repeat("a", 2001)))
}

func TestValidateSeverity(t *testing.T) {
	for _, s := range []string{"critical", "high", "medium", "low", "HIGH"} {
		assert.NoError(t, ValidateSeverity(s), s)
	}
	assert.Error(t, ValidateSeverity("urgent"))
	assert.Error(t, ValidateSeverity(""))
}

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme"))
	assert.NoError(t, ValidateTenantID("acme-legal_2"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("bad!tenant"))
	assert.Error(t, ValidateTenantID(strings.Repeat("a", 65)))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("0b2587e5-9169-4d36-b2f1-6a97c0b3a6cf"))
	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("not-a-uuid"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString("  hello\x00 world\x01 "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 42, ValidateLimit(42))
	assert.Equal(t, 100, ValidateLimit(500))
}
