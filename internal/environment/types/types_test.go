package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithValue(t *testing.T) {
	base := Occurrence{Name: "PORT", File: "/repo/.env", Line: 1}
	assert.False(t, base.HasValue())
	assert.Equal(t, "", base.ValueString())
	assert.True(t, base.Valid())

	valued := base.WithValue("3000", SourceDotEnv, false)
	assert.True(t, valued.HasValue())
	assert.Equal(t, "3000", valued.ValueString())
	assert.Equal(t, SourceDotEnv, *valued.ValueSource)
	assert.True(t, valued.Valid())
	assert.False(t, base.HasValue(), "WithValue must not modify the receiver")
}

func TestValid(t *testing.T) {
	v := "x"
	assert.False(t, Occurrence{File: "f", Line: 1}.Valid(), "name required")
	assert.False(t, Occurrence{Name: "A", File: "f"}.Valid(), "line is 1-based")
	assert.False(t, Occurrence{Name: "A", File: "f", Line: 1, Value: &v}.Valid(), "value without source")
	assert.False(t, Occurrence{Name: "A", File: "f", Line: 1, IsDefault: true}.Valid(), "default without value")
}

func TestKey(t *testing.T) {
	a := Occurrence{Name: "A", File: "f", Line: 2, Pattern: "x"}
	b := Occurrence{Name: "A", File: "f", Line: 2, Pattern: "y"}.WithValue("v", SourceCodeDefault, true)
	assert.Equal(t, a.Key(), b.Key())
}

func TestIsUppercaseName(t *testing.T) {
	for _, name := range []string{"PORT", "API_KEY", "V2", "A_1_B"} {
		assert.True(t, IsUppercaseName(name), name)
	}
	for _, name := range []string{"", "port", "Api_Key", "_PRIVATE", "2FA", "app.name", "WITH-DASH"} {
		assert.False(t, IsUppercaseName(name), name)
	}
}

func TestIsSensitive(t *testing.T) {
	for _, name := range []string{"JWT_SECRET", "DB_PASSWORD", "GITHUB_TOKEN", "DATABASE_URL", "STRIPE_API_KEY", "SIGNING_KEY"} {
		assert.True(t, IsSensitive(name), name)
	}
	for _, name := range []string{"PORT", "NODE_ENV", "KEYBOARD_LAYOUT", "LOG_LEVEL"} {
		assert.False(t, IsSensitive(name), name)
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "su********", Mask("supersecretvalue"))
	assert.Equal(t, "ab***", Mask("abcde"))
}
