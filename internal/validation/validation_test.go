package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"abc12345", false},
		{"correct horse 9", false},
		{"short1", true},
		{"allletters", true},
		{"12345678", true},
		{strings.Repeat("a1", 36), false},
		{strings.Repeat("a1", 36) + "b", true},
		{strings.Repeat("a1", 40), true},
		{strings.Repeat("é", 35) + "1", false},
		{strings.Repeat("é", 36) + "1", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob_99", "carol-d"}
	invalid := []string{"al", "_alice", "alice-", "has space", "semi;colon", strings.Repeat("x", 31)}

	for _, u := range valid {
		assert.NoError(t, ValidateUsername(u), u)
	}
	for _, u := range invalid {
		assert.Error(t, ValidateUsername(u), u)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("alice@"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 115)+"@x.com"))
}
