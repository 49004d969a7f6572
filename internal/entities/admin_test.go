package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePasswordValue(t *testing.T) {
	hashed := ParsePasswordValue("$2a$10$abcdefghijklmnopqrstuv")
	assert.Equal(t, PasswordHashed, hashed.Kind)
	assert.Equal(t, "hashed", hashed.Kind.String())

	legacy := ParsePasswordValue("hunter2")
	assert.Equal(t, PasswordPlaintext, legacy.Kind)
	assert.Equal(t, "hunter2", legacy.Value)

	// Only the prefix decides; a "$" elsewhere is still plaintext.
	assert.Equal(t, PasswordPlaintext, ParsePasswordValue("pa$2word").Kind)
}

func TestSubscriberDisplayName(t *testing.T) {
	name := "Ada"
	assert.Equal(t, "Ada", Subscriber{Name: &name}.DisplayName())
	assert.Equal(t, "", Subscriber{}.DisplayName())
}
