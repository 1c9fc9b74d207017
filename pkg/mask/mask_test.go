package mask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/relaykit/pkg/mask"
)

func TestSecret(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", mask.Secret(""))
	assert.Equal(t, "********", mask.Secret("hunter2"))
	// Output must not depend on input length.
	assert.Equal(t, mask.Secret("x"), mask.Secret("a-much-longer-password"))
}

func TestUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "email", in: "john.doe@example.com", want: "j******e@example.com"},
		{name: "short local", in: "ab@example.com", want: "**@example.com"},
		{name: "single rune local", in: "a@example.com", want: "*@example.com"},
		{name: "bare username", in: "serviceaccount", want: "s************t"},
		{name: "unicode local", in: "žofia@example.com", want: "ž***a@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mask.Username(tt.in))
		})
	}
}
