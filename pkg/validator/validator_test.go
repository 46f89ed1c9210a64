package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bookingkit/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("nil when all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "Jane"),
			validator.ValidEmail("email", "jane@example.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "  "),
			validator.ValidEmail("email", "nope"),
			validator.MaxLen("email", "nope", 2),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.True(t, validator.IsValidationError(err))

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 3)
		assert.Equal(t, []string{"name", "email"}, verrs.Fields())
		assert.True(t, verrs.Has("email"))
		assert.Len(t, verrs.Get("email"), 2)
		assert.Equal(t, map[string][]string{
			"name":  {"field is required"},
			"email": {"must be a valid email address", "must be at most 2 characters long"},
		}, verrs.Map())
		assert.Equal(t, "validation.required", verrs[0].TranslationKey)
	})

	t.Run("extracts through wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("invite: %w", validator.Apply(validator.Required("email", "")))
		assert.Len(t, validator.ExtractValidationErrors(err), 1)
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("other")))
		assert.False(t, validator.IsValidationError(nil))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		valid bool
	}{
		{"jane@example.com", true},
		{"jane.doe+team@mail.example.co", true},
		{"", false},
		{"jane", false},
		{"jane@localhost", false},
		{"jane@example..com", false},
		{"@example.com", false},
		{"Jane <jane@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, validator.ValidEmail("email", tt.email).Check())
		})
	}
}

func TestOptionalURL(t *testing.T) {
	t.Parallel()

	assert.True(t, validator.OptionalURL("url", "").Check())
	assert.True(t, validator.OptionalURL("url", "https://app.example.com/billing?ok=1").Check())
	assert.False(t, validator.OptionalURL("url", "ftp://example.com").Check())
	assert.False(t, validator.OptionalURL("url", "/relative").Check())
	assert.False(t, validator.OptionalURL("url", "https://").Check())
}

func TestChoiceRules(t *testing.T) {
	t.Parallel()

	allowed := []string{"bookings:read", "calendar:read"}

	assert.True(t, validator.InList("role", "admin", []string{"admin", "viewer"}).Check())
	assert.False(t, validator.InList("role", "owner", []string{"admin", "viewer"}).Check())

	assert.True(t, validator.Subset("permissions", []string{"calendar:read"}, allowed).Check())
	assert.True(t, validator.Subset("permissions", []string{}, allowed).Check())
	assert.False(t, validator.Subset("permissions", []string{"calendar:read", "*"}, allowed).Check())

	assert.True(t, validator.MaxLenSlice("permissions", allowed, 2).Check())
	assert.False(t, validator.MaxLenSlice("permissions", allowed, 1).Check())
}

func TestRequiredUUID(t *testing.T) {
	t.Parallel()

	assert.True(t, validator.RequiredUUID("id", uuid.New()).Check())
	assert.False(t, validator.RequiredUUID("id", uuid.Nil).Check())
}
