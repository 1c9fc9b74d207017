package template_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relaykit/core/template"
)

type mapStore map[string]template.Template

func (m mapStore) GetTemplate(_ context.Context, key string) (template.Template, error) {
	tpl, ok := m[key]
	if !ok {
		return template.Template{}, template.ErrTemplateNotFound
	}
	return tpl, nil
}

func testStore() mapStore {
	return mapStore{
		"welcome": {
			Key:     "welcome",
			Subject: "Welcome, {{name}}!",
			Text:    "Hello {{name}}, your account {{account_id}} is ready.\r\n",
			HTML:    "<p>Hello {{name}}</p>",
		},
	}
}

func TestResolver_Substitution(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore())

	tpl, err := resolver.Resolve(context.Background(), "welcome", map[string]string{
		"name":       "Ada",
		"account_id": "acc_42",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Ada!", tpl.Subject)
	assert.Equal(t, "Hello Ada, your account acc_42 is ready.\r\n", tpl.Text)
	assert.Equal(t, "<p>Hello Ada</p>", tpl.HTML)
}

func TestResolver_StrictMissingTemplate(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore(), template.WithStrictMode(true))

	_, err := resolver.Resolve(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)
}

func TestResolver_FallbackTemplate(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore())

	tpl, err := resolver.Resolve(context.Background(), "nope", nil)
	require.NoError(t, err)
	assert.Contains(t, tpl.Subject, "nope")
	assert.NotEmpty(t, tpl.Text)
}

func TestResolver_StrictMissingVariable(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore(), template.WithStrictMode(true))

	_, err := resolver.Resolve(context.Background(), "welcome", map[string]string{"name": "Ada"})
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrMissingVariable)
	assert.Contains(t, err.Error(), "account_id")
}

func TestResolver_NonStrictLeavesPlaceholder(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore())

	tpl, err := resolver.Resolve(context.Background(), "welcome", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.Contains(t, tpl.Text, "{{account_id}}", "unresolved placeholders stay visible")
	assert.Contains(t, tpl.Text, "Hello Ada")
}

func TestResolver_WhitespaceInPlaceholder(t *testing.T) {
	t.Parallel()

	store := mapStore{
		"spaced": {Key: "spaced", Subject: "Hi {{ name }}", Text: "body\r\n"},
	}
	resolver := template.NewResolver(store)

	tpl, err := resolver.Resolve(context.Background(), "spaced", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", tpl.Subject)
}

func TestResolver_EmptyKey(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(testStore())

	_, err := resolver.Resolve(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, template.ErrInvalidKey)
}

func TestResolver_StoreErrorPassesThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	resolver := template.NewResolver(failingStore{err: boom})

	_, err := resolver.Resolve(context.Background(), "welcome", nil)
	assert.ErrorIs(t, err, boom)
}

type failingStore struct{ err error }

func (f failingStore) GetTemplate(context.Context, string) (template.Template, error) {
	return template.Template{}, f.err
}

func TestResolver_NilStoreFallsBack(t *testing.T) {
	t.Parallel()

	resolver := template.NewResolver(nil)
	tpl, err := resolver.Resolve(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Contains(t, tpl.Subject, "anything")
}
