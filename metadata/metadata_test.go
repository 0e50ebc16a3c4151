package metadata

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID int
}

func TestNewPartitionsBindings(t *testing.T) {
	md, err := New("get", "/users/{id}/posts",
		PathVariable(0, "id"),
		QueryParam(1, "page"),
		QueryObject(3),
		RequestBody(2),
		Header("Accept", "application/json"),
		Returning(Returns[[]user]()),
	)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, md.HTTPMethod())
	assert.Equal(t, "/users/{id}/posts", md.URLTemplate())
	assert.Equal(t, map[int]string{0: "id"}, md.PathVariables())
	assert.Equal(t, map[int]string{1: "page"}, md.QueryParams())

	idx, ok := md.QueryObjectIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	idx, ok = md.RequestBodyIndex()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	assert.Equal(t, "application/json", md.Headers().Get("Accept"))
	assert.Equal(t, reflect.TypeOf([]user{}), md.Returns().Payload())
	assert.Equal(t, 4, md.Arity())
}

func TestNewWithoutOptionalBindings(t *testing.T) {
	md, err := New(http.MethodDelete, "/users")
	require.NoError(t, err)

	_, ok := md.QueryObjectIndex()
	assert.False(t, ok)
	_, ok = md.RequestBodyIndex()
	assert.False(t, ok)
	assert.Equal(t, 0, md.Arity())
	assert.Nil(t, md.Returns().Declared())
}

func TestNewRejectsInvalidDeclarations(t *testing.T) {
	cases := map[string][]Option{
		"duplicate position": {PathVariable(0, "id"), QueryParam(0, "q")},
		"two bodies":         {RequestBody(0), RequestBody(1)},
		"two query objects":  {QueryObject(0), QueryObject(1)},
		"negative position":  {QueryParam(-1, "q")},
		"empty path name":    {PathVariable(0, "")},
		"empty query name":   {QueryParam(0, "")},
		"unknown kind":       {Bindings(ParameterBinding{Position: 0, Kind: BindingKind(42)})},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(http.MethodGet, "/users/{id}", opts...)
			require.Error(t, err)
			assert.True(t, errors.IsBinding(err))
		})
	}
}

func TestNewRejectsMalformedTemplate(t *testing.T) {
	_, err := New(http.MethodGet, "/users/{id")
	assert.True(t, errors.IsBinding(err))

	_, err = New(http.MethodGet, "users/{id}")
	assert.True(t, errors.IsBinding(err))

	_, err = New("", "/users")
	assert.True(t, errors.IsBinding(err))

	assert.Panics(t, func() { MustNew(http.MethodGet, "/users/{id") })
}

func TestNewNamesOffendingBinding(t *testing.T) {
	_, err := New(http.MethodGet, "/u/{id}", PathVariable(0, "id"), QueryParam(0, "q"))
	require.Error(t, err)

	var e errors.Error
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Message(), "QueryParam(q)@0")
	assert.Contains(t, e.Message(), "PathVariable(id)@0")
}

func TestTemplateExpandEscapesValues(t *testing.T) {
	tpl, err := CompileTemplate("/files/{name}")
	require.NoError(t, err)

	got, err := tpl.Expand(map[string]string{"name": "a?b=c#d e/f%"})
	require.NoError(t, err)
	assert.Equal(t, "/files/a%3Fb=c%23d%20e%2Ff%25", got)
}

func TestAccessorsReturnCopies(t *testing.T) {
	md := MustNew(http.MethodGet, "/users/{id}", PathVariable(0, "id"), Header("X-Static", "a"))

	md.PathVariables()[5] = "leak"
	md.Headers().Set("X-Static", "changed")

	assert.Equal(t, map[int]string{0: "id"}, md.PathVariables())
	assert.Equal(t, "a", md.Headers().Get("X-Static"))
}

func TestReturnsEnvelope(t *testing.T) {
	rt := Returns[serialize.Envelope[user]]()
	assert.True(t, rt.Envelope())
	assert.Equal(t, reflect.TypeOf(user{}), rt.Payload())

	rt = Returns[user]()
	assert.False(t, rt.Envelope())
	assert.Equal(t, reflect.TypeOf(user{}), rt.Payload())

	assert.False(t, NoContent().Envelope())
	assert.Nil(t, NoContent().Payload())
}

func TestTemplateExpand(t *testing.T) {
	tpl, err := CompileTemplate("/users/{id}/posts/{post}")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "post"}, tpl.Vars())

	got, err := tpl.Expand(map[string]string{"id": "42", "post": "7", "unused": "x"})
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts/7", got)

	_, err = tpl.Expand(map[string]string{"id": "42"})
	assert.Error(t, err)
}

func TestTemplateKeepsLiteralQuery(t *testing.T) {
	tpl, err := CompileTemplate("/search/{kind}?v=2")
	require.NoError(t, err)

	got, err := tpl.Expand(map[string]string{"kind": "books"})
	require.NoError(t, err)
	assert.Equal(t, "/search/books?v=2", got)
}

func TestTemplateWithoutPlaceholders(t *testing.T) {
	tpl, err := CompileTemplate("/health")
	require.NoError(t, err)
	assert.Empty(t, tpl.Vars())

	got, err := tpl.Expand(nil)
	require.NoError(t, err)
	assert.Equal(t, "/health", got)
}

func TestTemplatePattern(t *testing.T) {
	tpl, err := CompileTemplate("/users/{id:[0-9]+}")
	require.NoError(t, err)

	got, err := tpl.Expand(map[string]string{"id": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/users/12", got)

	_, err = tpl.Expand(map[string]string{"id": "abc"})
	assert.Error(t, err)
}
