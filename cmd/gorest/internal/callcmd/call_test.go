package callcmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPair(t *testing.T) {
	k, v, err := pair("id = 42", "=")
	require.NoError(t, err)
	assert.Equal(t, "id", k)
	assert.Equal(t, "42", v)

	k, v, err = pair("Authorization: Bearer a=b", ":")
	require.NoError(t, err)
	assert.Equal(t, "Authorization", k)
	assert.Equal(t, "Bearer a=b", v)

	_, _, err = pair("novalue", "=")
	assert.Error(t, err)
	_, _, err = pair("=x", "=")
	assert.Error(t, err)
}

func TestRequestMetadata(t *testing.T) {
	r := &request{
		template: "/orgs/{org}/users/{id}",
		vars:     map[string]string{"org": "acme", "id": "7"},
		query:    map[string]string{"verbose": "true"},
		header:   http.Header{},
	}

	md, args, err := r.metadata("post", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, md.HTTPMethod())
	assert.Equal(t, []any{"7", "acme", "true", []byte(`{}`)}, args)
	assert.Equal(t, map[int]string{0: "id", 1: "org"}, md.PathVariables())
	assert.Equal(t, map[int]string{2: "verbose"}, md.QueryParams())
	pos, ok := md.RequestBodyIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
	assert.Equal(t, "application/json", md.Headers().Get("Content-Type"))
	assert.True(t, md.Returns().Envelope())
}

func TestCallCommand(t *testing.T) {
	type received struct {
		req  *http.Request
		body []byte
	}
	seen := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- received{req: r.Clone(r.Context()), body: body}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Trace", "t1")
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	CmdCall.SetOut(&out)
	CmdCall.SetErr(io.Discard)
	CmdCall.SetArgs([]string{
		"/users/{id}",
		"-e", srv.URL,
		"-X", "PUT",
		"--var", "id=7",
		"-q", "dry run=yes",
		"-H", "X-Tenant: acme",
		"-d", `{"name":"Ann"}`,
		"--bearer", "tok",
		"-i",
	})
	require.NoError(t, CmdCall.Execute())

	r := <-seen
	got, gotBody := r.req, r.body
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/users/7", got.URL.Path)
	assert.Equal(t, "yes", got.URL.Query().Get("dry run"))
	assert.Equal(t, "acme", got.Header.Get("X-Tenant"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Equal(t, `{"name":"Ann"}`, string(gotBody))

	assert.Contains(t, out.String(), "200 OK\n")
	assert.Contains(t, out.String(), "X-Trace: t1\n")
	assert.Contains(t, out.String(), `{"id":7}`)
}
