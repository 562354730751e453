package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeGitHub serves a tiny repository with two issue pages.
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("GET /repos/acme/widget/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_, _ = fmt.Fprint(w, `[{"number":2,"state":"open","created_at":"2024-01-05T00:00:00Z"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/widget/issues?page=2&state=all>; rel="next"`, srv.URL))
		_, _ = fmt.Fprint(w, `[
			{"number":1,"state":"closed","created_at":"2024-01-01T00:00:00Z","closed_at":"2024-01-02T00:00:00Z"},
			{"number":3,"state":"open","created_at":"2024-01-03T00:00:00Z","pull_request":{"url":"x"}}
		]`)
	})
	mux.HandleFunc("GET /repos/acme/widget/pulls", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[
			{"number":3,"created_at":"2024-01-03T00:00:00Z","closed_at":"2024-01-04T00:00:00Z"},
			{"number":4,"created_at":"2024-01-06T00:00:00Z"}
		]`)
	})
	mux.HandleFunc("GET /repos/acme/widget/pulls/3/reviews", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[{"id":11,"state":"APPROVED"}]`)
	})
	mux.HandleFunc("GET /repos/acme/widget/pulls/4/reviews", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("GET /repos/acme/widget/contributors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[{"login":"alice","contributions":10},{"login":"bob","contributions":2}]`)
	})
	mux.HandleFunc("GET /repos/acme/widget/commits", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[
			{"sha":"b2","commit":{"author":{"name":"Bob B","email":"bob@example.com","date":"2024-02-01T00:00:00Z"}},"author":{"login":"bob"}},
			{"sha":"a1","commit":{"author":{"name":"Alice A","email":"alice@example.com","date":"2024-01-01T00:00:00Z"}},"author":{"login":"alice"}}
		]`)
	})

	mux.HandleFunc("GET /repos/acme/widget/license", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"name":"LICENSE","path":"LICENSE","encoding":"base64",
			"content":"UGVybWlzc2lvbiBpcyBoZXJlYnkgZ3JhbnRlZCwgZnJlZSBvZiBjaGFyZ2UuCg==",
			"license":{"key":"mit","name":"MIT License","spdx_id":"MIT"}}`)
	})
	mux.HandleFunc("GET /repos/acme/widget/readme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"type":"file","name":"README.md","encoding":"base64","content":"IyBXaWRnZXQKCkEgc21hbGwgdG9vbC4K"}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubSourceFetchSnapshot(t *testing.T) {
	srv := newFakeGitHub(t)
	src, err := NewGitHubSource(context.Background(), GitHubOptions{BaseURL: srv.URL, MaxPages: 3, Token: "test-token"})
	require.NoError(t, err)

	snap, err := src.FetchSnapshot(context.Background(), "acme", "widget")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/widget", snap.URL)
	assert.False(t, snap.FetchedAt.IsZero())

	// Pull requests are filtered out of the issue listing
	require.Len(t, snap.Issues, 2)
	assert.Equal(t, 1, snap.Issues[0].Number)
	assert.Equal(t, schema.ClosedState, snap.Issues[0].State)
	assert.False(t, snap.Issues[0].ClosedAt.IsZero())
	assert.Equal(t, 2, snap.Issues[1].Number)
	assert.Equal(t, schema.OpenState, snap.Issues[1].State)

	require.Len(t, snap.PullRequests, 2)
	assert.True(t, snap.PullRequests[0].Reviewed)
	assert.False(t, snap.PullRequests[1].Reviewed)
	assert.True(t, snap.PullRequests[1].ClosedAt.IsZero())

	require.Len(t, snap.Contributors, 2)
	assert.Equal(t, "alice", snap.Contributors[0].Login)
	assert.Equal(t, 10, snap.Contributors[0].Contributions)

	require.Len(t, snap.Commits, 2)
	assert.Equal(t, "alice", snap.Commits[0].Login, "commits are earliest first")
	assert.Equal(t, "Alice A", snap.Commits[0].Author)
	assert.True(t, snap.Commits[0].Time.Before(snap.Commits[1].Time))

	assert.Equal(t, "MIT License\nPermission is hereby granted, free of charge.", snap.LicenseText)
	assert.Equal(t, "# Widget\n\nA small tool.\n", snap.Readme)
}

func TestGitHubSourceWithoutLicenseOrReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/bare/{listing}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("listing") {
		case "license", "readme":
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"message":"Not Found"}`)
		default:
			_, _ = fmt.Fprint(w, `[]`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	src, err := NewGitHubSource(context.Background(), GitHubOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	snap, err := src.FetchSnapshot(context.Background(), "acme", "bare")
	require.NoError(t, err)
	assert.Empty(t, snap.LicenseText)
	assert.Empty(t, snap.Readme)
	assert.Empty(t, snap.Issues)
}

func TestGitHubSourcePageCap(t *testing.T) {
	srv := newFakeGitHub(t)
	src, err := NewGitHubSource(context.Background(), GitHubOptions{BaseURL: srv.URL, MaxPages: 1})
	require.NoError(t, err)

	snap, err := src.FetchSnapshot(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Len(t, snap.Issues, 1, "second issue page is never requested")
}

func TestGitHubSourceErrors(t *testing.T) {
	srv := newFakeGitHub(t)
	src, err := NewGitHubSource(context.Background(), GitHubOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = src.FetchSnapshot(context.Background(), "acme", "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "acme/missing")

	_, err = NewGitHubSource(context.Background(), GitHubOptions{BaseURL: "://bad"})
	assert.Error(t, err)
}
