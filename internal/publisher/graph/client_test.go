package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modq/internal/pages"
)

var testPage = pages.Page{
	Key: "page1", Name: "Main", PageID: "111", AccessToken: "tok1",
	Prefix: "Q:", Suffix: "#ask",
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "Q:\n\nHi\n\n#ask", FormatMessage(testPage, "Hi"))

	bare := testPage
	bare.Prefix, bare.Suffix = "", ""
	assert.Equal(t, "Hi", FormatMessage(bare, "Hi"))

	prefixOnly := testPage
	prefixOnly.Suffix = ""
	assert.Equal(t, "Q:\n\nHi", FormatMessage(prefixOnly, "Hi"))

	suffixOnly := testPage
	suffixOnly.Prefix = ""
	assert.Equal(t, "Hi\n\n#ask", FormatMessage(suffixOnly, "Hi"))
}

func TestPublishSuccess(t *testing.T) {
	var gotPath, gotMessage, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPath = r.URL.Path
		gotMessage = r.PostForm.Get("message")
		gotToken = r.PostForm.Get("access_token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"111_42"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	id, err := c.Publish(context.Background(), testPage, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "111_42", id)
	assert.Equal(t, "/111/feed", gotPath)
	assert.Equal(t, "Q:\n\nHi\n\n#ask", gotMessage)
	assert.Equal(t, "tok1", gotToken)
}

func TestPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Publish(context.Background(), testPage, "Hi")
	require.Error(t, err)
	assert.Equal(t, "Invalid OAuth access token.", err.Error())
}

func TestPublishUnparsableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Publish(context.Background(), testPage, "Hi")
	require.Error(t, err)
	assert.Equal(t, "Unknown error", err.Error())
}

func TestPublish200WithoutIDIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Publish(context.Background(), testPage, "Hi")
	require.Error(t, err)
	assert.Equal(t, "Unknown error", err.Error())
}

func TestPublishBreakerOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{
		BaseURL: srv.URL,
		HTTP:    srv.Client(),
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "test",
			ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 1 },
		}),
	}

	_, err := c.Publish(context.Background(), testPage, "Hi")
	require.Error(t, err)

	_, err = c.Publish(context.Background(), testPage, "Hi")
	require.Error(t, err)
	assert.Equal(t, "posting API unavailable", err.Error())
}

func TestPublishTimeoutIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: &http.Client{Timeout: 20 * time.Millisecond}}
	_, err := c.Publish(context.Background(), testPage, "Hi")
	assert.Error(t, err)
}
