// Package graph posts submission messages to the Graph-style feed endpoint of
// a target page. One attempt per publish; failures are recorded on the
// submission and retried by the admin, never by us.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"modq/internal/pages"
)

const unknownError = "Unknown error"

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker
}

type feedResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FormatMessage builds the final post text: prefix, message and suffix joined
// by blank lines, with empty segments omitted entirely.
func FormatMessage(p pages.Page, message string) string {
	parts := make([]string, 0, 3)
	if p.Prefix != "" {
		parts = append(parts, p.Prefix)
	}
	parts = append(parts, message)
	if p.Suffix != "" {
		parts = append(parts, p.Suffix)
	}
	return strings.Join(parts, "\n\n")
}

// Publish delivers one formatted message to the page's feed endpoint and
// returns the created post id. Any failure comes back as an error whose text
// is suitable for recording on the submission.
func (c *Client) Publish(ctx context.Context, p pages.Page, message string) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	call := func() (any, error) {
		return c.post(ctx, p, message)
	}
	if c.Breaker == nil {
		id, err := c.post(ctx, p, message)
		return id, err
	}
	res, err := c.Breaker.Execute(call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.New("posting API unavailable")
		}
		return "", err
	}
	return res.(string), nil
}

func (c *Client) post(ctx context.Context, p pages.Page, message string) (string, error) {
	form := url.Values{}
	form.Set("message", FormatMessage(p, message))
	form.Set("access_token", p.AccessToken)

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	endpoint := baseURL + "/" + p.PageID + "/feed"
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var out feedResponse
	_ = json.Unmarshal(b, &out)

	if resp.StatusCode == http.StatusOK && out.ID != "" {
		return out.ID, nil
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", errors.New(out.Error.Message)
	}
	return "", errors.New(unknownError)
}
