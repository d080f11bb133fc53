package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// Source is a remote upload addressed by URL.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// Name is the last path segment of the URL, so parser selection by extension
// works for https://host/exports/students.xlsx?token=... too.
func (s *Source) Name() string {
	u, err := url.Parse(s.url)
	if err != nil || u.Path == "" {
		return s.url
	}
	return path.Base(u.Path)
}

// Open downloads the body. Responses outside 2xx are errors.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, http.StatusText(resp.StatusCode))
	}
	return resp.Body, nil
}
