package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client calls the metadata endpoints of a relay.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{base: strings.TrimSuffix(base, "/"), token: token, http: http.DefaultClient}
}

// Get returns {name, ownerId} for a document.
func (c *Client) Get(ctx context.Context, id string) (DocumentMeta, error) {
	var m DocumentMeta
	err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, &m)
	return m, err
}

func (c *Client) Rename(ctx context.Context, id, name string) (DocumentMeta, error) {
	var m DocumentMeta
	err := c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(id), nameRequest{Name: name}, &m)
	return m, err
}

func (c *Client) Create(ctx context.Context, name string) (DocumentMeta, error) {
	var m DocumentMeta
	err := c.do(ctx, http.MethodPost, "/documents", nameRequest{Name: name}, &m)
	return m, err
}

// List returns the caller's documents whose names contain query.
func (c *Client) List(ctx context.Context, query string) ([]DocumentMeta, error) {
	path := "/documents"
	if query != "" {
		path += "?" + url.Values{"q": {query}}.Encode()
	}
	var docs []DocumentMeta
	err := c.do(ctx, http.MethodGet, path, nil, &docs)
	return docs, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		if out == nil {
			return nil
		}
		return json.NewDecoder(res.Body).Decode(out)
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest:
		return ErrInvalidName
	}
	return fmt.Errorf("%s %s: unexpected status %s", method, path, res.Status)
}
