// Package fetch is the HTTP content fetcher for the catalog REST API:
//
//	GET    /catalog/{id}?children=true&parents=true
//	POST   /catalog/{parentId}?layout={name}
//	DELETE /catalog/{id}
//
// Every response body carries {"success": bool, "error": string}; success=false is
// returned as a *RemoteError even with a 200 status.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalog-cli/internal/model"
)

const DefaultTimeout = 10 * time.Second

// maxBody caps how much of an error body is kept in a StatusError.
const maxBody = 512

type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), e.Body)
}

// RemoteError is a well-formed response with success=false.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "server reported failure"
	}
	return "server: " + e.Message
}

func (c *Client) endpoint(id int64, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/catalog/" + strconv.FormatInt(id, 10)
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("http", "method", method, "url", target, "status", resp.StatusCode, "took", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return &StatusError{Method: method, URL: target, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

// Fetch loads node id together with its children, their layouts and its ancestors.
func (c *Client) Fetch(ctx context.Context, id int64) (*model.Payload, error) {
	q := url.Values{}
	q.Set("children", "true")
	q.Set("parents", "true")
	var p model.Payload
	if err := c.do(ctx, http.MethodGet, c.endpoint(id, q), nil, &p); err != nil {
		return nil, err
	}
	if !p.Success {
		return nil, &RemoteError{Message: p.Error}
	}
	return &p, nil
}

// Save persists fields under parentID. fields should already carry "type".
func (c *Client) Save(ctx context.Context, parentID int64, layoutName string, fields map[string]any) (*model.SaveResult, error) {
	q := url.Values{}
	if layoutName != "" {
		q.Set("layout", layoutName)
	}
	var res model.SaveResult
	if err := c.do(ctx, http.MethodPost, c.endpoint(parentID, q), fields, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &RemoteError{Message: res.Error}
	}
	return &res, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	var res model.DeleteResult
	if err := c.do(ctx, http.MethodDelete, c.endpoint(id, nil), nil, &res); err != nil {
		return err
	}
	if !res.Success {
		return &RemoteError{Message: res.Error}
	}
	return nil
}
