// Package rest implements the account store on top of a json-server style
// REST resource:
//
//	GET  {base}/accounts        list
//	POST {base}/accounts        create
//	PUT  {base}/accounts/{id}   replace
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"scadenze/internal/core"
	"scadenze/internal/store"
)

var _ store.AccountStore = (*Client)(nil)

// Client talks to the accounts resource.
type Client struct {
	baseURL  string
	http     *http.Client
	inflight singleflight.Group
}

// New returns a client for baseURL (e.g. http://localhost:3000).
// A nil httpClient gets a pooled client with the given timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid store url scheme %q: must be http or https", u.Scheme)
	}
	if httpClient == nil {
		httpClient = newHTTPClientWithPooling(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    httpClient,
	}, nil
}

func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// StatusError is a non-2xx answer from the store.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// FetchAll lists every account. Concurrent calls share one request.
func (c *Client) FetchAll(ctx context.Context) ([]core.AccountRecord, error) {
	v, err, shared := c.inflight.Do("accounts", func() (any, error) {
		var out []core.AccountRecord
		if err := c.do(ctx, http.MethodGet, c.accountsURL(""), nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	accounts := v.([]core.AccountRecord)
	if shared {
		copied := make([]core.AccountRecord, len(accounts))
		for i := range accounts {
			copied[i] = accounts[i].Clone()
		}
		return copied, nil
	}
	return accounts, nil
}

func (c *Client) Create(ctx context.Context, account core.AccountRecord) (core.AccountRecord, error) {
	var out core.AccountRecord
	if err := c.do(ctx, http.MethodPost, c.accountsURL(""), account, &out); err != nil {
		return core.AccountRecord{}, err
	}
	return out, nil
}

func (c *Client) Replace(ctx context.Context, id string, account core.AccountRecord) (core.AccountRecord, error) {
	if id == "" {
		return core.AccountRecord{}, core.ErrEmptyAccountID
	}
	account.ID = id
	var out core.AccountRecord
	err := c.do(ctx, http.MethodPut, c.accountsURL(id), account, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
	}
	if err != nil {
		return core.AccountRecord{}, err
	}
	return out, nil
}

func (c *Client) accountsURL(id string) string {
	if id == "" {
		return c.baseURL + "/accounts"
	}
	return c.baseURL + "/accounts/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Store request completed",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}
