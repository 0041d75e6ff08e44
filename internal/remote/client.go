package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkaraca/dukkan/internal/engine"
	"github.com/mkaraca/dukkan/internal/logging"
)

// TokenSource supplies the session token attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is the shared HTTP transport for all collections. Transport-level
// failures are wrapped with engine.ErrNetworkUnavailable and retried with
// bounded exponential backoff before being reported.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  TokenSource
	log     logging.Logger
}

// NewClient builds a client for the document store at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewClient(baseURL string, tokens TokenSource, log logging.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		tokens:  tokens,
		log:     log,
	}
}

// Ping probes the server's health endpoint. Used by the connectivity watcher.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Login exchanges tenant credentials for a session token.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	body := map[string]string{"login": login, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", body, &out, false); err != nil {
		return "", err
	}
	return out.Token, nil
}

// do runs one JSON request with retry. body and out may be nil. When authed
// is set, the session token is attached and its absence fails the call
// before any network I/O.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var token string
	if authed {
		var err error
		if token, err = c.tokens.Token(ctx); err != nil {
			return err
		}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if authed {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", engine.ErrNetworkUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("remote returned %d", resp.StatusCode))
		default:
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("remote returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	})
}

// Collection is the engine.RemoteStore for one entity kind.
type Collection[P engine.Payload] struct {
	client *Client
	kind   engine.Kind[P]
}

// NewCollection binds a collection to the kind's remote path.
func NewCollection[P engine.Payload](client *Client, kind engine.Kind[P]) *Collection[P] {
	return &Collection[P]{client: client, kind: kind}
}

// Put is a full-document upsert, idempotent by id.
func (c *Collection[P]) Put(ctx context.Context, rec engine.Record[P]) error {
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/v1/%s/%s", c.kind.Name, url.PathEscape(rec.ID))
	if err := c.client.do(ctx, http.MethodPut, path, doc, nil, true); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrRemoteWrite, err)
	}
	return nil
}

// Delete marks the document inactive remotely. Deleting an absent document
// succeeds, keeping tombstone pushes idempotent.
func (c *Collection[P]) Delete(ctx context.Context, tenantID, id string) error {
	path := fmt.Sprintf("/api/v1/%s/%s?businessId=%s", c.kind.Name, url.PathEscape(id), url.QueryEscape(tenantID))
	if err := c.client.do(ctx, http.MethodDelete, path, nil, nil, true); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrRemoteWrite, err)
	}
	return nil
}

// ListByTenant returns the tenant's active documents.
func (c *Collection[P]) ListByTenant(ctx context.Context, tenantID string) ([]engine.Record[P], error) {
	path := fmt.Sprintf("/api/v1/%s?businessId=%s", c.kind.Name, url.QueryEscape(tenantID))
	var docs []Document
	if err := c.client.do(ctx, http.MethodGet, path, nil, &docs, true); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrRemoteRead, err)
	}

	records := make([]engine.Record[P], 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument[P](doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", engine.ErrRemoteRead, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
