package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tuanhandsomes/web-upload-image/models"
)

const DefaultRemoteTimeout = 10 * time.Second

// Remote talks to a JSON REST API exposing one resource per collection.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a client for the API at baseURL. A zero timeout uses
// DefaultRemoteTimeout.
func NewRemote(baseURL string, timeout time.Duration) (*Remote, error) {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote store URL %q", baseURL)
	}

	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (r *Remote) Accounts() Collection[models.Account] {
	return &remoteCollection[models.Account]{remote: r, name: CollectionAccounts}
}

func (r *Remote) Projects() Collection[models.Project] {
	return &remoteCollection[models.Project]{remote: r, name: CollectionProjects}
}

func (r *Remote) Photos() Collection[models.Photo] {
	return &remoteCollection[models.Photo]{remote: r, name: CollectionPhotos}
}

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// do sends one request and decodes a JSON answer into out (when non-nil).
func (r *Remote) do(ctx context.Context, method, endpoint string, body, out any) error {
	start := time.Now()
	defer func() {
		log.Printf("RemoteStore: %s %s duration=%v", method, endpoint, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}

type remoteCollection[T models.Record] struct {
	remote *Remote
	name   string
}

func (c *remoteCollection[T]) itemPath(id string) string {
	return "/" + c.name + "/" + url.PathEscape(id)
}

func (c *remoteCollection[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	endpoint := "/" + c.name
	if len(filter) > 0 {
		fields := make([]string, 0, len(filter))
		for field := range filter {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		query := url.Values{}
		for _, field := range fields {
			query.Set(field, filter[field])
		}
		endpoint += "?" + query.Encode()
	}

	records := []T{}
	if err := c.remote.do(ctx, http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	return records, nil
}

func (c *remoteCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var record T
	if err := c.remote.do(ctx, http.MethodGet, c.itemPath(id), nil, &record); err != nil {
		return record, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}
	return record, nil
}

func (c *remoteCollection[T]) Create(ctx context.Context, record T) (T, error) {
	var stored T
	if err := c.remote.do(ctx, http.MethodPost, "/"+c.name, record, &stored); err != nil {
		return record, fmt.Errorf("failed to create %s: %w", c.name, err)
	}
	if stored.RecordID() == "" {
		return record, nil
	}
	return stored, nil
}

func (c *remoteCollection[T]) Replace(ctx context.Context, id string, record T) (T, error) {
	var stored T
	if err := c.remote.do(ctx, http.MethodPut, c.itemPath(id), record, &stored); err != nil {
		return record, fmt.Errorf("failed to replace %s/%s: %w", c.name, id, err)
	}
	if stored.RecordID() == "" {
		return record, nil
	}
	return stored, nil
}

func (c *remoteCollection[T]) Delete(ctx context.Context, id string) error {
	if err := c.remote.do(ctx, http.MethodDelete, c.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}
	return nil
}
