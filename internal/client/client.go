package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/store"
	"github.com/aerialtv/aerial/internal/validation"
)

// Client is an HTTP client for the aerial admin API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FieldInfo describes one queryable field as reported by the API.
type FieldInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Operators  []string `json:"operators"`
	EnumValues []string `json:"enumValues,omitempty"`
}

// Fields retrieves the rule-builder field metadata for an entity kind.
func (c *Client) Fields(ctx context.Context, kind registry.EntityKind) ([]FieldInfo, error) {
	var result struct {
		Fields []FieldInfo `json:"fields"`
	}
	if err := c.do(ctx, "GET", "/v1/fields/"+string(kind), nil, &result); err != nil {
		return nil, err
	}
	return result.Fields, nil
}

// PreviewResult is the preview response for either entity kind.
type PreviewResult struct {
	Count       int               `json:"count"`
	ETag        string            `json:"etag"`
	Fingerprint string            `json:"fingerprint"`
	Items       []json.RawMessage `json:"items"`
}

// Preview evaluates a rule string against the server's current pool.
func (c *Client) Preview(ctx context.Context, kind registry.EntityKind, rule string, limit int) (*PreviewResult, error) {
	path := "/v1/channels/preview"
	if kind == registry.KindMedia {
		path = "/v1/library/preview"
	}
	req := map[string]any{"rule": rule, "limit": limit}
	var result PreviewResult
	if err := c.do(ctx, "POST", path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateRule lints a rule string against the field registry.
func (c *Client) ValidateRule(ctx context.Context, kind registry.EntityKind, rule string) (*validation.Report, error) {
	req := map[string]any{"kind": kind, "rule": rule}
	var report validation.Report
	if err := c.do(ctx, "POST", "/v1/rules/validate", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListCollections retrieves all collections.
func (c *Client) ListCollections(ctx context.Context) ([]store.Collection, error) {
	var result struct {
		Collections []store.Collection `json:"collections"`
	}
	if err := c.do(ctx, "GET", "/v1/collections", nil, &result); err != nil {
		return nil, err
	}
	return result.Collections, nil
}

// GetCollection retrieves one collection by id.
func (c *Client) GetCollection(ctx context.Context, id string) (*store.Collection, error) {
	var col store.Collection
	if err := c.do(ctx, "GET", "/v1/collections/"+id, nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// CreateCollection creates a collection and returns the stored form.
func (c *Client) CreateCollection(ctx context.Context, col store.Collection) (*store.Collection, error) {
	var out store.Collection
	if err := c.do(ctx, "POST", "/v1/collections", col, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCollection replaces a collection's mutable fields.
func (c *Client) UpdateCollection(ctx context.Context, col store.Collection) (*store.Collection, error) {
	var out store.Collection
	if err := c.do(ctx, "PUT", "/v1/collections/"+col.ID, col, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection removes a collection.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/v1/collections/"+id, nil, nil)
}

// MaterializeResult reports one server-side materialization run.
type MaterializeResult struct {
	CollectionID string   `json:"collectionId"`
	Count        int      `json:"count"`
	MemberIDs    []string `json:"memberIds"`
	Fingerprint  string   `json:"fingerprint"`
	ETag         string   `json:"etag"`
}

// Materialize runs a collection's rule server-side and persists the members.
func (c *Client) Materialize(ctx context.Context, id string) (*MaterializeResult, error) {
	var result MaterializeResult
	if err := c.do(ctx, "POST", "/v1/collections/"+id+"/materialize", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Members retrieves a collection's materialized member ids.
func (c *Client) Members(ctx context.Context, id string) ([]string, error) {
	var result struct {
		Members []string `json:"members"`
	}
	if err := c.do(ctx, "GET", "/v1/collections/"+id+"/members", nil, &result); err != nil {
		return nil, err
	}
	return result.Members, nil
}
