package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const baseURL = "https://api.cloudflare.com/client/v4"

// Client is a minimal Cloudflare API client for DNS record management.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// Record represents a Cloudflare DNS record.
type Record struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl,omitempty"`
	Proxied bool   `json:"proxied"`
	Comment string `json:"comment,omitempty"`
}

// OwnerComment marks records created for a cluster so that destroy only
// removes its own records.
func OwnerComment(clusterName string) string {
	return "managed-by=kubestrap cluster=" + clusterName
}

type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type zoneResult struct {
	ID string `json:"id"`
}

type resultInfo struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Success    bool       `json:"success"`
	Errors     []apiError `json:"errors"`
	Result     []Record   `json:"result"`
	ResultInfo resultInfo `json:"result_info"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Cloudflare API client.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		apiToken:   apiToken,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetZoneID returns the zone ID for the given domain.
func (c *Client) GetZoneID(ctx context.Context, domain string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/zones?name="+url.QueryEscape(domain), nil)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("get zone ID: %w", err)
	}

	var zones []zoneResult
	if err := json.Unmarshal(resp.Result, &zones); err != nil {
		return "", fmt.Errorf("parse zones: %w", err)
	}

	if len(zones) == 0 {
		return "", fmt.Errorf("no zone found for domain %s", domain)
	}

	return zones[0].ID, nil
}

// ListDNSRecords returns all DNS records in the zone.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string) ([]Record, error) {
	var all []Record
	page := 1

	for {
		req, err := c.newRequest(ctx, http.MethodGet,
			fmt.Sprintf("/zones/%s/dns_records?per_page=100&page=%d", zoneID, page), nil)
		if err != nil {
			return nil, err
		}

		var resp listResponse
		if err := c.do(req, &resp); err != nil {
			return nil, fmt.Errorf("list DNS records page %d: %w", page, err)
		}

		all = append(all, resp.Result...)

		if page >= resp.ResultInfo.TotalPages {
			break
		}
		page++
	}

	return all, nil
}

// DeleteDNSRecord deletes a DNS record by ID.
func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID), nil)
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("delete DNS record %s: %w", recordID, err)
	}

	return nil
}

// UpsertARecord points name at ip, creating the record or updating the
// existing A record of that name. The record is DNS only, never proxied,
// because the Kubernetes API speaks TLS with its own certificates.
func (c *Client) UpsertARecord(ctx context.Context, zoneID, name, ip, clusterName string) (*Record, error) {
	existing, err := c.findRecord(ctx, zoneID, "A", name)
	if err != nil {
		return nil, err
	}

	record := Record{
		Type:    "A",
		Name:    name,
		Content: ip,
		TTL:     60,
		Comment: OwnerComment(clusterName),
	}
	if existing != nil && existing.Content == ip && existing.Comment == record.Comment {
		return existing, nil
	}

	method, path := http.MethodPost, fmt.Sprintf("/zones/%s/dns_records", zoneID)
	if existing != nil {
		method, path = http.MethodPut, fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, existing.ID)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("upsert A record %s: %w", name, err)
	}
	var saved Record
	if err := json.Unmarshal(resp.Result, &saved); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &saved, nil
}

func (c *Client) findRecord(ctx context.Context, zoneID, recordType, name string) (*Record, error) {
	query := url.Values{"type": {recordType}, "name": {name}}
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/zones/%s/dns_records?%s", zoneID, query.Encode()), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("find %s record %s: %w", recordType, name, err)
	}
	for i := range resp.Result {
		if resp.Result[i].Type == recordType && resp.Result[i].Name == name {
			return &resp.Result[i], nil
		}
	}
	return nil, nil
}

// CleanupClusterRecords deletes every record carrying the cluster's owner
// comment and returns the number of records deleted.
func (c *Client) CleanupClusterRecords(ctx context.Context, zoneID, clusterName string) (int, error) {
	records, err := c.ListDNSRecords(ctx, zoneID)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	owner := OwnerComment(clusterName)
	deleted := 0
	for _, r := range records {
		if strings.TrimSpace(r.Comment) != owner {
			continue
		}
		if err := c.DeleteDNSRecord(ctx, zoneID, r.ID); err != nil {
			return deleted, fmt.Errorf("delete record %s (%s %s): %w", r.ID, r.Type, r.Name, err)
		}
		deleted++
	}
	return deleted, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w (status %d)", err, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
