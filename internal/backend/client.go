// Package backend is the REST client for the finance backend that owns
// records, lookups and file storage.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jhipl/backoffice/internal/platform/httpx"
)

// IdempotencyHeader deduplicates retried submissions on the backend.
const IdempotencyHeader = "Idempotency-Key"

// Client wraps interactions with the backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a new client. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks if the backend is available.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil, nil)
}

// CostCenters lists cost centers.
func (c *Client) CostCenters(ctx context.Context) ([]CostCenter, error) {
	var out []CostCenter
	if err := c.getJSON(ctx, "/cost-centers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vendors lists vendors.
func (c *Client) Vendors(ctx context.Context) ([]Vendor, error) {
	var out []Vendor
	if err := c.getJSON(ctx, "/vendors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GLCodes lists general-ledger codes.
func (c *Client) GLCodes(ctx context.Context) ([]GLCode, error) {
	var out []GLCode
	if err := c.getJSON(ctx, "/gl-codes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TaxRates lists tax rates.
func (c *Client) TaxRates(ctx context.Context) ([]TaxRate, error) {
	var out []TaxRate
	if err := c.getJSON(ctx, "/tax-rates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PurchaseOrders lists purchase orders available for selection.
func (c *Client) PurchaseOrders(ctx context.Context) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	if err := c.getJSON(ctx, "/purchase-orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the records of resource.
func (c *Client) List(ctx context.Context, resource Resource) ([]Record, error) {
	var out []Record
	if err := c.getJSON(ctx, "/"+string(resource), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a new record as multipart form data.
func (c *Client) Create(ctx context.Context, resource Resource, fields map[string]string, files []Attachment, idempotencyKey string) (Record, error) {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return Record{}, err
	}
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[IdempotencyHeader] = idempotencyKey
	}
	var rec Record
	if err := c.do(ctx, http.MethodPost, "/"+string(resource), body, contentType, headers, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update replaces the fields of record id.
func (c *Client) Update(ctx context.Context, resource Resource, id string, fields map[string]string, files []Attachment) (Record, error) {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	path := "/" + string(resource) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, body, contentType, nil, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, headers map[string]string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w: %v", method, path, httpx.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return statusError(method, path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("backend: decode %s: %w", path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(detail))
	var problem httpx.ProblemDetail
	if json.Unmarshal(detail, &problem) == nil && problem.Detail != "" {
		msg = problem.Detail
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("backend: %s %s: %w", method, path, httpx.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", httpx.ErrValidation, msg)
	default:
		return fmt.Errorf("backend: %s %s returned status %d: %w", method, path, resp.StatusCode, httpx.ErrUpstream)
	}
}

func encodeMultipart(fields map[string]string, files []Attachment) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
