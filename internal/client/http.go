package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ProductHTTPClient talks to the product service's REST surface.
type ProductHTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewProductHTTPClient(baseURL string) *ProductHTTPClient {
	return &ProductHTTPClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *ProductHTTPClient) GetProduct(ctx context.Context, productID int64) (*ProductSnapshot, error) {
	var snapshot ProductSnapshot
	url := fmt.Sprintf("%s/product/%d", c.baseURL, productID)
	if err := c.getJSON(ctx, url, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *ProductHTTPClient) CheckStock(ctx context.Context, productID int64, qty int) (bool, error) {
	var result struct {
		Available bool `json:"available"`
	}
	url := fmt.Sprintf("%s/product/stock/available/%d/%d", c.baseURL, productID, qty)
	if err := c.getJSON(ctx, url, &result); err != nil {
		return false, err
	}
	return result.Available, nil
}

func (c *ProductHTTPClient) AddStock(ctx context.Context, productID int64, qty int) (int, error) {
	payload, err := json.Marshal(map[string]any{"product_id": productID, "quantity": qty})
	if err != nil {
		return 0, fmt.Errorf("marshal add-stock request: %w", err)
	}

	url := fmt.Sprintf("%s/product/stock/add", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build add-stock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: product service: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read add-stock response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: product service returned %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var result struct {
		StockQty int `json:"stock_qty"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("%w: decode add-stock response: %v", ErrUnavailable, err)
	}
	return result.StockQty, nil
}

func (c *ProductHTTPClient) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: product service: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: product service returned %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// CustomerHTTPClient resolves customers from the customer service.
type CustomerHTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewCustomerHTTPClient(baseURL string) *CustomerHTTPClient {
	return &CustomerHTTPClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *CustomerHTTPClient) GetCustomer(ctx context.Context, customerID int64) (*CustomerSnapshot, error) {
	url := fmt.Sprintf("%s/customer/%d", c.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: customer service: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: customer service returned %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var snapshot CustomerSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return &snapshot, nil
}

// IdentityHTTPClient resolves the authenticated username to an operator
// record on the user service.
type IdentityHTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewIdentityHTTPClient(baseURL string) *IdentityHTTPClient {
	return &IdentityHTTPClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *IdentityHTTPClient) CurrentOperator(ctx context.Context, username string) (*OperatorSnapshot, error) {
	url := fmt.Sprintf("%s/user/username/%s", c.baseURL, username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: user service: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user service returned %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var snapshot OperatorSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return &snapshot, nil
}
