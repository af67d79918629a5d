// Package woocommerce is a typed client for the store's REST API (wc/v3).
// Agents translate command params into these calls; nothing else in the
// system talks to the commerce backend.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	apiBasePath          = "/wp-json/wc/v3"
	maxResponseSizeBytes = 4 << 20
)

type Config struct {
	StoreURL       string        `envconfig:"STORE_URL" split_words:"true" required:"true"`
	ConsumerKey    string        `envconfig:"CONSUMER_KEY" split_words:"true" required:"true"`
	ConsumerSecret string        `envconfig:"CONSUMER_SECRET" split_words:"true" required:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// APIError is a non-2xx response from the backend. It is a domain-level
// condition, distinct from the transport failures returned as plain errors.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	storeURL := strings.TrimRight(strings.TrimSpace(cfg.StoreURL), "/")
	if storeURL == "" {
		return nil, errors.New("store url is required")
	}
	if _, err := url.ParseRequestURI(storeURL); err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}

	key := strings.TrimSpace(cfg.ConsumerKey)
	secret := strings.TrimSpace(cfg.ConsumerSecret)
	if key == "" || secret == "" {
		return nil, errors.New("consumer key and secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:        storeURL + apiBasePath,
		consumerKey:    key,
		consumerSecret: secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// WithHTTPClient swaps the underlying http client. Used by tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price,omitempty"`
	StockStatus  string `json:"stock_status"`
	Description  string `json:"description,omitempty"`
}

type ProductInput struct {
	Name         string `json:"name,omitempty"`
	RegularPrice string `json:"regular_price,omitempty"`
	Description  string `json:"description,omitempty"`
	StockStatus  string `json:"stock_status,omitempty"`
}

type SalesReport struct {
	TotalSales  string `json:"total_sales"`
	TotalOrders int    `json:"total_orders"`
	TotalItems  int    `json:"total_items"`
}

type Coupon struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	DiscountType string `json:"discount_type"`
	Amount       string `json:"amount"`
}

type CouponInput struct {
	Code         string `json:"code"`
	DiscountType string `json:"discount_type"`
	Amount       string `json:"amount"`
}

type Order struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	Total      string `json:"total"`
	CustomerID int64  `json:"customer_id"`
}

type Refund struct {
	ID     int64  `json:"id"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type ShippingZone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]Product, error) {
	var out []Product
	err := c.do(ctx, http.MethodGet, "/products", pageQuery(page, perPage), nil, "", &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput, idempotencyKey string) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPost, "/products", nil, in, idempotencyKey, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, productID int64, in ProductInput) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(productID, 10), nil, in, "", &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, productID int64) (Product, error) {
	var out Product
	query := url.Values{"force": []string{"true"}}
	err := c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(productID, 10), query, nil, "", &out)
	return out, err
}

func (c *Client) GetSalesReport(ctx context.Context, period string) ([]SalesReport, error) {
	var out []SalesReport
	query := url.Values{"period": []string{period}}
	err := c.do(ctx, http.MethodGet, "/reports/sales", query, nil, "", &out)
	return out, err
}

func (c *Client) ListCoupons(ctx context.Context, page, perPage int) ([]Coupon, error) {
	var out []Coupon
	err := c.do(ctx, http.MethodGet, "/coupons", pageQuery(page, perPage), nil, "", &out)
	return out, err
}

func (c *Client) CreateCoupon(ctx context.Context, in CouponInput, idempotencyKey string) (Coupon, error) {
	var out Coupon
	err := c.do(ctx, http.MethodPost, "/coupons", nil, in, idempotencyKey, &out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	var out Order
	err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(orderID, 10), nil, nil, "", &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status, note string) (Order, error) {
	var out Order
	body := map[string]string{"status": status}
	if strings.TrimSpace(note) != "" {
		body["customer_note"] = note
	}
	err := c.do(ctx, http.MethodPut, "/orders/"+strconv.FormatInt(orderID, 10), nil, body, "", &out)
	return out, err
}

func (c *Client) CreateRefund(ctx context.Context, orderID int64, amount, reason, idempotencyKey string) (Refund, error) {
	var out Refund
	body := map[string]string{"amount": amount}
	if strings.TrimSpace(reason) != "" {
		body["reason"] = reason
	}
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/refunds"
	err := c.do(ctx, http.MethodPost, path, nil, body, idempotencyKey, &out)
	return out, err
}

func (c *Client) ListCustomerOrders(ctx context.Context, customerID int64, page, perPage int) ([]Order, error) {
	var out []Order
	query := pageQuery(page, perPage)
	query.Set("customer", strconv.FormatInt(customerID, 10))
	err := c.do(ctx, http.MethodGet, "/orders", query, nil, "", &out)
	return out, err
}

func (c *Client) CreateShippingZone(ctx context.Context, name, idempotencyKey string) (ShippingZone, error) {
	var out ShippingZone
	body := map[string]string{"name": name}
	err := c.do(ctx, http.MethodPost, "/shipping/zones", nil, body, idempotencyKey, &out)
	return out, err
}

func (c *Client) ListShippingZones(ctx context.Context) ([]ShippingZone, error) {
	var out []ShippingZone
	err := c.do(ctx, http.MethodGet, "/shipping/zones", nil, nil, "", &out)
	return out, err
}

func pageQuery(page, perPage int) url.Values {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	return url.Values{
		"page":     []string{strconv.Itoa(page)},
		"per_page": []string{strconv.Itoa(perPage)},
	}
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body any,
	idempotencyKey string,
	out any,
) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.consumerKey)
	query.Set("consumer_secret", c.consumerSecret)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(idempotencyKey) != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr := json.Unmarshal(raw, apiErr); decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
