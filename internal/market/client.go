package market

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const requestTimeout = 30 * time.Second

// Client talks to the remote commerce API. Every request carries the API key;
// when a secret is configured each request is additionally signed with
// HMAC-SHA256 over path+method+body+timestamp (no delimiters, exact byte
// concatenation — the gateway verifies the same string).
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

func NewClient(apiKey, apiSecret, baseURL string) *Client {
	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: requestTimeout},
		now:       time.Now,
	}
}

func (c *Client) sign(path, method, body, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(path + method + body + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// request performs one API call and decodes the response into out (skipped
// when out is nil). All failures come back as *APIError.
func (c *Client) request(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "encode request body", Err: err}
		}
		payload = b
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &APIError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	if c.apiSecret != "" {
		ts := strconv.FormatInt(c.now().UnixMilli(), 10)
		req.Header.Set("X-Api-Signature", c.sign(path, method, string(payload), ts))
		req.Header.Set("X-Api-Timestamp", ts)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			apiErr.Err = ErrNotFound
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{Status: resp.StatusCode, Message: "malformed response body", Err: err}
		}
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context) (Balance, error) {
	var b Balance
	if err := c.request(ctx, http.MethodGet, "/user/balance", nil, nil, &b); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// SearchProducts queries the catalog by name and/or product id. Zero values
// leave the corresponding filter off.
func (c *Client) SearchProducts(ctx context.Context, name string, productID int64, limit int) ([]Product, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if name != "" {
		params.Set("name", name)
	}
	if productID != 0 {
		params.Set("productId", strconv.FormatInt(productID, 10))
	}

	var resp struct {
		Results []Product `json:"results"`
	}
	if err := c.request(ctx, http.MethodGet, "/products", nil, params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) GetProduct(ctx context.Context, productID int64) (Product, error) {
	var p Product
	path := "/products/" + strconv.FormatInt(productID, 10)
	if err := c.request(ctx, http.MethodGet, path, nil, nil, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Client) CreateOrder(ctx context.Context, productID int64, quantity int, price decimal.Decimal, name string) (OrderCreated, error) {
	type orderProduct struct {
		ProductID int64           `json:"productId"`
		Qty       int             `json:"qty"`
		Price     decimal.Decimal `json:"price"`
		Name      string          `json:"name"`
	}
	body := struct {
		Products []orderProduct `json:"products"`
	}{
		Products: []orderProduct{{ProductID: productID, Qty: quantity, Price: price, Name: name}},
	}

	var created OrderCreated
	if err := c.request(ctx, http.MethodPost, "/order", body, nil, &created); err != nil {
		return OrderCreated{}, err
	}
	if created.OrderID == "" {
		return OrderCreated{}, &APIError{Status: http.StatusOK, Message: "order response missing orderId"}
	}
	return created, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	if err := c.request(ctx, http.MethodGet, "/order/"+orderID, nil, nil, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// GetOrderKeys returns the delivered keys for an order. An order with no
// assigned keys yet yields an empty slice, not an error.
func (c *Client) GetOrderKeys(ctx context.Context, orderID string) ([]OrderKey, error) {
	var resp struct {
		Keys []OrderKey `json:"keys"`
	}
	if err := c.request(ctx, http.MethodGet, "/order/"+orderID+"/keys", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (c *Client) ListOrders(ctx context.Context, limit int) ([]OrderSummary, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Results []OrderSummary `json:"results"`
	}
	if err := c.request(ctx, http.MethodGet, "/order", nil, params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
