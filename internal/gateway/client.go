// Package gateway is the REST boundary of the sync engine: it lists orders
// per scope and mutates order status against the marketplace API, mapping
// every failure to the NetworkError/APIError/ConflictError taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
	}
}

// envelope is the API's response convention. A success:false body on a 2xx
// is still a failure.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

func (c *Client) FetchByBusiness(ctx context.Context, businessID string) ([]order.Order, error) {
	return c.fetchList(ctx, fmt.Sprintf("%s/api/orders/business/%s", c.BaseURL, businessID))
}

func (c *Client) FetchByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return c.fetchList(ctx, fmt.Sprintf("%s/api/orders/user/%s", c.BaseURL, userID))
}

func (c *Client) fetchList(ctx context.Context, url string) ([]order.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out []order.Order
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "malformed order list: " + err.Error()}
	}
	return out, nil
}

func (c *Client) MutateStatus(ctx context.Context, orderID string, st status.Status, note string) (*order.Order, error) {
	body, _ := json.Marshal(order.UpdateStatusRequest{Status: string(st), Note: note})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/orders/%s/status", c.BaseURL, orderID),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out order.Order
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "malformed order: " + err.Error()}
	}
	return &out, nil
}

// do executes the request and unwraps the envelope, classifying failures.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer res.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(res.Body).Decode(&env)

	if res.StatusCode == http.StatusConflict {
		return nil, &ConflictError{Message: envMessage(env, decodeErr, res.Status)}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: envMessage(env, decodeErr, res.Status)}
	}
	if decodeErr != nil {
		return nil, &APIError{StatusCode: res.StatusCode, Message: "malformed envelope: " + decodeErr.Error()}
	}
	if !env.Success {
		return nil, &APIError{StatusCode: res.StatusCode, Message: envMessage(env, nil, res.Status)}
	}
	return env.Data, nil
}

func envMessage(env envelope, decodeErr error, fallback string) string {
	if decodeErr == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
