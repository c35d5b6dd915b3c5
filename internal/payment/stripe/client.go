package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrMissingAPIKey = errors.New("stripe_api_key_missing")

type LineItem struct {
	Name            string
	Description     string
	UnitAmountCents int64
	Quantity        int
}

type CheckoutSessionRequest struct {
	OrderID           string
	OrderNumber       string
	CustomerEmail     string
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Items             []LineItem
	Metadata          map[string]string
	DiscountCents     int64
	IdempotencyKey    string
}

type Client struct {
	apiKey string
	client *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

// CreateCheckoutSession opens a hosted checkout page. The order id rides
// along twice, as metadata and as client_reference_id, so the webhook can
// resolve the order even when one of them is stripped.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", req.SuccessURL)
	values.Set("cancel_url", req.CancelURL)
	if req.ClientReferenceID != "" {
		values.Set("client_reference_id", req.ClientReferenceID)
	}
	if req.CustomerEmail != "" {
		values.Set("customer_email", req.CustomerEmail)
	}
	for key, value := range req.Metadata {
		values.Set("metadata["+key+"]", value)
	}
	// The order identifiers always win over whatever the caller put in
	// the metadata map: the webhook resolver depends on them.
	values.Set("metadata[orderId]", req.OrderID)
	values.Set("metadata[orderNumber]", req.OrderNumber)

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "eur"
	}
	for i, item := range req.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		values.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		values.Set(prefix+"[price_data][currency]", currency)
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmountCents, 10))
		values.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			values.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
	}

	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, req.IdempotencyKey, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &session, nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, "", &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &session, nil
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, "https://api.stripe.com"+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
