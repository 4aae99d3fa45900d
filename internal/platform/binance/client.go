package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nickhayeck/combo-trading/internal/crypto"
	"github.com/nickhayeck/combo-trading/internal/domain"
)

// recvWindow bounds how long a signed request stays valid on the venue side.
const recvWindow = 5000

// Client is the REST client for the Binance spot trading API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewClient creates a new Binance REST client.
//
// baseURL is the API root, e.g. "https://api.binance.com".
func NewClient(baseURL string, auth *crypto.HMACAuth) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// PlaceMarketOrder submits a market order for the given symbol and quantity.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64) (OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", strings.ToUpper(string(side)))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	params.Set("recvWindow", strconv.Itoa(recvWindow))
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	query := params.Encode()
	query += "&signature=" + c.auth.SignQuery(query)

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v3/order?"+query)
	if err != nil {
		return OrderAck{}, fmt.Errorf("binance: place market order: %w", err)
	}

	var ack OrderAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return OrderAck{}, fmt.Errorf("binance: decode order ack: %w", err)
	}
	return ack, nil
}

// AvgFillPrice returns the size-weighted average price across the ack's
// fills, or 0 when the venue reported none.
func (a OrderAck) AvgFillPrice() float64 {
	var notional, qty float64
	for _, f := range a.Fills {
		p, err := strconv.ParseFloat(f.Price, 64)
		if err != nil {
			continue
		}
		q, err := strconv.ParseFloat(f.Qty, 64)
		if err != nil {
			continue
		}
		notional += p * q
		qty += q
	}
	if qty == 0 {
		return 0
	}
	return notional / qty
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest sends an authenticated HTTP request and reads the response.
func (c *Client) doRequest(ctx context.Context, method, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.auth.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("binance: %w: %s (%d)", domain.ErrUnauthorized, apiErr.Message, apiErr.Code)
	case http.StatusBadRequest:
		return fmt.Errorf("binance: %w: %s (%d)", domain.ErrInvalidOrder, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("binance: HTTP %d: %s (%d)", statusCode, apiErr.Message, apiErr.Code)
	}
}
