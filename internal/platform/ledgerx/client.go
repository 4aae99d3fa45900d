package ledgerx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

// contractsPageSize is the page size used when walking the contracts list.
const contractsPageSize = 200

// Client is the REST client for the LedgerX trading API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new LedgerX REST client.
//
// baseURL is the API root, e.g. "https://api.ledgerx.com".
// apiKey may be empty for read-only catalog access.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListContracts walks the paginated /trading/contracts endpoint and returns
// every options contract on the board.
func (c *Client) ListContracts(ctx context.Context) ([]Contract, error) {
	var all []Contract
	offset := 0

	for {
		params := url.Values{}
		params.Set("derivative_type", "options_contract")
		params.Set("limit", strconv.Itoa(contractsPageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, err := c.doRequest(ctx, http.MethodGet, "/trading/contracts?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("ledgerx: list contracts: %w", err)
		}

		var resp struct {
			Data []Contract `json:"data"`
			Meta struct {
				Next string `json:"next"`
			} `json:"meta"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("ledgerx: decode contracts: %w", err)
		}

		all = append(all, resp.Data...)
		if resp.Meta.Next == "" || len(resp.Data) == 0 {
			return all, nil
		}
		offset += len(resp.Data)
	}
}

// FetchCatalog lists the board and converts it into the domain catalog keyed
// by contract id. Time to expiry is annualized against now.
func (c *Client) FetchCatalog(ctx context.Context, now time.Time) (domain.Catalog, error) {
	contracts, err := c.ListContracts(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(domain.Catalog, len(contracts))
	for _, wire := range contracts {
		spec := wire.ToDomain(now)
		catalog[spec.ID] = spec
	}
	return catalog, nil
}

// PlaceOrder submits a limit order.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (OrderResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/trading/orders", order)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("ledgerx: place order: %w", err)
	}

	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return OrderResponse{}, fmt.Errorf("ledgerx: decode order response: %w", err)
	}
	return resp, nil
}

// CancelOrder cancels an open order by its message id.
func (c *Client) CancelOrder(ctx context.Context, messageID string, contractID uint64) error {
	path := fmt.Sprintf("/trading/orders/%s", url.PathEscape(messageID))
	payload := map[string]uint64{"contract_id": contractID}

	if _, err := c.doRequest(ctx, http.MethodDelete, path, payload); err != nil {
		return fmt.Errorf("ledgerx: cancel order %s: %w", messageID, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, authenticates, sends, and reads an HTTP request against
// the LedgerX API.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "JWT "+c.apiKey)
	}

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
	case http.StatusNotFound:
		return fmt.Errorf("ledgerx: %w: %s", domain.ErrNotFound, apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("ledgerx: %w: %s", domain.ErrUnauthorized, apiErr.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("ledgerx: %w: %s", domain.ErrInvalidOrder, apiErr.Message)
	default:
		return fmt.Errorf("ledgerx: HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
