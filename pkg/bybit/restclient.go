package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RESTClient struct {
	baseURL    string
	httpClient HTTPClient
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *RESTClient) WithHTTPClient(hc HTTPClient) *RESTClient {
	c.httpClient = hc
	return c
}

// GetTicker fetches the latest ticker for one symbol in the given category ("spot", "linear", ...).
func (c *RESTClient) GetTicker(ctx context.Context, category, symbol string) (Ticker, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)
	endpoint := c.baseURL + "/v5/market/tickers?" + q.Encode()

	var result TickerListResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return Ticker{}, err
	}

	for _, t := range result.List {
		if t.Symbol == symbol {
			return t, nil
		}
	}
	return Ticker{}, fmt.Errorf("ticker %s not found in response", symbol)
}

// get performs a GET and decodes the envelope's result into out.
func (c *RESTClient) get(ctx context.Context, endpoint string, out any) error {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rawResp.RetCode != 0 {
		return &APIError{StatusCode: resp.StatusCode, RetCode: rawResp.RetCode, Message: rawResp.RetMsg}
	}

	if err := json.Unmarshal(rawResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
