package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3/simple/price"

// CoinGeckoClient fetches the Bitcoin spot price from CoinGecko.
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewCoinGeckoClient creates a new CoinGecko spot-price client.
func NewCoinGeckoClient(httpClient *http.Client) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: httpClient,
		baseURL:    coingeckoBaseURL,
	}
}

// NewCoinGeckoClientWithBaseURL creates a client against an alternate API
// endpoint, used by tests to point at a local stub server.
func NewCoinGeckoClientWithBaseURL(httpClient *http.Client, baseURL string) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// BitcoinPrice fetches the current BTC/USD price in cents.
func (c *CoinGeckoClient) BitcoinPrice(ctx context.Context) (int64, error) {
	url := c.baseURL + "?ids=bitcoin&vs_currencies=usd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}

	price, ok := body["bitcoin"]["usd"]
	if !ok {
		return 0, fmt.Errorf("response missing bitcoin/usd price")
	}
	return toCents(price), nil
}
