package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CoinGeckoFetcher fetches daily crypto price history from CoinGecko.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a CoinGecko fetcher with optional proxy support.
func NewCoinGeckoFetcher(proxyURL string) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoFetcher{
		BaseURL: "https://api.coingecko.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// marketChart is the response shape of the market_chart endpoint:
// prices is a list of [unix_millis, price] pairs.
type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

func (f *CoinGeckoFetcher) FetchDaily(ctx context.Context, coinID string, days int) ([]Quote, error) {
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		f.BaseURL, url.PathEscape(coinID), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch market chart: status %d", resp.StatusCode)
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("no data returned for %s", coinID)
	}

	quotes := make([]Quote, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		if len(pair) != 2 {
			continue
		}
		quotes = append(quotes, Quote{
			Date:  time.UnixMilli(int64(pair[0])).UTC(),
			Price: pair[1],
		})
	}
	return quotes, nil
}
