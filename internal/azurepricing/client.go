package azurepricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://prices.azure.com/api/retail/prices"

	MinPages = 1
	MaxPages = 10
)

// Filter narrows a retail prices lookup. Empty fields are omitted from the
// OData $filter expression.
type Filter struct {
	ServiceName   string
	ArmRegionName string
	SkuName       string
	MeterName     string
	PriceType     string
	CurrencyCode  string
}

// UpstreamError carries a non-2xx response from the retail prices API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("azure retail prices: http %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 4,
	}
}

// odataFilter renders the $filter expression, e.g.
// serviceName eq 'Virtual Machines' and armRegionName eq 'westus2'.
func (f Filter) odataFilter() string {
	var clauses []string
	add := func(field, value string) {
		if value != "" {
			clauses = append(clauses, fmt.Sprintf("%s eq '%s'", field, value))
		}
	}
	add("serviceName", f.ServiceName)
	add("armRegionName", f.ArmRegionName)
	add("skuName", f.SkuName)
	add("meterName", f.MeterName)
	add("priceType", f.PriceType)
	add("currencyCode", f.CurrencyCode)
	return strings.Join(clauses, " and ")
}

// GetPrices pages through the retail prices API following NextPageLink,
// scanning at most maxPages pages.
func (c *Client) GetPrices(ctx context.Context, f Filter, maxPages int) ([]map[string]interface{}, error) {
	if maxPages < MinPages {
		maxPages = MinPages
	}
	if maxPages > MaxPages {
		maxPages = MaxPages
	}

	pageURL := c.baseURL
	if expr := f.odataFilter(); expr != "" {
		q := url.Values{}
		q.Set("$filter", expr)
		pageURL = c.baseURL + "?" + q.Encode()
	}

	var items []map[string]interface{}
	for pages := 0; pageURL != "" && pages < maxPages; pages++ {
		body, err := c.getWithRetry(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var page struct {
			Items        []map[string]interface{} `json:"Items"`
			NextPageLink string                   `json:"NextPageLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode retail prices page: %w", err)
		}

		items = append(items, page.Items...)
		pageURL = page.NextPageLink
	}
	return items, nil
}

// MinRetailPrice returns the smallest retailPrice across the matched items,
// preferring positive values, or nil when nothing matched.
func (c *Client) MinRetailPrice(ctx context.Context, f Filter, maxPages int) (*float64, error) {
	items, err := c.GetPrices(ctx, f, maxPages)
	if err != nil {
		return nil, err
	}
	return MinRetailPriceOf(items), nil
}

// MinRetailPriceOf applies the min-positive-else-min rule to the retailPrice
// field of the given items.
func MinRetailPriceOf(items []map[string]interface{}) *float64 {
	var prices []float64
	for _, it := range items {
		switch v := it["retailPrice"].(type) {
		case float64:
			prices = append(prices, v)
		case string:
			var f float64
			if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
				prices = append(prices, f)
			}
		}
	}
	return minNonzeroOrMin(prices)
}

func minNonzeroOrMin(vals []float64) *float64 {
	var minPos *float64
	var minAll *float64
	for i := range vals {
		v := vals[i]
		if minAll == nil || v < *minAll {
			minAll = &vals[i]
		}
		if v > 0 && (minPos == nil || v < *minPos) {
			minPos = &vals[i]
		}
	}
	if minPos != nil {
		return minPos
	}
	return minAll
}

func (c *Client) getWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	baseDelay := 400 * time.Millisecond

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "cloud-analytics-backend/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = readErr
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return body, nil
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				// Client errors won't heal on retry.
				return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
			default:
				lastErr = &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		sleep := baseDelay * time.Duration(1<<(attempt-1))
		sleep += time.Duration(rand.Int63n(int64(sleep / 2)))
		if sleep > 8*time.Second {
			sleep = 8 * time.Second
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all attempts failed: %w", lastErr)
}
