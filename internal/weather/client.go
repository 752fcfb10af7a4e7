package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sociofi/weather-agent/internal/store/redisstore"
)

// ErrDataUnavailable marks any upstream weather failure: network errors,
// unknown locations, provider errors. The agent loop converts it to a
// tool-failure observation instead of crashing.
var ErrDataUnavailable = errors.New("weather data unavailable")

// Client calls the OpenWeather HTTP API. Current and forecast payloads go
// through the redis cache when one is configured; history is range-specific
// and always hits the provider.
type Client struct {
	BaseURL    string
	HistoryURL string
	APIKey     string
	HTTP       *http.Client

	cache *redisstore.Store
}

func NewClient(baseURL, historyURL, apiKey string, cache *redisstore.Store) *Client {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org"
	}
	if historyURL == "" {
		historyURL = "https://history.openweathermap.org"
	}
	return &Client{
		BaseURL:    baseURL,
		HistoryURL: historyURL,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
	}
}

// Current fetches present conditions for a free-text "City,CountryCode"
// locator. Non-English names pass through unmodified (url-encoded only).
func (c *Client) Current(ctx context.Context, city string) (json.RawMessage, error) {
	return c.cached(ctx, "wx:current:"+city, func() (json.RawMessage, error) {
		q := url.Values{}
		q.Set("q", city)
		q.Set("units", "metric")
		q.Set("appid", c.APIKey)
		return c.get(ctx, c.BaseURL+"/data/2.5/weather?"+q.Encode())
	})
}

// Forecast fetches the multi-day forecast (provider-bounded horizon).
func (c *Client) Forecast(ctx context.Context, city string) (json.RawMessage, error) {
	return c.cached(ctx, "wx:forecast:"+city, func() (json.RawMessage, error) {
		q := url.Values{}
		q.Set("q", city)
		q.Set("units", "metric")
		q.Set("appid", c.APIKey)
		return c.get(ctx, c.BaseURL+"/data/2.5/forecast?"+q.Encode())
	})
}

// History fetches hourly historical observations. start/end are optional
// ISO-8601 timestamps converted here to epoch seconds (UTC); when absent the
// parameter is omitted and the provider default window applies.
func (c *Client) History(ctx context.Context, city, start, end string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("type", "hour")
	q.Set("units", "metric")
	q.Set("appid", c.APIKey)

	if start != "" {
		ts, err := parseISOToUnix(start)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start time %q: %v", ErrDataUnavailable, start, err)
		}
		q.Set("start", strconv.FormatInt(ts, 10))
	}
	if end != "" {
		ts, err := parseISOToUnix(end)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end time %q: %v", ErrDataUnavailable, end, err)
		}
		q.Set("end", strconv.FormatInt(ts, 10))
	}

	return c.get(ctx, c.HistoryURL+"/data/2.5/history/city?"+q.Encode())
}

func parseISOToUnix(iso string) (int64, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// date-only inputs are treated as midnight UTC
		t, err = time.ParseInLocation("2006-01-02", iso, time.UTC)
		if err != nil {
			return 0, err
		}
	}
	return t.UTC().Unix(), nil
}

func (c *Client) cached(ctx context.Context, key string, fetch func() (json.RawMessage, error)) (json.RawMessage, error) {
	if c.cache != nil {
		if b, err := c.cache.GetWeather(ctx, key); err == nil {
			return json.RawMessage(b), nil
		} else if !redisstore.IsMiss(err) {
			log.Printf("[weather] cache read failed key=%s err=%v", key, err)
		}
	}

	payload, err := fetch()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetWeather(ctx, key, payload); err != nil {
			log.Printf("[weather] cache write failed key=%s err=%v", key, err)
		}
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, fullURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrDataUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid payload", ErrDataUnavailable)
	}
	return json.RawMessage(body), nil
}
