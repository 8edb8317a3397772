package openweather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// maxErrorBody caps how much of a failed response body ends up in the error.
const maxErrorBody = 512

// Client implements domain.WeatherClient using the OpenWeatherMap API.
// It makes exactly one request per Fetch: no retries and no caching.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. The timeout bounds the whole
// request; expiry surfaces as a *domain.FetchError.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns current conditions at the given coordinates in metric units.
func (c *Client) Fetch(ctx context.Context, at domain.Coordinates) (domain.WeatherSnapshot, error) {
	start := time.Now()
	snap, err := c.fetch(ctx, at)
	c.metrics.WeatherFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.WeatherFetches.WithLabelValues("error").Inc()
		c.logger.Error("weather fetch failed", "error", err, "lat", at.Lat, "lon", at.Lon)
		return domain.WeatherSnapshot{}, err
	}
	c.metrics.WeatherFetches.WithLabelValues("success").Inc()
	c.logger.Debug("weather fetched", "status", snap.StatusCode, "description", snap.Description)
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, at domain.Coordinates) (domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return domain.WeatherSnapshot{}, &domain.FetchError{Err: errors.New("openweather api key is not configured")}
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(at.Lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, &domain.FetchError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, &domain.FetchError{Err: fmt.Errorf("weather request: %w", redact(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.WeatherSnapshot{}, &domain.FetchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("openweather API error: %s", bytes.TrimSpace(body)),
		}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherSnapshot{}, &domain.FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return payload.snapshot(resp.StatusCode), nil
}

// redact strips the request URL from transport errors so the API key never
// reaches the logs.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// OpenWeatherMap API response types. Fields the skill reads are kept raw so
// that absent and malformed values can be told apart.

type response struct {
	Cod     json.RawMessage            `json:"cod"`
	Weather []condition                `json:"weather"`
	Main    mainBlock                  `json:"main"`
	Rain    map[string]json.RawMessage `json:"rain"`
	Snow    map[string]json.RawMessage `json:"snow"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type mainBlock struct {
	Temp      json.RawMessage `json:"temp"`
	FeelsLike json.RawMessage `json:"feels_like"`
}

func (r response) snapshot(httpStatus int) domain.WeatherSnapshot {
	snap := domain.WeatherSnapshot{
		StatusCode:   parseCod(r.Cod, httpStatus),
		Temperature:  readingFrom(r.Main.Temp),
		FeelsLike:    readingFrom(r.Main.FeelsLike),
		RainLastHour: readingFrom(r.Rain["1h"]),
		SnowLastHour: readingFrom(r.Snow["1h"]),
		ObservedAt:   domain.Now(),
	}
	if len(r.Weather) > 0 {
		snap.Description = r.Weather[0].Description
	}
	return snap
}

// parseCod reads the "cod" field, which OpenWeatherMap sends as a number on
// success and as a string on some errors. Falls back to the HTTP status.
func parseCod(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func readingFrom(raw json.RawMessage) domain.Reading {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.Reading{}
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.Reading{Present: true, Invalid: true}
	}
	return domain.Known(v)
}
