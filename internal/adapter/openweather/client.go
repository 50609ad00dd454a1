// Package openweather implements domain.WeatherSource using the OpenWeather
// current weather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
)

// DefaultBaseURL is the OpenWeather data API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

var errIncompleteResponse = errors.New("openweather response missing main or weather block")

// Client fetches current weather by free-text location.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// CurrentWeather returns the current conditions for location in metric units.
func (c *Client) CurrentWeather(ctx context.Context, location string) (domain.WeatherAdvisory, error) {
	params := url.Values{
		"q":     {strings.TrimSpace(location)},
		"units": {"metric"},
		"appid": {c.apiKey},
	}
	fullURL := c.baseURL + "/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherAdvisory{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherAdvisory{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.WeatherAdvisory{}, &domain.UpstreamError{
			Upstream:   "openweather",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.WeatherAdvisory{}, fmt.Errorf("decode response: %w", err)
	}
	if owResp.Main == nil || len(owResp.Weather) == 0 {
		return domain.WeatherAdvisory{}, errIncompleteResponse
	}

	c.logger.Debug("openweather lookup", "location", location, "resolved", owResp.Name)

	return domain.WeatherAdvisory{
		TemperatureC:  owResp.Main.Temp,
		FeelsLikeC:    owResp.Main.FeelsLike,
		HumidityPct:   owResp.Main.Humidity,
		WindSpeedMs:   owResp.Wind.Speed,
		ConditionText: owResp.Weather[0].Description,
		LocationLabel: owResp.Name,
		CountryCode:   owResp.Sys.Country,
	}, nil
}

// OpenWeather API response types.

type response struct {
	Name    string        `json:"name"`
	Main    *mainBlock    `json:"main"`
	Weather []weatherItem `json:"weather"`
	Wind    windBlock     `json:"wind"`
	Sys     sysBlock      `json:"sys"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  int     `json:"humidity"`
}

type weatherItem struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
}

type sysBlock struct {
	Country string `json:"country"`
}
