package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-card/internal/weather"
)

// DefaultBaseURL is the CWA open-data datastore endpoint.
const DefaultBaseURL = "https://opendata.cwb.gov.tw/api/v1/rest/datastore"

const (
	observationDataset = "O-A0003-001"
	forecastDataset    = "F-C0032-001"

	// cwaTimeLayout is how the datastore formats local timestamps.
	cwaTimeLayout = "2006-01-02 15:04:05"

	// cwaMissingValue marks an element the station could not measure.
	cwaMissingValue = -99
)

// Config configures the CWA open-data clients.
type Config struct {
	BaseURL string
	APIKey  string
	// Timezone of the timestamps in CWA payloads.
	Timezone *time.Location
	Client   *http.Client

	MaxRetries        int
	RequestsPerSecond float64 // 0 disables client-side pacing
	Burst             int
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) timezone() *time.Location {
	if c.Timezone == nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return c.Timezone
}

func (c Config) httpConfig() HTTPClientConfig {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	cfg := HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      c.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
	if c.RequestsPerSecond > 0 {
		burst := c.Burst
		if burst <= 0 {
			burst = 1
		}
		cfg.Limiter = rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
	}
	return cfg
}

// datasetRequest returns a request builder for one dataset filtered by location name.
func datasetRequest(baseURL, dataset, apiKey, locationName string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		values := url.Values{}
		values.Set("Authorization", apiKey)
		values.Set("locationName", locationName)

		u := fmt.Sprintf("%s/%s?%s", baseURL, dataset, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}
}

func decodePayload(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformedf("decode body: %v", err)
	}
	return nil
}

// checkSuccess interprets the datastore's "success" flag.
func checkSuccess(flag string) error {
	if flag != "true" {
		return fmt.Errorf("%w: datastore reported success=%q", weather.ErrUpstreamRequest, flag)
	}
	return nil
}

func malformedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", weather.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func parseMeasurement(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, malformedf("element %s: %q is not a number", name, raw)
	}
	if v == cwaMissingValue {
		return 0, malformedf("element %s: value missing", name)
	}
	return v, nil
}
