package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-card/internal/weather"
)

// ObservationClient implements weather.ObservationSource over the CWA automatic
// station dataset (O-A0003-001).
type ObservationClient struct {
	name     string
	apiKey   string
	baseURL  string
	timezone *time.Location
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewObservationClient(cfg Config) *ObservationClient {
	return &ObservationClient{
		name:     "cwa-observation",
		apiKey:   cfg.APIKey,
		baseURL:  cfg.baseURL(),
		timezone: cfg.timezone(),
		httpCfg:  cfg.httpConfig(),
		circuit:  newCircuitBreaker("cwa-observation"),
	}
}

func (c *ObservationClient) Name() string {
	return c.name
}

type observationPayload struct {
	Success string `json:"success"`
	Records struct {
		Location []struct {
			LocationName string `json:"locationName"`
			Time         struct {
				ObsTime string `json:"obsTime"`
			} `json:"time"`
			WeatherElement []struct {
				ElementName  string `json:"elementName"`
				ElementValue string `json:"elementValue"`
			} `json:"weatherElement"`
		} `json:"location"`
	} `json:"records"`
}

func (c *ObservationClient) FetchObservation(ctx context.Context, station string) (weather.Observation, error) {
	if c.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("%w: cwa api key is not configured", weather.ErrUpstreamRequest)
	}

	buildRequest := datasetRequest(c.baseURL, observationDataset, c.apiKey, station)
	resp, err := doRequestWithResilience(ctx, c.name, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload observationPayload
	if err := decodePayload(resp, &payload); err != nil {
		return weather.Observation{}, err
	}
	if err := checkSuccess(payload.Success); err != nil {
		return weather.Observation{}, err
	}

	for _, loc := range payload.Records.Location {
		if loc.LocationName != station {
			continue
		}

		elements := make(map[string]string, len(loc.WeatherElement))
		for _, el := range loc.WeatherElement {
			elements[el.ElementName] = el.ElementValue
		}

		obs := weather.Observation{LocationName: loc.LocationName}

		obs.ObservationTime, err = time.ParseInLocation(cwaTimeLayout, strings.TrimSpace(loc.Time.ObsTime), c.timezone)
		if err != nil {
			return weather.Observation{}, malformedf("station %s: observation time %q", station, loc.Time.ObsTime)
		}

		raw, ok := elements["TEMP"]
		if !ok {
			return weather.Observation{}, malformedf("station %s: element TEMP absent", station)
		}
		if obs.Temperature, err = parseMeasurement("TEMP", raw); err != nil {
			return weather.Observation{}, err
		}

		raw, ok = elements["WDSD"]
		if !ok {
			return weather.Observation{}, malformedf("station %s: element WDSD absent", station)
		}
		if obs.WindSpeed, err = parseMeasurement("WDSD", raw); err != nil {
			return weather.Observation{}, err
		}
		if obs.WindSpeed < 0 {
			return weather.Observation{}, malformedf("station %s: negative wind speed %v", station, obs.WindSpeed)
		}

		desc, ok := elements["Weather"]
		if !ok {
			return weather.Observation{}, malformedf("station %s: element Weather absent", station)
		}
		obs.WeatherDescription = desc

		return obs, nil
	}

	return weather.Observation{}, malformedf("station %s absent from response", station)
}
