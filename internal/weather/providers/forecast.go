package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-card/internal/weather"
)

// ForecastClient implements weather.ForecastSource over the CWA 36-hour regional
// forecast dataset (F-C0032-001).
type ForecastClient struct {
	name     string
	apiKey   string
	baseURL  string
	timezone *time.Location
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewForecastClient(cfg Config) *ForecastClient {
	return &ForecastClient{
		name:     "cwa-forecast",
		apiKey:   cfg.APIKey,
		baseURL:  cfg.baseURL(),
		timezone: cfg.timezone(),
		httpCfg:  cfg.httpConfig(),
		circuit:  newCircuitBreaker("cwa-forecast"),
	}
}

func (c *ForecastClient) Name() string {
	return c.name
}

type forecastWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Parameter struct {
		ParameterName  string `json:"parameterName"`
		ParameterValue string `json:"parameterValue"`
		ParameterUnit  string `json:"parameterUnit"`
	} `json:"parameter"`
}

type forecastPayload struct {
	Success string `json:"success"`
	Records struct {
		Location []struct {
			LocationName   string `json:"locationName"`
			WeatherElement []struct {
				ElementName string           `json:"elementName"`
				Time        []forecastWindow `json:"time"`
			} `json:"weatherElement"`
		} `json:"location"`
	} `json:"records"`
}

func (c *ForecastClient) FetchForecast(ctx context.Context, region string) (weather.Forecast, error) {
	if c.apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("%w: cwa api key is not configured", weather.ErrUpstreamRequest)
	}

	buildRequest := datasetRequest(c.baseURL, forecastDataset, c.apiKey, region)
	resp, err := doRequestWithResilience(ctx, c.name, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload forecastPayload
	if err := decodePayload(resp, &payload); err != nil {
		return weather.Forecast{}, err
	}
	if err := checkSuccess(payload.Success); err != nil {
		return weather.Forecast{}, err
	}

	for _, loc := range payload.Records.Location {
		if loc.LocationName != region {
			continue
		}

		// The first window of each element is the nearest one.
		nearest := make(map[string]forecastWindow, len(loc.WeatherElement))
		for _, el := range loc.WeatherElement {
			if len(el.Time) > 0 {
				nearest[el.ElementName] = el.Time[0]
			}
		}

		wx, ok := nearest["Wx"]
		if !ok {
			return weather.Forecast{}, malformedf("region %s: element Wx absent", region)
		}
		pop, ok := nearest["PoP"]
		if !ok {
			return weather.Forecast{}, malformedf("region %s: element PoP absent", region)
		}
		ci, ok := nearest["CI"]
		if !ok {
			return weather.Forecast{}, malformedf("region %s: element CI absent", region)
		}

		code, err := strconv.Atoi(strings.TrimSpace(wx.Parameter.ParameterValue))
		if err != nil {
			return weather.Forecast{}, malformedf("region %s: weather code %q", region, wx.Parameter.ParameterValue)
		}
		rain, err := strconv.ParseFloat(strings.TrimSpace(pop.Parameter.ParameterName), 64)
		if err != nil || rain < 0 || rain > 100 {
			return weather.Forecast{}, malformedf("region %s: rain probability %q", region, pop.Parameter.ParameterName)
		}

		return weather.Forecast{
			Description:     wx.Parameter.ParameterName,
			WeatherCode:     code,
			RainProbability: rain,
			Comfortability:  ci.Parameter.ParameterName,
			StartTime:       c.parseTime(wx.StartTime),
			EndTime:         c.parseTime(wx.EndTime),
		}, nil
	}

	return weather.Forecast{}, malformedf("region %s absent from response", region)
}

// parseTime returns the zero time for window bounds it cannot read; they are informational.
func (c *ForecastClient) parseTime(s string) time.Time {
	t, err := time.ParseInLocation(cwaTimeLayout, strings.TrimSpace(s), c.timezone)
	if err != nil {
		return time.Time{}
	}
	return t
}
