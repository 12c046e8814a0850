package steps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Bag keys written by the weather step.
const (
	KeyWeatherConditions = "weather_conditions"
	KeyTemperature       = "weather_temperature_celsius"
	KeyHumidity          = "weather_humidity_percent"
	KeyWindSpeed         = "weather_wind_speed_mps"
	KeyRain1h            = "weather_rain_1h_mm"
)

var (
	errNoCoordinates = errors.New("latitude or longitude missing in input data")
	errNoAPIKey      = errors.New("OpenWeatherMap API key is missing")
)

type weatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Rain map[string]float64 `json:"rain"`
}

// WeatherStep reads current conditions at the launch pad coordinates left in
// the bag by the spacex step.
type WeatherStep struct {
	baseURL string
	apiKey  string
	units   string
	fetcher *Fetcher
}

func NewWeatherStep(baseURL, apiKey, units string, fetcher *Fetcher) *WeatherStep {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	if units == "" {
		units = "metric"
	}
	if fetcher == nil {
		fetcher = NewFetcher(DefaultTimeout)
	}
	return &WeatherStep{
		baseURL: baseURL,
		apiKey:  apiKey,
		units:   units,
		fetcher: fetcher,
	}
}

func (w *WeatherStep) Name() string {
	return "weather"
}

func (w *WeatherStep) Description() string {
	return "Fetch current weather (conditions, temperature, humidity, wind, rain) at the launch pad."
}

func (w *WeatherStep) Execute(ctx context.Context, in Bag) Outcome {
	lat, okLat := in.Float(KeyLatitude)
	lon, okLon := in.Float(KeyLongitude)
	if !okLat || !okLon {
		return Fail(FailureMissingInput, errNoCoordinates, nil)
	}
	if w.apiKey == "" {
		return Fail(FailureConfiguration, errNoAPIKey, nil)
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("appid", w.apiKey)
	query.Set("units", w.units)

	var resp weatherResponse
	if err := w.fetcher.GetJSON(ctx, w.baseURL, query, &resp); err != nil {
		return Fail(classify(err), fmt.Errorf("weather lookup: %w", err), nil)
	}

	fields := Bag{
		KeyWeatherConditions: "N/A",
		KeyRain1h:            0.0,
	}
	if len(resp.Weather) > 0 && resp.Weather[0].Description != "" {
		fields[KeyWeatherConditions] = sanitize(resp.Weather[0].Description)
	}
	if resp.Main != nil {
		if resp.Main.Temp != nil {
			fields[KeyTemperature] = celsius(*resp.Main.Temp, w.units)
		}
		if resp.Main.Humidity != nil {
			fields[KeyHumidity] = *resp.Main.Humidity
		}
	}
	if resp.Wind != nil && resp.Wind.Speed != nil {
		fields[KeyWindSpeed] = metersPerSecond(*resp.Wind.Speed, w.units)
	}
	if rain, ok := resp.Rain["1h"]; ok {
		fields[KeyRain1h] = rain
	}

	return Success(fields)
}

// OpenWeatherMap answers in the requested unit system; the bag always holds
// Celsius and m/s. "standard" is Kelvin with m/s, "imperial" is Fahrenheit
// with mph.
func celsius(temp float64, units string) float64 {
	switch units {
	case "imperial":
		return (temp - 32) * 5 / 9
	case "standard":
		return temp - 273.15
	}
	return temp
}

func metersPerSecond(speed float64, units string) float64 {
	if units == "imperial" {
		return speed * 0.44704
	}
	return speed
}
