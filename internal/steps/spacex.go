package steps

import (
	"context"
	"fmt"
	"strings"
)

const DefaultSpaceXBaseURL = "https://api.spacexdata.com/v4"

// Bag keys written by the spacex step.
const (
	KeyMissionName   = "spacex_mission_name"
	KeyLaunchDateUTC = "spacex_launch_date_utc"
	KeyRocketID      = "spacex_rocket_id"
	KeyRocketName    = "spacex_rocket_name"
	KeyLaunchSite    = "spacex_launch_site_name"
	KeyLatitude      = "spacex_launch_pad_latitude"
	KeyLongitude     = "spacex_launch_pad_longitude"
)

type launchResponse struct {
	Name      string `json:"name"`
	DateUTC   string `json:"date_utc"`
	Rocket    string `json:"rocket"`
	Launchpad string `json:"launchpad"`
}

type launchpadResponse struct {
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type rocketResponse struct {
	Name string `json:"name"`
}

// SpaceXStep looks up the next scheduled launch and its pad coordinates.
type SpaceXStep struct {
	baseURL string
	fetcher *Fetcher
}

func NewSpaceXStep(baseURL string, fetcher *Fetcher) *SpaceXStep {
	if baseURL == "" {
		baseURL = DefaultSpaceXBaseURL
	}
	if fetcher == nil {
		fetcher = NewFetcher(DefaultTimeout)
	}
	return &SpaceXStep{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

func (s *SpaceXStep) Name() string {
	return "spacex"
}

func (s *SpaceXStep) Description() string {
	return "Fetch the next SpaceX launch: mission, date, rocket, launch site and pad coordinates."
}

func (s *SpaceXStep) Execute(ctx context.Context, in Bag) Outcome {
	var launch launchResponse
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/launches/next", nil, &launch); err != nil {
		return Fail(classify(err), fmt.Errorf("next launch lookup: %w", err), nil)
	}

	fields := Bag{
		KeyMissionName:   orNA(sanitize(launch.Name)),
		KeyLaunchDateUTC: orNA(launch.DateUTC),
	}

	if launch.Rocket != "" {
		fields[KeyRocketID] = launch.Rocket
		fields[KeyRocketName] = s.rocketName(ctx, launch.Rocket)
	}

	if launch.Launchpad == "" {
		fields[KeyLaunchSite] = "N/A"
		return Partial(fields, "launch has no launchpad; coordinates unavailable")
	}

	var pad launchpadResponse
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/launchpads/"+launch.Launchpad, nil, &pad); err != nil {
		return Fail(classify(err), fmt.Errorf("launchpad %s lookup: %w", launch.Launchpad, err), fields)
	}

	site := pad.FullName
	if site == "" {
		site = pad.Name
	}
	fields[KeyLaunchSite] = orNA(sanitize(site))

	if pad.Latitude == nil || pad.Longitude == nil {
		return Partial(fields, "launchpad has no coordinates")
	}
	fields[KeyLatitude] = *pad.Latitude
	fields[KeyLongitude] = *pad.Longitude

	return Success(fields)
}

// rocketName is best effort: an unknown rocket falls back to its ID.
func (s *SpaceXStep) rocketName(ctx context.Context, id string) string {
	fallback := "Rocket ID: " + id

	var rocket rocketResponse
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/rockets/"+id, nil, &rocket); err != nil {
		return fallback
	}
	if name := sanitize(rocket.Name); name != "" {
		return name
	}
	return fallback
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
