package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Bag keys written by the summary step.
const (
	KeySummaryText   = "summary_text"
	KeyDelayRisk     = "summary_delay_risk"
	KeyNarratorError = "summary_narrator_error"
)

const (
	rainThresholdMM   = 0.5
	windThresholdMPS  = 10.0
	noDelayConcerns   = "No immediate weather concerns for delay noted."
	delayNotAssessed  = "Delay risk could not be assessed without weather data."
	launchUnavailable = "Information about the next SpaceX launch is currently unavailable."
	weatherMissing    = "Weather data for the launch site is currently unavailable."
)

// SummaryStep synthesises launch and weather fields into a report with a
// delay-risk note. It works with whatever upstream data is present.
type SummaryStep struct {
	narrator *Narrator
}

type SummaryOption func(*SummaryStep)

// WithNarrator has an LLM rewrite the templated report.
func WithNarrator(n *Narrator) SummaryOption {
	return func(s *SummaryStep) { s.narrator = n }
}

func NewSummaryStep(opts ...SummaryOption) *SummaryStep {
	s := &SummaryStep{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SummaryStep) Name() string {
	return "summary"
}

func (s *SummaryStep) Description() string {
	return "Summarise the launch and weather data and note whether the launch may be delayed."
}

func (s *SummaryStep) Execute(ctx context.Context, in Bag) Outcome {
	var parts, missing []string

	mission, hasLaunch := present(in, KeyMissionName)
	rocket := textOr(in, KeyRocketName, "N/A")
	site := textOr(in, KeyLaunchSite, "N/A")
	date := textOr(in, KeyLaunchDateUTC, "N/A")
	if hasLaunch {
		parts = append(parts, fmt.Sprintf("The next SpaceX mission, '%s', is scheduled to launch the %s from %s on %s.",
			mission, rocket, site, date))
	} else {
		parts = append(parts, launchUnavailable)
		missing = append(missing, "launch")
	}

	conditions, hasWeather := present(in, KeyWeatherConditions)
	wind, hasWind := in.Float(KeyWindSpeed)
	rain, _ := in.Float(KeyRain1h)
	if hasWeather {
		desc := "Current weather at the launch site: " + conditions
		if temp, ok := in.Float(KeyTemperature); ok {
			desc += ", with a temperature of " + num(temp) + "°C"
		}
		if hasWind {
			desc += " and wind speeds of " + num(wind) + " m/s"
		}
		if rain > 0 {
			desc += ". There has been " + num(rain) + "mm of rain in the last hour"
		}
		parts = append(parts, desc+".")
	} else {
		parts = append(parts, weatherMissing)
		missing = append(missing, "weather")
	}

	risk := delayNotAssessed
	if hasWeather {
		risk = assessDelay(conditions, wind, hasWind, rain)
	}
	parts = append(parts, risk)

	fields := Bag{
		KeySummaryText: strings.Join(parts, " "),
		KeyDelayRisk:   risk,
	}

	if s.narrator != nil {
		text, err := s.narrator.Narrate(ctx, map[string]any{
			"mission":     textOr(in, KeyMissionName, "N/A"),
			"launch_date": date,
			"rocket":      rocket,
			"site":        site,
			"conditions":  textOr(in, KeyWeatherConditions, "N/A"),
			"draft":       fields[KeySummaryText],
			"delay_risk":  risk,
		})
		if err != nil {
			fields[KeyNarratorError] = err.Error()
		} else {
			fields[KeySummaryText] = text
		}
	}

	if len(missing) > 0 {
		return Partial(fields, "missing "+strings.Join(missing, " and ")+" data")
	}
	return Success(fields)
}

func assessDelay(conditions string, wind float64, hasWind bool, rain float64) string {
	var reasons []string
	if rain > rainThresholdMM {
		reasons = append(reasons, fmt.Sprintf("significant rain (%smm/hr)", num(rain)))
	}
	if hasWind && wind > windThresholdMPS {
		reasons = append(reasons, fmt.Sprintf("high wind speeds (%s m/s)", num(wind)))
	}
	lower := strings.ToLower(conditions)
	if strings.Contains(lower, "thunderstorm") {
		reasons = append(reasons, "thunderstorms")
	}
	if strings.Contains(lower, "heavy rain") {
		reasons = append(reasons, "heavy rain")
	}
	if len(reasons) == 0 {
		return noDelayConcerns
	}
	return "Potential for launch delay due to: " + strings.Join(reasons, ", ") + "."
}

// present treats "N/A" placeholders as absent.
func present(in Bag, key string) (string, bool) {
	v, ok := in.String(key)
	if !ok || v == "N/A" {
		return "", false
	}
	return v, true
}

func textOr(in Bag, key, fallback string) string {
	if v, ok := in.String(key); ok {
		return v
	}
	return fallback
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
