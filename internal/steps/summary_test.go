package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model that replays a canned reply and records prompts.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func launchFields() Bag {
	return Bag{
		KeyMissionName:   "Starlink Group 6-2",
		KeyLaunchDateUTC: "2023-10-26T12:00:00Z",
		KeyRocketName:    "Falcon 9",
		KeyLaunchSite:    "SLC-40, Cape Canaveral",
	}
}

func TestSummaryStep_FullData(t *testing.T) {
	in := launchFields().Merge(Bag{
		KeyWeatherConditions: "few clouds",
		KeyTemperature:       25.5,
		KeyWindSpeed:         5.0,
		KeyRain1h:            0.0,
	})

	out := NewSummaryStep().Execute(context.Background(), in)

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t,
		"The next SpaceX mission, 'Starlink Group 6-2', is scheduled to launch the Falcon 9 from SLC-40, Cape Canaveral on 2023-10-26T12:00:00Z. "+
			"Current weather at the launch site: few clouds, with a temperature of 25.5°C and wind speeds of 5 m/s. "+
			"No immediate weather concerns for delay noted.",
		out.Fields[KeySummaryText])
	assert.Equal(t, noDelayConcerns, out.Fields[KeyDelayRisk])
}

func TestSummaryStep_DelayReasons(t *testing.T) {
	cases := []struct {
		name    string
		weather Bag
		want    string
	}{
		{
			name:    "rain",
			weather: Bag{KeyWeatherConditions: "moderate rain", KeyWindSpeed: 7.0, KeyRain1h: 2.5},
			want:    "Potential for launch delay due to: significant rain (2.5mm/hr).",
		},
		{
			name:    "wind",
			weather: Bag{KeyWeatherConditions: "clear sky", KeyWindSpeed: 15.0, KeyRain1h: 0.0},
			want:    "Potential for launch delay due to: high wind speeds (15 m/s).",
		},
		{
			name:    "storm",
			weather: Bag{KeyWeatherConditions: "Thunderstorm with heavy rain", KeyWindSpeed: 12.5, KeyRain1h: 0.7},
			want:    "Potential for launch delay due to: significant rain (0.7mm/hr), high wind speeds (12.5 m/s), thunderstorms, heavy rain.",
		},
		{
			name:    "light drizzle below threshold",
			weather: Bag{KeyWeatherConditions: "light rain", KeyRain1h: 0.5},
			want:    noDelayConcerns,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := NewSummaryStep().Execute(context.Background(), launchFields().Merge(tc.weather))
			require.Equal(t, StatusSuccess, out.Status)
			assert.Equal(t, tc.want, out.Fields[KeyDelayRisk])
			assert.True(t, strings.HasSuffix(out.Fields[KeySummaryText].(string), tc.want))
		})
	}
}

func TestSummaryStep_RainMentioned(t *testing.T) {
	in := launchFields().Merge(Bag{KeyWeatherConditions: "moderate rain", KeyRain1h: 2.5})

	out := NewSummaryStep().Execute(context.Background(), in)

	assert.Contains(t, out.Fields[KeySummaryText], "Current weather at the launch site: moderate rain. There has been 2.5mm of rain in the last hour.")
}

func TestSummaryStep_MissingWeatherIsPartial(t *testing.T) {
	in := launchFields().Merge(Bag{StatusKey("weather"): StatusError})

	out := NewSummaryStep().Execute(context.Background(), in)

	require.Equal(t, StatusPartial, out.Status)
	require.NotNil(t, out.Err)
	assert.Equal(t, "missing weather data", out.Err.Message)
	assert.Contains(t, out.Fields[KeySummaryText], "Starlink Group 6-2")
	assert.Contains(t, out.Fields[KeySummaryText], weatherMissing)
	assert.Equal(t, delayNotAssessed, out.Fields[KeyDelayRisk])
}

func TestSummaryStep_NothingUpstream(t *testing.T) {
	out := NewSummaryStep().Execute(context.Background(), Bag{})

	require.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, "missing launch and weather data", out.Err.Message)
	assert.Equal(t, launchUnavailable+" "+weatherMissing+" "+delayNotAssessed, out.Fields[KeySummaryText])
}

func TestSummaryStep_PlaceholderMissionIsMissing(t *testing.T) {
	in := Bag{KeyMissionName: "N/A", KeyWeatherConditions: "overcast clouds", KeyRain1h: 0.0}

	out := NewSummaryStep().Execute(context.Background(), in)

	require.Equal(t, StatusPartial, out.Status)
	assert.True(t, strings.HasPrefix(out.Fields[KeySummaryText].(string), launchUnavailable))
	assert.Contains(t, out.Fields[KeySummaryText], "overcast clouds")
}

func TestSummaryStep_Narrated(t *testing.T) {
	model := &fakeModel{reply: "  Starlink lifts off Thursday under few clouds.  "}
	step := NewSummaryStep(WithNarrator(NewNarrator(model, "")))

	in := launchFields().Merge(Bag{KeyWeatherConditions: "few clouds", KeyRain1h: 0.0})
	out := step.Execute(context.Background(), in)

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "Starlink lifts off Thursday under few clouds.", out.Fields[KeySummaryText])
	assert.Equal(t, noDelayConcerns, out.Fields[KeyDelayRisk])
	assert.NotContains(t, out.Fields, KeyNarratorError)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Mission: Starlink Group 6-2")
	assert.Contains(t, model.prompts[0], "Weather: few clouds")
	assert.Contains(t, model.prompts[0], "The next SpaceX mission, 'Starlink Group 6-2'")
}

func TestSummaryStep_NarrationFailureKeepsTemplate(t *testing.T) {
	model := &fakeModel{err: errors.New("provider unavailable")}
	step := NewSummaryStep(WithNarrator(NewNarrator(model, "Summarise: {{.draft}}")))

	in := launchFields().Merge(Bag{KeyWeatherConditions: "few clouds", KeyRain1h: 0.0})
	out := step.Execute(context.Background(), in)

	require.Equal(t, StatusSuccess, out.Status)
	assert.Contains(t, out.Fields[KeySummaryText], "The next SpaceX mission")
	assert.Contains(t, out.Fields[KeyNarratorError], "provider unavailable")
	require.Len(t, model.prompts, 1)
	assert.True(t, strings.HasPrefix(model.prompts[0], "Summarise: The next SpaceX mission"))
}

func TestSummaryStep_EmptyNarrationKeepsTemplate(t *testing.T) {
	step := NewSummaryStep(WithNarrator(NewNarrator(&fakeModel{reply: "   "}, "")))

	out := step.Execute(context.Background(), launchFields())

	assert.Equal(t, StatusPartial, out.Status)
	assert.Contains(t, out.Fields[KeySummaryText], "The next SpaceX mission")
	assert.Contains(t, out.Fields[KeyNarratorError], "empty response")
}

func TestNarrator_OnResponse(t *testing.T) {
	var seen []string
	n := NewNarrator(&fakeModel{reply: "done"}, "Draft: {{.draft}}").OnResponse(func(ctx context.Context, prompt, response string) {
		seen = append(seen, RunIDFromContext(ctx), prompt, response)
	})

	values := map[string]any{}
	for _, v := range narrationVars {
		values[v] = "N/A"
	}
	values["draft"] = "hello"

	out, err := n.Narrate(ContextWithRunID(context.Background(), "run-7"), values)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"run-7", "Draft: hello", "done"}, seen)
}
