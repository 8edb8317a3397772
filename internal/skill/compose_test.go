package skill

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDescription = "light rain"
	rainClause      = "2.5 mm of rain in the last hour"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func liveComposer() *LiveComposer {
	return NewLiveComposer(discardLogger(), observability.NewMetricsForTesting())
}

func fullSnapshot() domain.WeatherSnapshot {
	return domain.WeatherSnapshot{
		StatusCode:  200,
		Description: testDescription,
		Temperature: domain.Known(18.0),
		FeelsLike:   domain.Known(16.5),
	}
}

var errFetch = &domain.FetchError{Err: errors.New("connection refused")}

func TestLiveComposer_Greeting(t *testing.T) {
	c := liveComposer()

	utt := c.Greeting(fullSnapshot(), nil)
	assert.Contains(t, utt.Speech, "200")
	assert.Empty(t, utt.Reprompt)
	assert.False(t, utt.EndSession)

	utt = c.Greeting(domain.WeatherSnapshot{}, errFetch)
	assert.Equal(t, "Hello World! "+fetchErrorText, utt.Speech)
	assert.False(t, utt.EndSession)
}

func TestLiveComposer_WeatherDescription_NoPrecipitation(t *testing.T) {
	utt := liveComposer().WeatherDescription(fullSnapshot(), nil)
	assert.Equal(t, "The current weather is light rain.", utt.Speech)
	assert.False(t, utt.EndSession)
}

func TestLiveComposer_WeatherDescription_RainOnly(t *testing.T) {
	snap := fullSnapshot()
	snap.RainLastHour = domain.Known(2.5)

	utt := liveComposer().WeatherDescription(snap, nil)
	assert.True(t, strings.HasPrefix(utt.Speech, "The current weather is light rain"))
	assert.Contains(t, utt.Speech, rainClause)
	assert.NotContains(t, utt.Speech, "snow")
}

func TestLiveComposer_WeatherDescription_RainThenSnow(t *testing.T) {
	snap := fullSnapshot()
	snap.RainLastHour = domain.Known(2.5)
	snap.SnowLastHour = domain.Known(0.3)

	utt := liveComposer().WeatherDescription(snap, nil)
	rain := strings.Index(utt.Speech, rainClause)
	snow := strings.Index(utt.Speech, "0.3 mm of snow in the last hour")
	require.GreaterOrEqual(t, rain, 0)
	require.GreaterOrEqual(t, snow, 0)
	assert.Less(t, rain, snow, "rain clause must precede snow clause")
}

func TestLiveComposer_WeatherDescription_SnowOnly(t *testing.T) {
	snap := fullSnapshot()
	snap.SnowLastHour = domain.Known(1)

	utt := liveComposer().WeatherDescription(snap, nil)
	assert.Contains(t, utt.Speech, "with 1 mm of snow in the last hour")
	assert.NotContains(t, utt.Speech, "rain in the last hour")
}

func TestLiveComposer_WeatherDescription_MissingDescription(t *testing.T) {
	c := liveComposer()
	snap := fullSnapshot()
	snap.Description = ""

	utt := c.WeatherDescription(snap, nil)
	assert.Equal(t, weatherErrorText, utt.Speech)
	assert.NotEqual(t, fetchErrorText, utt.Speech)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.CompositionErrs.WithLabelValues("weather")))
}

func TestLiveComposer_WeatherDescription_MalformedRain(t *testing.T) {
	snap := fullSnapshot()
	snap.RainLastHour = domain.Reading{Present: true, Invalid: true}

	utt := liveComposer().WeatherDescription(snap, nil)
	assert.Equal(t, weatherErrorText, utt.Speech)
}

func TestLiveComposer_WeatherDescription_FetchError(t *testing.T) {
	utt := liveComposer().WeatherDescription(domain.WeatherSnapshot{}, errFetch)
	assert.Equal(t, fetchErrorText, utt.Speech)
}

func TestLiveComposer_Temperature(t *testing.T) {
	utt := liveComposer().Temperature(fullSnapshot(), nil)
	assert.Equal(t, "The current temperature is 18°C, but feels like 16.5°C.", utt.Speech)
	assert.Contains(t, utt.Speech, "18")
	assert.Contains(t, utt.Speech, "16.5")
}

func TestLiveComposer_Temperature_Negative(t *testing.T) {
	snap := fullSnapshot()
	snap.Temperature = domain.Known(-3.2)
	snap.FeelsLike = domain.Known(-8)

	utt := liveComposer().Temperature(snap, nil)
	assert.Equal(t, "The current temperature is -3.2°C, but feels like -8°C.", utt.Speech)
}

func TestLiveComposer_Temperature_MissingFeelsLike(t *testing.T) {
	c := liveComposer()
	snap := fullSnapshot()
	snap.FeelsLike = domain.Reading{}

	utt := c.Temperature(snap, nil)
	assert.Equal(t, temperatureErrText, utt.Speech)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.CompositionErrs.WithLabelValues("temperature")))
}

func TestLiveComposer_Temperature_FetchError(t *testing.T) {
	utt := liveComposer().Temperature(domain.WeatherSnapshot{}, errFetch)
	assert.Equal(t, fetchErrorText, utt.Speech)
}

func TestLiveComposer_FetchErrorNeverPanics(t *testing.T) {
	c := liveComposer()
	composers := map[string]func(domain.WeatherSnapshot, error) domain.Utterance{
		"greeting":    c.Greeting,
		"weather":     c.WeatherDescription,
		"temperature": c.Temperature,
	}
	for name, compose := range composers {
		t.Run(name, func(t *testing.T) {
			var utt domain.Utterance
			require.NotPanics(t, func() { utt = compose(domain.WeatherSnapshot{}, errFetch) })
			assert.Contains(t, utt.Speech, fetchErrorText)
		})
	}
}

func TestCommonComposer_Constants(t *testing.T) {
	c := liveComposer()

	launch := c.Launch()
	assert.Equal(t, launchText, launch.Speech)
	assert.Equal(t, launchText, launch.Reprompt)

	help := c.Help()
	assert.NotEmpty(t, help.Reprompt)
	assert.False(t, help.EndSession)

	bye := c.CancelOrStop()
	assert.Equal(t, goodbyeText, bye.Speech)
	assert.True(t, bye.EndSession)

	fb := c.Fallback()
	assert.Equal(t, fallbackText, fb.Speech)
	assert.Equal(t, fallbackRepromptTxt, fb.Reprompt)

	ended := c.SessionEnded()
	assert.Empty(t, ended.Speech)
	assert.True(t, ended.EndSession)

	ex := c.Exception()
	assert.Equal(t, exceptionText, ex.Speech)
	assert.Equal(t, exceptionText, ex.Reprompt)
	assert.False(t, ex.EndSession)

	assert.Equal(t, "You triggered clothing intent.", c.Clothing().Speech)
	assert.Equal(t, "You triggered miscellaneous intent.", c.Misc().Speech)
}

func TestCommonComposer_ReflectEchoesName(t *testing.T) {
	utt := liveComposer().Reflect("PlanTripIntent")
	assert.Equal(t, "You just triggered PlanTripIntent.", utt.Speech)
}

func TestStubComposer(t *testing.T) {
	c := NewStubComposer()
	assert.False(t, c.NeedsWeather())
	assert.Equal(t, "You triggered weather intent.", c.WeatherDescription(domain.WeatherSnapshot{}, errFetch).Speech)
	assert.Equal(t, "You triggered temperature intent.", c.Temperature(domain.WeatherSnapshot{}, nil).Speech)
	assert.Equal(t, "You triggered hello world intent.", c.Greeting(domain.WeatherSnapshot{}, nil).Speech)
	assert.Equal(t, launchText, c.Launch().Speech)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "18", formatNumber(18.0))
	assert.Equal(t, "16.5", formatNumber(16.5))
	assert.Equal(t, "0.25", formatNumber(0.25))
	assert.Equal(t, "-4", formatNumber(-4))
}
