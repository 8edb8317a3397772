package skill

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
)

// Composer turns weather results, or their absence, into utterances.
// Weather-dependent methods receive the snapshot and the fetch error; they
// never fail and always return a speakable utterance.
type Composer interface {
	// NeedsWeather reports whether weather-dependent methods read the snapshot.
	// When false the skill answers those kinds without calling upstream.
	NeedsWeather() bool

	Launch() domain.Utterance
	Greeting(snap domain.WeatherSnapshot, err error) domain.Utterance
	WeatherDescription(snap domain.WeatherSnapshot, err error) domain.Utterance
	Temperature(snap domain.WeatherSnapshot, err error) domain.Utterance
	Clothing() domain.Utterance
	Misc() domain.Utterance
	Help() domain.Utterance
	CancelOrStop() domain.Utterance
	Fallback() domain.Utterance
	SessionEnded() domain.Utterance
	Reflect(intentName string) domain.Utterance
	Exception() domain.Utterance
}

const (
	launchText          = "Welcome to the Weather Tool Skill. You can ask me about the weather."
	fetchErrorText      = "There was an error fetching the weather information."
	weatherErrorText    = "There was an error processing the weather information."
	temperatureErrText  = "There was an error processing the temperature information."
	helpText            = "You can ask me about the weather or the temperature, or just say hello. How can I help?"
	goodbyeText         = "Goodbye!"
	fallbackText        = "Hmm, I'm not sure. You can say Hello or Help. What would you like to do?"
	fallbackRepromptTxt = "I didn't catch that. What can I help you with?"
	exceptionText       = "Sorry, I do not understand what you asked, please try again."
)

// speak is an utterance that keeps the session open without a reprompt.
func speak(text string) domain.Utterance {
	return domain.Utterance{Speech: text}
}

// ask is an utterance that keeps the session open and reprompts.
func ask(text, reprompt string) domain.Utterance {
	return domain.Utterance{Speech: text, Reprompt: reprompt}
}

// formatNumber renders a float with the fewest digits that round-trip,
// e.g. 18 -> "18", 16.5 -> "16.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// commonComposer holds the responses that do not depend on weather data.
type commonComposer struct{}

func (commonComposer) Launch() domain.Utterance { return ask(launchText, launchText) }
func (commonComposer) Help() domain.Utterance   { return ask(helpText, helpText) }

func (commonComposer) Clothing() domain.Utterance { return speak("You triggered clothing intent.") }
func (commonComposer) Misc() domain.Utterance     { return speak("You triggered miscellaneous intent.") }

func (commonComposer) CancelOrStop() domain.Utterance {
	return domain.Utterance{Speech: goodbyeText, EndSession: true}
}

func (commonComposer) Fallback() domain.Utterance { return ask(fallbackText, fallbackRepromptTxt) }

// SessionEnded has nothing to say; the platform discards any speech.
func (commonComposer) SessionEnded() domain.Utterance {
	return domain.Utterance{EndSession: true}
}

func (commonComposer) Reflect(intentName string) domain.Utterance {
	return speak(fmt.Sprintf("You just triggered %s.", intentName))
}

func (commonComposer) Exception() domain.Utterance { return ask(exceptionText, exceptionText) }

// LiveComposer composes responses from real weather snapshots.
type LiveComposer struct {
	commonComposer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLiveComposer creates a composer that reads weather snapshots.
func NewLiveComposer(logger *slog.Logger, metrics *observability.Metrics) *LiveComposer {
	return &LiveComposer{logger: logger, metrics: metrics}
}

func (*LiveComposer) NeedsWeather() bool { return true }

// Greeting reports the upstream status code, or apologises if the fetch failed.
func (c *LiveComposer) Greeting(snap domain.WeatherSnapshot, err error) domain.Utterance {
	if err != nil {
		return speak("Hello World! " + fetchErrorText)
	}
	return speak(fmt.Sprintf("Hello World! The API status code is %d.", snap.StatusCode))
}

// WeatherDescription describes current conditions followed by the rain and
// snow clauses, in that order, for whichever are present.
func (c *LiveComposer) WeatherDescription(snap domain.WeatherSnapshot, err error) domain.Utterance {
	if err != nil {
		return speak(fetchErrorText)
	}
	text, cerr := describeWeather(snap)
	if cerr != nil {
		c.compositionFailed(domain.KindWeatherQuery, cerr)
		return speak(weatherErrorText)
	}
	return speak(text)
}

// Temperature reports actual and feels-like temperatures in Celsius.
func (c *LiveComposer) Temperature(snap domain.WeatherSnapshot, err error) domain.Utterance {
	if err != nil {
		return speak(fetchErrorText)
	}
	text, cerr := describeTemperature(snap)
	if cerr != nil {
		c.compositionFailed(domain.KindTemperatureQuery, cerr)
		return speak(temperatureErrText)
	}
	return speak(text)
}

func (c *LiveComposer) compositionFailed(kind domain.RequestKind, err *domain.CompositionError) {
	c.metrics.CompositionErrs.WithLabelValues(kind.String()).Inc()
	c.logger.Error("weather response incomplete", "error", err, "kind", kind.String(), "field", err.Field)
}

func describeWeather(snap domain.WeatherSnapshot) (string, *domain.CompositionError) {
	if snap.Description == "" {
		return "", &domain.CompositionError{Field: "weather[0].description", Reason: "is missing"}
	}

	var b strings.Builder
	b.WriteString("The current weather is ")
	b.WriteString(snap.Description)

	clauses := []struct {
		field   string
		noun    string
		reading domain.Reading
	}{
		{"rain.1h", "rain", snap.RainLastHour},
		{"snow.1h", "snow", snap.SnowLastHour},
	}
	for _, cl := range clauses {
		if !cl.reading.Present {
			continue
		}
		if cl.reading.Invalid {
			return "", &domain.CompositionError{Field: cl.field, Reason: "is not a number"}
		}
		fmt.Fprintf(&b, ", with %s mm of %s in the last hour", formatNumber(cl.reading.Value), cl.noun)
	}
	b.WriteString(".")
	return b.String(), nil
}

func describeTemperature(snap domain.WeatherSnapshot) (string, *domain.CompositionError) {
	fields := []struct {
		name    string
		reading domain.Reading
	}{
		{"main.temp", snap.Temperature},
		{"main.feels_like", snap.FeelsLike},
	}
	for _, f := range fields {
		if !f.reading.Present {
			return "", &domain.CompositionError{Field: f.name, Reason: "is missing"}
		}
		if f.reading.Invalid {
			return "", &domain.CompositionError{Field: f.name, Reason: "is not a number"}
		}
	}
	return fmt.Sprintf("The current temperature is %s°C, but feels like %s°C.",
		formatNumber(snap.Temperature.Value), formatNumber(snap.FeelsLike.Value)), nil
}

// StubComposer answers weather-dependent kinds with placeholder text. It is
// used for interaction-model testing without network access.
type StubComposer struct {
	commonComposer
}

// NewStubComposer creates a composer that never reads weather data.
func NewStubComposer() *StubComposer { return &StubComposer{} }

func (*StubComposer) NeedsWeather() bool { return false }

func (*StubComposer) Greeting(domain.WeatherSnapshot, error) domain.Utterance {
	return speak("You triggered hello world intent.")
}

func (*StubComposer) WeatherDescription(domain.WeatherSnapshot, error) domain.Utterance {
	return speak("You triggered weather intent.")
}

func (*StubComposer) Temperature(domain.WeatherSnapshot, error) domain.Utterance {
	return speak("You triggered temperature intent.")
}
