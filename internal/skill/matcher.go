package skill

import "github.com/couchcryptid/weather-skill-service/internal/domain"

// Matcher is a pure predicate over an inbound request.
type Matcher func(domain.Request) bool

// IsRequestType matches requests of the given platform request type.
func IsRequestType(requestType string) Matcher {
	return func(r domain.Request) bool {
		return r.Type == requestType
	}
}

// IsIntentName matches intent requests whose intent name is one of names.
// Names are compared exactly.
func IsIntentName(names ...string) Matcher {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(r domain.Request) bool {
		if r.Type != domain.RequestTypeIntent {
			return false
		}
		_, ok := set[r.IntentName]
		return ok
	}
}

// Always matches every request.
func Always() Matcher {
	return func(domain.Request) bool { return true }
}

// Intent names from the interaction model. Custom intents are listed in both
// the lowerCamel and UpperCamel spellings that appear in deployed models.
var (
	GreetingIntents     = []string{"HelloWorldIntent"}
	WeatherIntents      = []string{"weatherIntent", "WeatherIntent"}
	TemperatureIntents  = []string{"temperatureIntent", "TemperatureIntent"}
	ClothingIntents     = []string{"clothingIntent", "ClothingIntent"}
	MiscIntents         = []string{"miscIntent", "MiscIntent"}
	HelpIntents         = []string{"AMAZON.HelpIntent"}
	CancelOrStopIntents = []string{"AMAZON.CancelIntent", "AMAZON.StopIntent"}
	FallbackIntents     = []string{"AMAZON.FallbackIntent"}
)
