package domain

import "time"

// Platform request types carried in request.type.
const (
	RequestTypeLaunch       = "LaunchRequest"
	RequestTypeIntent       = "IntentRequest"
	RequestTypeSessionEnded = "SessionEndedRequest"
)

// Request is the platform-neutral view of an inbound voice request.
type Request struct {
	ID         string
	Type       string
	IntentName string // empty unless Type is IntentRequest
	SessionID  string
	Locale     string
	Timestamp  time.Time
}

// RequestKind classifies a request. Exactly one kind is assigned per request.
type RequestKind int

const (
	KindUnknown RequestKind = iota // nothing matched; only seen on the exception path
	KindLaunch
	KindGreeting
	KindWeatherQuery
	KindTemperatureQuery
	KindClothingQuery
	KindMiscQuery
	KindHelp
	KindCancelOrStop
	KindFallback
	KindSessionEnded
	KindUnrecognizedIntent
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindLaunch:             "launch",
	KindGreeting:           "greeting",
	KindWeatherQuery:       "weather",
	KindTemperatureQuery:   "temperature",
	KindClothingQuery:      "clothing",
	KindMiscQuery:          "misc",
	KindHelp:               "help",
	KindCancelOrStop:       "cancel_or_stop",
	KindFallback:           "fallback",
	KindSessionEnded:       "session_ended",
	KindUnrecognizedIntent: "unrecognized_intent",
}

// String returns the snake_case label used in logs, metrics, and audit records.
func (k RequestKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Utterance is the abstract output of a handler, independent of the
// platform's response envelope.
type Utterance struct {
	Speech     string
	Reprompt   string // empty means no reprompt
	EndSession bool
}
